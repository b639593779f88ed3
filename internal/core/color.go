package core

import "strings"

// Color is an opaque entity color. An agent may only manipulate boxes of its
// own color; the only predicate the planner uses is equality.
type Color string

const (
	Blue      Color = "blue"
	Red       Color = "red"
	Cyan      Color = "cyan"
	Purple    Color = "purple"
	Green     Color = "green"
	Orange    Color = "orange"
	Pink      Color = "pink"
	Grey      Color = "grey"
	Lightblue Color = "lightblue"
	Brown     Color = "brown"
)

var knownColors = map[Color]bool{
	Blue: true, Red: true, Cyan: true, Purple: true, Green: true,
	Orange: true, Pink: true, Grey: true, Lightblue: true, Brown: true,
}

// ParseColor normalizes a color name from a level file. Returns false for
// colors outside the domain's palette.
func ParseColor(s string) (Color, bool) {
	c := Color(strings.ToLower(strings.TrimSpace(s)))
	return c, knownColors[c]
}
