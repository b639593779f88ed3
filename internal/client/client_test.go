package client

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
	"github.com/elektrokombinacija/warehouse-mapf/internal/core"
)

const wireLevel = `#domain
hospital
#levelname
wire
#colors
blue: 0
#initial
++++
+0 +
++++
#goal
++++
+ 0+
++++
#end
`

func testLog() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logrus.NewEntry(logger)
}

func TestRunStreamsPlan(t *testing.T) {
	// The server sends the level followed by one response per action row.
	in := strings.NewReader(wireLevel + "ok\n")
	var out bytes.Buffer

	var solvedLevel *core.Level
	solve := func(level *core.Level) *algo.Result {
		solvedLevel = level
		return &algo.Result{
			Solved:     true,
			Plan:       core.Plan{{core.MoveE}},
			SumOfCosts: 1,
		}
	}

	require.NoError(t, Run(in, &out, solve, testLog()))
	require.NotNil(t, solvedLevel)
	assert.Equal(t, "wire", solvedLevel.Name)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, ClientName, lines[0])
	assert.Equal(t, "Move(E)", lines[1])
}

func TestRunNoSolutionIsTerminal(t *testing.T) {
	in := strings.NewReader(wireLevel)
	var out bytes.Buffer

	solve := func(level *core.Level) *algo.Result {
		return &algo.Result{Reason: algo.ReasonLimitExpansions}
	}

	// Planning failure is a normal outcome, not a protocol error.
	require.NoError(t, Run(in, &out, solve, testLog()))
	assert.Equal(t, ClientName+"\n", out.String())
}

func TestRunRejectsMalformedLevel(t *testing.T) {
	in := strings.NewReader("#domain\n")
	var out bytes.Buffer

	solve := func(level *core.Level) *algo.Result { t.Fatal("must not solve"); return nil }
	assert.Error(t, Run(in, &out, solve, testLog()))
}
