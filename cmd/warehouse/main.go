// Command warehouse plans warehouse MAPF levels with Conflict-Based Search.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
