// Command warehousevis solves a level and plays the plan back in a window.
package main

import (
	"flag"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
	"github.com/sirupsen/logrus"

	"github.com/elektrokombinacija/warehouse-mapf/internal/algo"
	"github.com/elektrokombinacija/warehouse-mapf/internal/levelio"
	"github.com/elektrokombinacija/warehouse-mapf/internal/vis"
)

func main() {
	levelPath := flag.String("level", "", "level file to solve and visualize")
	flag.Parse()
	if *levelPath == "" {
		log.Fatal("usage: warehousevis -level <file>")
	}

	f, err := os.Open(*levelPath)
	if err != nil {
		log.Fatal(err)
	}
	level, err := levelio.Parse(f)
	f.Close()
	if err != nil {
		log.Fatal(err)
	}

	solver := algo.NewCBS(level, algo.DefaultOptions(), logrus.NewEntry(logrus.StandardLogger()))
	result := solver.Solve()
	if !result.Solved {
		log.Fatalf("unable to solve level: %s", result.Reason)
	}

	application, err := vis.NewApp(level, result.Plan)
	if err != nil {
		log.Fatal(err)
	}

	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("Warehouse Plan Viewer"),
			app.Size(unit.Dp(1000), unit.Dp(800)),
		)
		if err := application.Run(window); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}
