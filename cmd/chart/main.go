// Command chart prints the safety chart as DOT, JSON or YAML.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/production"
)

func main() {
	format := flag.String("format", "dot", "output format: dot, json or yaml")
	state := flag.String("state", "", "highlight a state, e.g. Active or BuildPlateLoader/DoorOpened (dot only)")
	flag.Parse()

	chart := safetychart.Chart()
	if err := chart.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "chart:", err)
		os.Exit(1)
	}

	var active []string
	if *state != "" {
		s, err := safetychart.ParseSnapshot(*state)
		if err != nil {
			fmt.Fprintln(os.Stderr, "chart:", err)
			os.Exit(2)
		}
		active = production.ActivePaths(s)
	}

	out, err := (&production.Visualizer{}).Export(chart, *format, active)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chart:", err)
		os.Exit(2)
	}
	os.Stdout.Write(out)
}
