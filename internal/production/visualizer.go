// Package production provides the telemetry collaborators of the engine:
// transition logging, metrics, an audit journal, event publishing and chart
// visualization.
package production

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/primitives"
)

// Visualizer renders a chart description.
type Visualizer struct{}

// ActivePaths returns the state paths that are active in s, outermost first.
func ActivePaths(s safetychart.Snapshot) []string {
	paths := []string{s.Top.String()}
	if s.Sub != safetychart.None {
		paths = append(paths, s.Top.String()+"."+s.Sub.String())
	}
	return paths
}

// ExportDOT generates Graphviz DOT source for the chart, highlighting the
// states named in active.
func (v *Visualizer) ExportDOT(chart primitives.ChartConfig, active []string) string {
	on := make(map[string]bool, len(active))
	for _, p := range active {
		on[p] = true
	}

	var b strings.Builder
	b.WriteString("digraph Statechart {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")
	b.WriteString("  edge [fontsize=9];\n")
	fmt.Fprintf(&b, "  \"__start\" [shape=point];\n  \"__start\" -> %q;\n", chart.Initial)

	for _, s := range chart.States {
		renderState(&b, "", s, on, "  ")
	}
	for _, t := range chart.Transitions {
		style := ""
		switch t.Kind {
		case primitives.Completion:
			style = " style=dashed"
		case primitives.Escape:
			style = " color=red"
		}
		fmt.Fprintf(&b, "  %q -> %q [label=%q%s];\n", t.Source, t.Target, t.Label(), style)
	}
	b.WriteString("}\n")
	return b.String()
}

func renderState(b *strings.Builder, prefix string, s *primitives.StateConfig, on map[string]bool, indent string) {
	path := s.ID
	if prefix != "" {
		path = prefix + "." + s.ID
	}
	label := s.ID
	if hooks := append(append([]string(nil), s.Entry...), s.Exit...); len(hooks) > 0 {
		label += "\\n" + strings.Join(hooks, "\\n")
	}

	if len(s.Children) == 0 {
		attrs := ""
		switch {
		case s.Type == primitives.Final:
			attrs = " shape=doublecircle"
		case on[path]:
			attrs = " style=filled fillcolor=lightgreen"
		}
		fmt.Fprintf(b, "%s%q [label=\"%s\"%s];\n", indent, path, label, attrs)
		return
	}

	fmt.Fprintf(b, "%ssubgraph \"cluster_%s\" {\n", indent, path)
	fmt.Fprintf(b, "%s  label=\"%s\";\n", indent, label)
	if on[path] {
		fmt.Fprintf(b, "%s  style=filled; fillcolor=orange;\n", indent)
	}
	fmt.Fprintf(b, "%s  %q [shape=ellipse label=%q];\n", indent, path, s.ID)
	for _, c := range s.Children {
		renderState(b, path, c, on, indent+"  ")
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

// ExportJSON serializes the chart to indented JSON.
func (v *Visualizer) ExportJSON(chart primitives.ChartConfig) ([]byte, error) {
	return json.MarshalIndent(chart, "", "  ")
}

// ExportYAML serializes the chart to YAML.
func (v *Visualizer) ExportYAML(chart primitives.ChartConfig) ([]byte, error) {
	data, err := yaml.Marshal(chart)
	if err != nil {
		return nil, fmt.Errorf("yaml marshal: %w", err)
	}
	return data, nil
}

// Export renders the chart in the named format: dot, json or yaml.
func (v *Visualizer) Export(chart primitives.ChartConfig, format string, active []string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "dot", "":
		return []byte(v.ExportDOT(chart, active)), nil
	case "json":
		return v.ExportJSON(chart)
	case "yaml", "yml":
		return v.ExportYAML(chart)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}
