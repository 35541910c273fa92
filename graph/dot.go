package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// formatIndex renders a vertex index in decimal.
func formatIndex(index uint64) string {
	return strconv.FormatUint(index, 10)
}

// DotGraph returns a string representing this graph in the Graphviz DOT
// format.
func (g *Graph[V, E]) DotGraph() string {
	var vertices []string
	for _, v := range g.Vertices() {
		label := strings.ReplaceAll(v.DotLabel(), "\n", `\l`)
		vertices = append(vertices, fmt.Sprintf("%d [shape=\"box\", label=\"%s\", style=\"filled\", fillcolor=\"#ffddcc\"];", v.Index(), label))
	}

	var edges []string
	for _, e := range g.Edges() {
		edges = append(edges, fmt.Sprintf("%d -> %d [label=\"%s\"];", e.Head(), e.Tail(), e.DotLabel()))
	}

	options := []string{
		`graph [fontname = "Courier New", splines="polyline"]`,
		`node [fontname = "Courier New"]`,
		`edge [fontname = "Courier New"]`,
	}

	return fmt.Sprintf("digraph G {\n%s\n\n%s\n%s\n}", strings.Join(options, "\n"), strings.Join(vertices, "\n"), strings.Join(edges, "\n"))
}
