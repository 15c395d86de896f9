package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/san-kum/gatesim/internal/circuit"
	"github.com/san-kum/gatesim/internal/sim"
)

const (
	labelWidth = 80
	laneHeight = 40
	laneSwing  = 24
	padding    = 10
)

// TraceToSVG draws a timing diagram: one lane per probe, each sample
// stepWidth pixels wide.
func TraceToSVG(result *sim.Result, stepWidth int, strokeColor string) string {
	if result == nil || len(result.Trace) == 0 {
		return ""
	}
	if stepWidth <= 0 {
		stepWidth = 10
	}

	width := labelWidth + len(result.Trace)*stepWidth + 2*padding
	height := len(result.Probes)*laneHeight + 2*padding

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for lane, probe := range result.Probes {
		top := padding + lane*laneHeight
		high := top + (laneHeight-laneSwing)/2
		low := high + laneSwing

		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="#cccccc" font-family="monospace" font-size="12">%s</text>
`, padding, low, html.EscapeString(probe)))

		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="`, strokeColor))
		x := padding + labelWidth
		prev := circuit.Low
		for i, row := range result.Trace {
			y := low
			if row[lane] == circuit.High {
				y = high
			}
			switch {
			case i == 0:
				sb.WriteString(fmt.Sprintf("M%d,%d", x, y))
			case row[lane] != prev:
				sb.WriteString(fmt.Sprintf(" L%d,%d", x, y))
			}
			x += stepWidth
			sb.WriteString(fmt.Sprintf(" L%d,%d", x, y))
			prev = row[lane]
		}
		sb.WriteString("\"/>\n")
	}

	sb.WriteString("</svg>")
	return sb.String()
}
