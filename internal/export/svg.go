package export

import (
	"fmt"
	"os"
	"strings"
)

// SeriesToSVG renders a per-frame series (frame times, step counts) as a
// polyline chart. Bounds are padded by 10% so the line never touches the
// frame edge.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	rangeV := maxV - minV
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.1
	maxV += rangeV * 0.1
	rangeV = maxV - minV

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	stepX := float64(width) / float64(len(values)-1)
	for i, v := range values {
		x := float64(i) * stepX
		y := float64(height) - (v-minV)/rangeV*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// SaveSeriesSVG writes the chart to path.
func SaveSeriesSVG(path string, values []float64, width, height int, strokeColor string) error {
	svg := SeriesToSVG(values, width, height, strokeColor)
	if svg == "" {
		return fmt.Errorf("series needs at least two samples, got %d", len(values))
	}
	return os.WriteFile(path, []byte(svg), 0644)
}
