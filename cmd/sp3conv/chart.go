package main

import (
	"github.com/guptarohit/asciigraph"

	"github.com/signalsfoundry/sp3-orbit-converter/model"
)

// renderRadiusChart plots the geocentric distance of an orbit series in km.
func renderRadiusChart(series model.OrbitSeries, width, height int, caption string) string {
	if len(series) == 0 {
		return "no orbit data"
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(series))
	for i, e := range series {
		data[i] = e.Position.Norm() / 1e3
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
