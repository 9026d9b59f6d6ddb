// Package render draws cross-sections as PNG heatmaps and HTML reports.
// Output is a convenience for inspection; the arrays in the store remain
// the canonical products.
package render

import (
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/pelagic-data/section.report/internal/section"
)

// sectionGrid adapts a Section to plotter.GridXYZ. Depth plots negative
// so the surface sits at the top of the figure.
type sectionGrid struct {
	sec *section.Section
}

func (sg sectionGrid) Dims() (c, r int) { return len(sg.sec.Positions), len(sg.sec.Depths) }
func (sg sectionGrid) Z(c, r int) float64 {
	return sg.sec.Values.Get(c, r)
}
func (sg sectionGrid) X(c int) float64 { return sg.sec.Positions[c] }
func (sg sectionGrid) Y(r int) float64 { return -sg.sec.Depths[r] }

// SectionPNG writes a heatmap of the cross-section to path. Missing
// values are left blank.
func SectionPNG(sec *section.Section, title, path string) error {
	if sec == nil || sec.Values == nil {
		return fmt.Errorf("render: nil section")
	}
	h := plotter.NewHeatMap(sectionGrid{sec: sec}, palette.Heat(12, 1))
	if lo, hi, ok := finiteRange(sec.Values.Elements); ok {
		h.Min, h.Max = lo, hi
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "track position"
	p.Y.Label.Text = "depth (m, surface at top)"
	p.Add(h)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// SectionHTML writes an interactive scatter heatmap of the
// cross-section, one symbol per grid cell with a shared colour ramp.
func SectionHTML(sec *section.Section, title, path string) error {
	if sec == nil || sec.Values == nil {
		return fmt.Errorf("render: nil section")
	}
	data := make([]opts.ScatterData, 0, len(sec.Positions)*len(sec.Depths))
	for p := range sec.Positions {
		for k := range sec.Depths {
			v := sec.Values.Get(p, k)
			if math.IsNaN(v) {
				continue
			}
			data = append(data, opts.ScatterData{Value: []interface{}{sec.Positions[p], -sec.Depths[k], v}})
		}
	}
	lo, hi, _ := finiteRange(sec.Values.Elements)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1100px", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("cells=%d", len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "track position", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "depth (m)", NameLocation: "middle", NameGap: 35}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#3e4989", "#26828e", "#35b779", "#b5de2b", "#fde725"}},
		}),
	)
	scatter.AddSeries("section", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: create %s: %w", path, err)
	}
	defer f.Close()
	if err := scatter.Render(f); err != nil {
		return fmt.Errorf("render: %s: %w", path, err)
	}
	return nil
}

func finiteRange(vals []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, hi >= lo
}
