// Package preview renders boundary collections into quick-look debug
// artefacts: an interactive HTML 3D scatter (go-echarts) and a static PNG
// projection (gonum/plot).
package preview

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/surface.report/internal/surface/borders"
	"github.com/banshee-data/surface.report/internal/surface/mesh"
)

// Plane selects the two coordinates a PNG projection keeps.
type Plane int

const (
	PlaneXY Plane = iota
	PlaneXZ
	PlaneYZ
)

// ParsePlane accepts "xy", "xz" or "yz".
func ParsePlane(s string) (Plane, error) {
	switch s {
	case "xy", "":
		return PlaneXY, nil
	case "xz":
		return PlaneXZ, nil
	case "yz":
		return PlaneYZ, nil
	default:
		return 0, fmt.Errorf("unknown projection plane %q", s)
	}
}

func (p Plane) axes() (string, string) {
	switch p {
	case PlaneXZ:
		return "X", "Z"
	case PlaneYZ:
		return "Y", "Z"
	default:
		return "X", "Y"
	}
}

func (p Plane) project(v r3.Vec) (float64, float64) {
	switch p {
	case PlaneXZ:
		return v.X, v.Z
	case PlaneYZ:
		return v.Y, v.Z
	default:
		return v.X, v.Y
	}
}

// seriesName labels one collection in legends.
func seriesName(c borders.Collection) string {
	return fmt.Sprintf("label %d", c.Label)
}

// WriteHTML renders cs as a 3D scatter page, one series per label.
func WriteHTML(w io.Writer, key mesh.Key, cs []borders.Collection) error {
	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Surface borders", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Surface borders", Subtitle: fmt.Sprintf("%s labels=%d points=%d", key, len(cs), borders.TotalPoints(cs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	for _, c := range cs {
		data := make([]opts.Chart3DData, 0, len(c.Points))
		for _, p := range c.Points {
			data = append(data, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
		}
		scatter.AddSeries(seriesName(c), data)
	}

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render borders html: %w", err)
	}
	return nil
}

// WritePNG renders cs projected onto plane as a PNG image.
func WritePNG(w io.Writer, key mesh.Key, cs []borders.Collection, plane Plane) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Borders %s", key)
	p.X.Label.Text, p.Y.Label.Text = plane.axes()

	for i, c := range cs {
		if len(c.Points) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(c.Points))
		for j, pt := range c.Points {
			xys[j].X, xys[j].Y = plane.project(pt)
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("scatter for label %d: %w", c.Label, err)
		}
		s.GlyphStyle.Color = plotutil.Color(i)
		s.GlyphStyle.Radius = vg.Points(1.5)
		p.Add(s)
		p.Legend.Add(seriesName(c), s)
	}

	wt, err := p.WriterTo(6*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render borders png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write borders png: %w", err)
	}
	return nil
}
