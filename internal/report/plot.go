package report

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/category"
	"github.com/banshee-data/trajnet/internal/trajnet/record"
)

// ErrNoData is returned when there is nothing to render.
var ErrNoData = errors.New("report: nothing to render")

const (
	plotWidth  = 8 * vg.Inch
	plotHeight = 8 * vg.Inch

	// MaxPlotScenes bounds the scenes drawn into one figure.
	MaxPlotScenes = 25
)

var neighborColor = color.RGBA{R: 170, G: 170, B: 170, A: 255}

func xys(rows []record.TrackRow) plotter.XYs {
	pts := make(plotter.XYs, len(rows))
	for i, r := range rows {
		pts[i] = plotter.XY{X: r.X, Y: r.Y}
	}
	return pts
}

// PlotScenes draws up to MaxPlotScenes scenes into one PNG at path.
// Primary paths are coloured per scene with a marker at their start;
// neighbor paths are thin grey lines.
func PlotScenes(fsys fsutil.FileSystem, path string, scenes []record.Scene, title string) error {
	if len(scenes) == 0 {
		return ErrNoData
	}
	if len(scenes) > MaxPlotScenes {
		scenes = scenes[:MaxPlotScenes]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"
	p.Add(plotter.NewGrid())

	colors := generateColors(len(scenes))
	for i, s := range scenes {
		for _, nb := range s.Neighbors {
			if len(nb.Rows) < 2 {
				continue
			}
			line, err := plotter.NewLine(xys(nb.Rows))
			if err != nil {
				return fmt.Errorf("scene %d neighbor %d: %w", s.ID, nb.Pedestrian, err)
			}
			line.Color = neighborColor
			line.Width = vg.Points(0.5)
			p.Add(line)
		}

		pts := xys(s.Primary.Rows)
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("scene %d primary: %w", s.ID, err)
		}
		line.Color = colors[i]
		line.Width = vg.Points(1.5)
		p.Add(line)

		start, err := plotter.NewScatter(pts[:1])
		if err != nil {
			return fmt.Errorf("scene %d start: %w", s.ID, err)
		}
		start.GlyphStyle.Color = colors[i]
		start.GlyphStyle.Shape = draw.CircleGlyph{}
		start.GlyphStyle.Radius = vg.Points(2.5)
		p.Add(start)

		if len(scenes) <= 10 {
			p.Legend.Add(fmt.Sprintf("scene %d", s.ID), line)
		}
	}

	wt, err := p.WriterTo(plotWidth, plotHeight, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode plot: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	return fsys.WriteFile(path, buf.Bytes(), 0644)
}

// PlotCategories writes one PNG per main category found in scenes, named
// <prefix>_<category>.png under dir. Untagged scenes are skipped. It
// returns the written paths in category order.
func PlotCategories(fsys fsutil.FileSystem, dir, prefix string, scenes []record.Scene) ([]string, error) {
	byCat := make(map[category.Category][]record.Scene)
	for _, s := range scenes {
		c := category.Category(s.Tag.Main)
		if !c.Valid() {
			continue
		}
		byCat[c] = append(byCat[c], s)
	}

	var written []string
	for _, c := range category.Categories {
		group := byCat[c]
		if len(group) == 0 {
			continue
		}
		path := filepath.Join(dir, fileStem(fmt.Sprintf("%s_%s", prefix, c))+".png")
		title := fmt.Sprintf("%s: %s (%d scenes)", prefix, c, len(group))
		if err := PlotScenes(fsys, path, group, title); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// fileStem maps an arbitrary label to a safe file name stem: runs of
// characters other than ASCII letters, digits, dot, underscore and dash
// become one underscore.
func fileStem(s string) string {
	var b strings.Builder
	under := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
			under = false
		case !under:
			b.WriteByte('_')
			under = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}

// generateColors spreads n hues evenly around the colour wheel.
func generateColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	return channel(p, q, h+1.0/3), channel(p, q, h), channel(p, q, h-1.0/3)
}

func channel(p, q, t float64) uint8 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	var v float64
	switch {
	case t < 1.0/6:
		v = p + (q-p)*6*t
	case t < 0.5:
		v = q
	case t < 2.0/3:
		v = p + (q-p)*(2.0/3-t)*6
	default:
		v = p
	}
	return uint8(v*255 + 0.5)
}
