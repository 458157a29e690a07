package report

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/trajnet/internal/fsutil"
	"github.com/banshee-data/trajnet/internal/trajnet/category"
	"github.com/banshee-data/trajnet/internal/trajnet/pipeline"
)

// SeriesName labels one split report in charts.
func SeriesName(rep pipeline.SplitReport) string {
	return fmt.Sprintf("%s %s", rep.Dataset, rep.Split)
}

// WriteCategoryChart renders retained-scene counts per category and
// interaction sub-type, one series per split report, to an HTML page at
// path.
func WriteCategoryChart(fsys fsutil.FileSystem, path string, reports []pipeline.SplitReport) error {
	if len(reports) == 0 {
		return ErrNoData
	}

	catNames := make([]string, len(category.Categories))
	for i, c := range category.Categories {
		catNames[i] = c.String()
	}
	catBar := charts.NewBar()
	catBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "trajnet categories", Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Retained scenes per category", Subtitle: fmt.Sprintf("splits=%d", len(reports))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	catBar.SetXAxis(catNames)
	for _, rep := range reports {
		data := make([]opts.BarData, len(category.Categories))
		for i, c := range category.Categories {
			data[i] = opts.BarData{Value: rep.Stats.Kept[c]}
		}
		catBar.AddSeries(SeriesName(rep), data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	}

	interNames := make([]string, len(category.Interactions))
	for i, it := range category.Interactions {
		interNames[i] = it.String()
	}
	interBar := charts.NewBar()
	interBar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "520px"}),
		charts.WithTitleOpts(opts.Title{Title: "Interaction sub-types"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
	)
	interBar.SetXAxis(interNames)
	for _, rep := range reports {
		data := make([]opts.BarData, len(category.Interactions))
		for i, it := range category.Interactions {
			data[i] = opts.BarData{Value: rep.Stats.Interactions[it]}
		}
		interBar.AddSeries(SeriesName(rep), data)
	}

	page := components.NewPage()
	page.AddCharts(catBar, interBar)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render category chart: %w", err)
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	return fsys.WriteFile(path, buf.Bytes(), 0644)
}
