// Package report renders conversion results for inspection: an HTML page
// of category and interaction counts per split (go-echarts) and PNG plots
// of scene trajectories (gonum/plot).
package report
