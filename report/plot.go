package report

import (
	"fmt"
	"path"

	"github.com/zeu5/osm-deviation-rl/types"
	"github.com/zeu5/osm-deviation-rl/util"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Metric picks one series out of a monitor
type Metric struct {
	Name  string
	Label string
	Value func(types.EpisodeMetrics) float64
}

var (
	RewardMetric = Metric{Name: "reward", Label: "Discounted reward", Value: func(e types.EpisodeMetrics) float64 { return e.Reward }}
	DeltaMetric  = Metric{Name: "delta", Label: "Max residual", Value: func(e types.EpisodeMetrics) float64 { return e.Delta }}
	StepsMetric  = Metric{Name: "steps", Label: "Steps", Value: func(e types.EpisodeMetrics) float64 { return float64(e.Steps) }}
)

// PlotComparator draws one line per experiment for every metric and saves
// the plots as <run>_<metric>.png in the folder
func PlotComparator(plotPath string, metrics ...Metric) types.Comparator {
	if len(metrics) == 0 {
		metrics = []Metric{RewardMetric, DeltaMetric}
	}
	return func(run int, names []string, monitors []*types.Monitor) error {
		if err := util.EnsureDir(plotPath); err != nil {
			return err
		}
		for _, m := range metrics {
			p := plot.New()
			p.Title.Text = "Comparison"
			p.X.Label.Text = "Episode"
			p.Y.Label.Text = m.Label
			for i := 0; i < len(names); i++ {
				episodes := monitors[i].Episodes()
				if len(episodes) == 0 {
					continue
				}
				points := make(plotter.XYs, len(episodes))
				for j, e := range episodes {
					points[j] = plotter.XY{
						X: float64(e.Episode),
						Y: m.Value(e),
					}
				}
				line, err := plotter.NewLine(points)
				if err != nil {
					return err
				}
				line.Color = plotutil.Color(i)
				p.Add(line)
				p.Legend.Add(names[i], line)
			}
			file := path.Join(plotPath, fmt.Sprintf("%d_%s.png", run, m.Name))
			if err := p.Save(8*vg.Inch, 8*vg.Inch, file); err != nil {
				return fmt.Errorf("saving plot %s: %w", file, err)
			}
		}
		return nil
	}
}
