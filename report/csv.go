package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/zeu5/osm-deviation-rl/types"
	"github.com/zeu5/osm-deviation-rl/util"
)

// Header of the tabular episode reports
var Header = []string{"episode", "steps", "reward", "delta", "duration", "epsilon"}

// CSVSink writes one file per experiment run into a folder
type CSVSink struct {
	dir string
}

var _ types.Sink = &CSVSink{}

func NewCSVSink(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

// Path of the report of an experiment run
func (c *CSVSink) Path(experiment string, run int) string {
	return path.Join(c.dir, fmt.Sprintf("%s_%d.csv", experiment, run))
}

func (c *CSVSink) Record(experiment string, run int, episodes []types.EpisodeMetrics) error {
	if err := util.EnsureDir(c.dir); err != nil {
		return err
	}
	f, err := os.Create(c.Path(experiment, run))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, e := range episodes {
		if err := w.Write(Row(e)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Row renders the metrics of an episode in Header order
func Row(e types.EpisodeMetrics) []string {
	return []string{
		strconv.Itoa(e.Episode),
		strconv.Itoa(e.Steps),
		strconv.FormatFloat(e.Reward, 'g', -1, 64),
		strconv.FormatFloat(e.Delta, 'g', -1, 64),
		strconv.FormatFloat(e.Duration.Seconds(), 'f', 6, 64),
		strconv.FormatFloat(e.Epsilon, 'g', -1, 64),
	}
}
