package report

import (
	"encoding/csv"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zeu5/osm-deviation-rl/types"
)

func sampleEpisodes() []types.EpisodeMetrics {
	return []types.EpisodeMetrics{
		{Episode: 1, Steps: 4, Reward: 0.5, Delta: 1.2, Duration: 1500 * time.Microsecond, Epsilon: 0.8},
		{Episode: 2, Steps: 3, Reward: 1.5, Delta: 0.25, Duration: 2 * time.Millisecond, Epsilon: 0.7992},
	}
}

func TestCSVSinkWritesRows(t *testing.T) {
	sink := NewCSVSink(path.Join(t.TempDir(), "reports"))
	require.NoError(t, sink.Record("q-learning", 0, sampleEpisodes()))

	f, err := os.Open(sink.Path("q-learning", 0))
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	require.Equal(t, Header, rows[0])
	require.Equal(t, []string{"1", "4", "0.5", "1.2", "0.001500", "0.8"}, rows[1])
	require.Equal(t, []string{"2", "3", "1.5", "0.25", "0.002000", "0.7992"}, rows[2])
}

func TestSQLiteSinkStoresRuns(t *testing.T) {
	sink, err := NewSQLiteSink(":memory:")
	require.NoError(t, err)
	defer sink.Close()

	require.NoError(t, sink.Record("sarsa", 0, sampleEpisodes()))
	require.NoError(t, sink.Record("sarsa", 1, sampleEpisodes()[:1]))
	require.NoError(t, sink.Record("q-learning", 0, nil))

	runs, err := sink.Runs("sarsa")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.NotEqual(t, runs[0].ID, runs[1].ID)
	require.Equal(t, 2, runs[0].Episodes)

	episodes, err := sink.Episodes(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, episodes, 2)
	require.Equal(t, 3, episodes[1].Steps)
	require.Equal(t, 1.5, episodes[1].Reward)
	require.Equal(t, 0.7992, episodes[1].Epsilon)

	var count int
	require.NoError(t, sink.DB().QueryRow(`SELECT COUNT(*) FROM episode_metrics`).Scan(&count))
	require.Equal(t, 3, count)
}

func TestPlotComparatorSavesImages(t *testing.T) {
	dir := path.Join(t.TempDir(), "plots")
	m := types.NewMonitor()
	for _, e := range sampleEpisodes() {
		m.Add(e)
	}
	comp := PlotComparator(dir)
	require.NoError(t, comp(0, []string{"sarsa", "empty"}, []*types.Monitor{m, types.NewMonitor()}))

	for _, name := range []string{"0_reward.png", "0_delta.png"} {
		info, err := os.Stat(path.Join(dir, name))
		require.NoError(t, err)
		require.Greater(t, info.Size(), int64(0))
	}
}
