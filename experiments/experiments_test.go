package experiments

import (
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/zeu5/osm-deviation-rl/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	file := path.Join(dir, name)
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func runRoot(t *testing.T, args ...string) {
	t.Helper()
	cmd := GetRootCommand()
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
}

func TestLoadConfigOverDefaults(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "config.yaml", `
graph: graph.json
trips:
  - file: trip.txt
    blocked: [3]
fit:
  gamma: 0.9
  algorithms: [sarsa]
sinks:
  sqlite: metrics.db
`)
	c, err := LoadConfig(file)
	require.NoError(t, err)
	require.Equal(t, "graph.json", c.Graph)
	require.Equal(t, []int64{3}, c.Trips[0].Blocked)
	require.Equal(t, 0.9, c.Fit.Gamma)
	require.Equal(t, 0.8, c.Fit.Alpha)
	require.Equal(t, []string{"sarsa"}, c.Fit.Algorithms)
	require.True(t, c.Sinks.CSV)
	require.Equal(t, "metrics.db", c.Sinks.SQLite)

	fit := c.FitConfig(25, 10)
	require.Equal(t, 25, fit.EpisodeBudget)
	require.Equal(t, 10, fit.Horizon)
	require.Equal(t, 0.9, fit.Gamma)
	require.Equal(t, types.DefaultWindow, fit.Window)

	_, err = LoadConfig(writeFile(t, dir, "bad.yaml", "fit: [1, 2"))
	require.Error(t, err)
}

func TestNewPolicy(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, name := range Algorithms {
		p, err := NewPolicy(name, r)
		require.NoError(t, err)
		require.NotEmpty(t, p.Name())
	}
	_, err := NewPolicy("dqn", r)
	require.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	_, err := parseLevel("debug")
	require.NoError(t, err)
	_, err = parseLevel("loud")
	require.Error(t, err)
}

func TestWaysCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "graph.json", `{
		"ways": [{"id": 1}, {"id": 2}, {"id": 3}, {"id": 4}, {"id": 5}, {"id": 6}],
		"links": {"1": [2], "2": [1, 3, 6], "3": [2, 4], "4": [3, 5], "5": [4], "6": [2, 4]}
	}`)
	writeFile(t, dir, "trip.txt", "1\n2\n3\n4\n5\n")
	cfg := writeFile(t, dir, "config.yaml", `
graph: `+path.Join(dir, "graph.json")+`
trips:
  - file: `+path.Join(dir, "trip.txt")+`
    blocked: [3]
sinks:
  csv: true
  plot: false
  sqlite: `+path.Join(dir, "metrics.db")+`
`)
	save := path.Join(dir, "results")
	runRoot(t, "ways", "--config", cfg, "-e", "30", "--horizon", "40", "-s", save, "--log-level", "error")

	for _, name := range []string{"q-learning.json", "sarsa.json", "expected-sarsa.json", "random.json", "rollouts.jsonl"} {
		_, err := os.Stat(path.Join(save, "ways", name))
		require.NoError(t, err, name)
	}
	_, err := os.Stat(path.Join(save, "ways", "reports", "SARSA_0.csv"))
	require.NoError(t, err)

	table, err := types.LoadQTable(path.Join(save, "ways", "q-learning.json"))
	require.NoError(t, err)
	require.Equal(t, 3, table.ActionSpace())
	require.True(t, table.Has(types.Key(2)))

	runRoot(t, "inspect", path.Join(save, "ways", "sarsa.json"), "--log-level", "error")
}

func TestRoutesCommand(t *testing.T) {
	dir := t.TempDir()
	route := writeFile(t, dir, "city2.json", `{
		"id": "city2", "length": 100,
		"stops": [{"name": "A", "node": 11}, {"name": "B", "node": 13}],
		"nodes": [10, 11, 12, 13, 14]
	}`)
	dev1 := writeFile(t, dir, "city2_dev1.json", `{"length": 50, "nodes": [10, 20, 13, 14]}`)
	dev2 := writeFile(t, dir, "city2_dev2.json", `{"length": 20, "nodes": [11, 12, 13]}`)
	cfg := writeFile(t, dir, "config.yaml", `
routes:
  - route: `+route+`
    deviations: [`+dev1+`, `+dev2+`]
scenarios: [12, 99]
weights:
  length: 2
  stops: 4
fit:
  algorithms: [q-learning]
sinks:
  csv: false
  plot: false
`)
	save := path.Join(dir, "results")
	runRoot(t, "routes", "--config", cfg, "-e", "300", "-s", save, "--log-level", "error")

	table, err := types.LoadQTable(path.Join(save, "routes", "q-learning.json"))
	require.NoError(t, err)
	require.Equal(t, 3, table.ActionSpace())
	require.Equal(t, 1, table.Predict(types.Key(0, 0)))
	require.Equal(t, 0, table.Predict(types.Key(0, 1)))

	runRoot(t, "inspect", path.Join(save, "routes", "q-learning.json"), "--config", cfg, "--log-level", "error")
}
