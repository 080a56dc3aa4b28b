package export_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cory-johannsen/idlesim/internal/export"
	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
)

func results() []aggregate.Result {
	return []aggregate.Result{
		{TargetID: "goblin", Name: "Goblin", Kind: "monster", Method: aggregate.MethodAnalytical, DPS: 3.5, XPPerHour: 1200, DeathRate: 0, Survivability: 1},
		{
			TargetID: "goblin_warren", Name: "Goblin Warren", Kind: "dungeon", Method: aggregate.MethodMonteCarlo,
			DPS: 2.25, XPPerHour: 900, DeathRate: 0.25, Survivability: 0.75, HighestHitTaken: 60,
			Stages: []aggregate.StageStats{
				{MonsterID: "goblin", Method: aggregate.MethodMonteCarlo, Reach: 1, KillProb: 0.9, DeathProb: 0.1, TimeMs: 30_000},
				{MonsterID: "hill_giant", Method: aggregate.MethodMonteCarlo, Reach: 0.9, KillProb: 0.8, DeathProb: 0.2, TimeMs: 60_000},
			},
		},
	}
}

func TestWriteXLSX(t *testing.T) {
	rollup := aggregate.Rollup(results())
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, results(), &rollup))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Results", "Stages"}, f.GetSheetList())

	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Target", rows[0][0])
	assert.Equal(t, "DPS", rows[0][3])
	assert.Equal(t, "Goblin", rows[1][0])
	assert.Equal(t, "Goblin Warren", rows[2][0])
	assert.Equal(t, "rollup", rows[3][0])

	v, err := f.GetCellValue("Results", "D2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "3.5", v)

	stages, err := f.GetRows("Stages")
	require.NoError(t, err)
	require.Len(t, stages, 3)
	assert.Equal(t, "hill_giant", stages[2][2])
	assert.Equal(t, "Goblin Warren", stages[2][0])
}

func TestWriteXLSX_NoStagesSheetForMonsters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, results()[:1], nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Results"}, f.GetSheetList())
}

func TestSaveXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.xlsx")
	require.NoError(t, export.SaveXLSX(path, results(), nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Results")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	rollup := aggregate.Rollup(results())
	require.NoError(t, export.WriteTable(&buf, results(), &rollup, map[string]string{"unicorn": "unknown target"}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "TARGET")
	assert.Contains(t, lines[1], "Goblin")
	assert.Contains(t, lines[2], "25.00%")
	assert.Contains(t, lines[3], "rollup")
	assert.Contains(t, lines[4], "unicorn")
	assert.Contains(t, lines[4], "unknown target")
}
