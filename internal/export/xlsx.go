// Package export renders simulation results for people: an .xlsx workbook
// and a plain text table.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
)

const (
	resultsSheet = "Results"
	stagesSheet  = "Stages"
)

type column struct {
	header string
	value  func(aggregate.Result) any
	// percent formats the cell as a percentage.
	percent bool
	width   float64
}

var columns = []column{
	{header: "Target", value: func(r aggregate.Result) any { return r.Name }, width: 22},
	{header: "Kind", value: func(r aggregate.Result) any { return r.Kind }},
	{header: "Method", value: func(r aggregate.Result) any { return string(r.Method) }},
	{header: "DPS", value: func(r aggregate.Result) any { return r.DPS }},
	{header: "XP/h", value: func(r aggregate.Result) any { return r.XPPerHour }},
	{header: "HP XP/h", value: func(r aggregate.Result) any { return r.HPXPPerHour }},
	{header: "Loot/h", value: func(r aggregate.Result) any { return r.LootPerHour }},
	{header: "GP/h", value: func(r aggregate.Result) any { return r.GPPerHour }},
	{header: "Death rate", value: func(r aggregate.Result) any { return r.DeathRate }, percent: true},
	{header: "Survivability", value: func(r aggregate.Result) any { return r.Survivability }, percent: true},
	{header: "Highest hit taken", value: func(r aggregate.Result) any { return r.HighestHitTaken }},
	{header: "Kills/h", value: func(r aggregate.Result) any { return r.KillsPerHour }},
	{header: "Avg kill (s)", value: func(r aggregate.Result) any { return r.AvgKillTimeMs / 1000 }},
	{header: "Damage taken/h", value: func(r aggregate.Result) any { return r.DamageTakenPerHour }},
	{header: "Food/h", value: func(r aggregate.Result) any { return r.FoodPerHour }},
	{header: "Prayer/h", value: func(r aggregate.Result) any { return r.PrayerPointsPerHour }},
	{header: "Potions/h", value: func(r aggregate.Result) any { return r.PotionsPerHour }},
	{header: "Hit chance", value: func(r aggregate.Result) any { return r.HitChance }, percent: true},
	{header: "Enemy hit chance", value: func(r aggregate.Result) any { return r.EnemyHitChance }, percent: true},
	{header: "Encounters", value: func(r aggregate.Result) any { return r.Encounters }},
	{header: "Timeouts", value: func(r aggregate.Result) any { return r.Timeouts }},
	{header: "Deaths", value: func(r aggregate.Result) any { return r.Deaths }},
}

var stageHeaders = []string{"Target", "Stage", "Monster", "Method", "Reach", "Kill chance", "Death chance", "Time (s)", "Damage", "Damage taken", "Food"}

// WriteXLSX writes results, followed by rollup when non-nil, as a workbook
// to w. Composite targets get one row per stage on a second sheet.
func WriteXLSX(w io.Writer, results []aggregate.Result, rollup *aggregate.Result) error {
	f, err := build(results, rollup)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the workbook to path, creating parent directories.
func SaveXLSX(path string, results []aggregate.Result, rollup *aggregate.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := build(results, rollup)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

func build(results []aggregate.Result, rollup *aggregate.Result) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeResults(f, results, rollup); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeStages(f, results); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeResults(f *excelize.File, results []aggregate.Result, rollup *aggregate.Result) error {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	pct, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}
	number, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}

	for c, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(resultsSheet, cell, col.header); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(resultsSheet, "A1", last, header); err != nil {
		return err
	}

	rows := append([]aggregate.Result(nil), results...)
	if rollup != nil {
		rows = append(rows, *rollup)
	}
	for i, r := range rows {
		for c, col := range columns {
			cell, _ := excelize.CoordinatesToCellName(c+1, i+2)
			if err := f.SetCellValue(resultsSheet, cell, col.value(r)); err != nil {
				return err
			}
		}
	}

	if len(rows) > 0 {
		for c, col := range columns {
			name, _ := excelize.ColumnNumberToName(c + 1)
			width := col.width
			if width == 0 {
				width = 14
			}
			if err := f.SetColWidth(resultsSheet, name, name, width); err != nil {
				return err
			}
			if c < 3 {
				continue
			}
			style := number
			if col.percent {
				style = pct
			}
			if err := f.SetCellStyle(resultsSheet, fmt.Sprintf("%s2", name), fmt.Sprintf("%s%d", name, len(rows)+1), style); err != nil {
				return err
			}
		}
	}
	return f.SetPanes(resultsSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeStages(f *excelize.File, results []aggregate.Result) error {
	var composite bool
	for _, r := range results {
		composite = composite || len(r.Stages) > 0
	}
	if !composite {
		return nil
	}
	if _, err := f.NewSheet(stagesSheet); err != nil {
		return err
	}
	for c, h := range stageHeaders {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(stagesSheet, cell, h); err != nil {
			return err
		}
	}
	row := 2
	for _, r := range results {
		for i, st := range r.Stages {
			values := []any{r.Name, i + 1, st.MonsterID, string(st.Method), st.Reach, st.KillProb, st.DeathProb, st.TimeMs / 1000, st.Damage, st.DamageTaken, st.Food}
			if err := f.SetSheetRow(stagesSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}
