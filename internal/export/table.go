package export

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/cory-johannsen/idlesim/internal/sim/aggregate"
)

// WriteTable writes a compact aligned summary of results, followed by rollup
// when non-nil. failed lists targets that produced no result, with reasons.
func WriteTable(w io.Writer, results []aggregate.Result, rollup *aggregate.Result, failed map[string]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "TARGET\tKIND\tDPS\tXP/H\tGP/H\tLOOT/H\tDEATH\tKILLS/H\tMAX HIT TAKEN\tMETHOD\t")
	row := func(r aggregate.Result) {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.0f\t%.0f\t%.0f\t%.2f%%\t%.1f\t%d\t%s\t\n",
			r.Name, r.Kind, r.DPS, r.XPPerHour, r.GPPerHour, r.LootPerHour, r.DeathRate*100, r.KillsPerHour, r.HighestHitTaken, r.Method)
	}
	for _, r := range results {
		row(r)
	}
	if rollup != nil {
		row(*rollup)
	}
	for _, id := range slices.Sorted(maps.Keys(failed)) {
		fmt.Fprintf(tw, "%s\t-\t\t\t\t\t\t\t\t%s\t\n", id, failed[id])
	}
	return tw.Flush()
}
