// Package testutil provides test helpers for loading the bundled game content
// and driving the websocket server.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/idlesim/internal/game/gamedata"
	"github.com/cory-johannsen/idlesim/internal/game/loadout"
)

// RepoPath joins elem onto the repository root.
func RepoPath(elem ...string) string {
	_, file, _, _ := runtime.Caller(0)
	root := filepath.Join(filepath.Dir(file), "..", "..")
	return filepath.Join(append([]string{root}, elem...)...)
}

// Registry loads the bundled content directory.
//
// Postcondition: Returns a fully cross-referenced registry or fails the test.
func Registry(t testing.TB) *gamedata.Registry {
	t.Helper()
	reg, err := gamedata.LoadDirectory(RepoPath("content"))
	require.NoError(t, err)
	return reg
}

// Loadout loads the bundled loadout file name, e.g. "melee.yaml".
func Loadout(t testing.TB, name string) loadout.Config {
	t.Helper()
	c, err := loadout.Load(RepoPath("loadouts", name))
	require.NoError(t, err)
	return c
}

// Snapshot freezes the bundled loadout name against lookup after applying
// mutate, which may be nil.
//
// Postcondition: Returns a valid snapshot or fails the test.
func Snapshot(t testing.TB, lookup gamedata.Lookup, name string, mutate func(*loadout.Config)) *loadout.Snapshot {
	t.Helper()
	c := Loadout(t, name)
	if mutate != nil {
		mutate(&c)
	}
	s, err := loadout.Freeze(c, lookup)
	require.NoError(t, err)
	return s
}
