package testsupport

import (
	"testing"

	"castcut/internal/config"
	"castcut/internal/history"
)

// MustOpenHistory opens the run history store in the config's work directory
// and registers cleanup.
func MustOpenHistory(t testing.TB, cfg *config.Config) *history.Store {
	t.Helper()

	store, err := history.Open(cfg.Paths.WorkDir)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
