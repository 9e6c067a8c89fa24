package testsupport

import (
	"context"
	"testing"

	"showrunner/internal/catalog"
	"showrunner/internal/config"
	"showrunner/internal/store"
)

// MustOpenStore opens a phase store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// MustOpenCatalog builds a catalog sharing the store's database handle.
func MustOpenCatalog(t testing.TB, cfg *config.Config, st *store.Store) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New(st.DB(), cfg.Paths.ModelsDir, cfg.Pipeline.ModelArchitecture)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return cat
}

// NewCharacter creates a catalog character for tests.
func NewCharacter(t testing.TB, cat *catalog.Catalog, projectID int64, name, designRef string) int64 {
	t.Helper()

	id, err := cat.CreateCharacter(context.Background(), projectID, name, designRef)
	if err != nil {
		t.Fatalf("catalog.CreateCharacter: %v", err)
	}
	return id
}

// ApproveArtifacts inserts the requested number of approved dataset items
// for a character.
func ApproveArtifacts(t testing.TB, cat *catalog.Catalog, characterID int64, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		if _, err := cat.AddDatasetItem(context.Background(), characterID, "approved"); err != nil {
			t.Fatalf("catalog.AddDatasetItem: %v", err)
		}
	}
}
