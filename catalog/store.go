package catalog

import (
	"context"
	"fmt"

	"github.com/projecteru2/fleetd/config"
	storejson "github.com/projecteru2/fleetd/storage/json"
	"github.com/projecteru2/fleetd/types"
)

// extension is the on-disk shape of the catalog extension file.
type extension struct {
	Entries []types.CatalogEntry `json:"entries"`
}

// Store manages the catalog extension file. Mutations are flock-protected
// so concurrent fleetd invocations cannot corrupt the file.
type Store struct {
	store *storejson.Store[extension]
}

// NewStore creates a Store over conf.CatalogFile.
func NewStore(conf *config.Config) *Store {
	return &Store{
		store: storejson.New[extension](conf.CatalogFile+".lock", conf.CatalogFile),
	}
}

// List returns all extension entries.
func (s *Store) List(ctx context.Context) ([]types.CatalogEntry, error) {
	var entries []types.CatalogEntry
	err := s.store.With(ctx, func(ext *extension) error {
		entries = append(entries, ext.Entries...)
		return nil
	})
	return entries, err
}

// Add inserts or replaces one extension entry.
func (s *Store) Add(ctx context.Context, entry types.CatalogEntry) error {
	if entry.ID <= 0 {
		return fmt.Errorf("invalid workload id %d", entry.ID)
	}
	if entry.Kind != types.KindContainer && entry.Kind != types.KindVM {
		return fmt.Errorf("invalid workload kind %q", entry.Kind)
	}
	if entry.Category == "" {
		entry.Category = CategoryForID(entry.ID)
	}
	return s.store.Update(ctx, func(ext *extension) error {
		for i, e := range ext.Entries {
			if e.ID == entry.ID {
				ext.Entries[i] = entry
				return nil
			}
		}
		ext.Entries = append(ext.Entries, entry)
		return nil
	})
}

// Remove deletes one extension entry by ID. Removing an ID that is not in
// the extension file returns ErrNotFound; built-in entries cannot be removed.
func (s *Store) Remove(ctx context.Context, id int) error {
	return s.store.Update(ctx, func(ext *extension) error {
		for i, e := range ext.Entries {
			if e.ID == id {
				ext.Entries = append(ext.Entries[:i], ext.Entries[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("id %d: %w", id, ErrNotFound)
	})
}
