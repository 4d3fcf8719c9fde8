// Package catalog holds the static registry mapping workload IDs to their
// expected metadata. The built-in table can be extended through a
// flock-protected JSON file managed by the catalog CLI commands.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/types"
)

// ErrNotFound is returned when an ID is not in the catalog. Every operation
// that targets a single workload checks the catalog first, so an unknown ID
// never reaches the hypervisor.
var ErrNotFound = errors.New("workload not in catalog")

// Catalog is an immutable id -> entry registry, loaded once at startup.
type Catalog struct {
	byID    map[int]types.CatalogEntry
	ordered []types.CatalogEntry
}

// New builds a Catalog from entries. Later duplicates override earlier ones,
// which lets extension entries shadow built-in ones.
func New(entries ...types.CatalogEntry) *Catalog {
	byID := make(map[int]types.CatalogEntry, len(entries))
	for _, e := range entries {
		byID[e.ID] = e
	}
	ordered := make([]types.CatalogEntry, 0, len(byID))
	for _, e := range byID {
		ordered = append(ordered, e)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &Catalog{byID: byID, ordered: ordered}
}

// Load builds the process catalog: built-in table plus any entries from the
// extension store configured via conf.CatalogFile.
func Load(ctx context.Context, conf *config.Config) (*Catalog, error) {
	entries := builtin()
	if conf.CatalogFile != "" {
		extra, err := NewStore(conf).List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load catalog extension: %w", err)
		}
		entries = append(entries, extra...)
	}
	return New(entries...), nil
}

// Lookup returns the entry for id, or ErrNotFound.
func (c *Catalog) Lookup(id int) (types.CatalogEntry, error) {
	e, ok := c.byID[id]
	if !ok {
		return types.CatalogEntry{}, fmt.Errorf("id %d: %w", id, ErrNotFound)
	}
	return e, nil
}

// All returns every entry in ascending ID order. The returned slice is
// shared; callers must not mutate it.
func (c *Catalog) All() []types.CatalogEntry {
	return c.ordered
}

// Len returns the number of cataloged workloads.
func (c *Catalog) Len() int {
	return len(c.ordered)
}
