// Package fleet builds the live view of the cataloged fleet: it collects
// per-workload status from the gateway with bounded parallelism and
// aggregates the results into the system overview read model.
package fleet

import (
	"context"
	"time"

	"github.com/projecteru2/core/log"
	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/types"
)

// Fleet collects live workload state and serves the system overview.
type Fleet struct {
	conf *config.Config
	cat  *catalog.Catalog
	gw   gateway.Gateway
}

// New creates a Fleet service.
func New(conf *config.Config, cat *catalog.Catalog, gw gateway.Gateway) *Fleet {
	return &Fleet{conf: conf, cat: cat, gw: gw}
}

// Overview queries every cataloged workload concurrently and assembles the
// overview in catalog order. Per-item failures are absorbed as Unknown
// status; Overview itself never fails, even when the gateway is down.
func (f *Fleet) Overview(ctx context.Context) *types.SystemOverview {
	entries := f.cat.All()
	results := make([]types.Workload, len(entries))

	bctx, cancel := context.WithTimeout(ctx, f.conf.BatchTimeout())
	defer cancel()

	// Indexed writes into the result slice keep catalog order regardless
	// of completion order; each slot is touched by exactly one goroutine.
	var g errgroup.Group
	g.SetLimit(f.conf.MaxInFlight)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			results[i] = f.collectOne(bctx, entry)
			return nil
		})
	}
	_ = g.Wait()

	overview := &types.SystemOverview{
		Containers:  []types.Workload{},
		VMs:         []types.Workload{},
		LastUpdated: time.Now(),
	}
	for _, w := range results {
		switch w.Kind {
		case types.KindContainer:
			overview.Containers = append(overview.Containers, w)
			overview.TotalContainers++
			if w.Status == types.StatusRunning {
				overview.RunningContainers++
			}
		case types.KindVM:
			overview.VMs = append(overview.VMs, w)
			overview.TotalVMs++
			if w.Status == types.StatusRunning {
				overview.RunningVMs++
			}
		}
	}
	return overview
}

// Workload returns the live snapshot of one cataloged workload.
func (f *Fleet) Workload(ctx context.Context, id int) (types.Workload, error) {
	entry, err := f.cat.Lookup(id)
	if err != nil {
		return types.Workload{}, err
	}
	return f.collectOne(ctx, entry), nil
}

func (f *Fleet) collectOne(ctx context.Context, entry types.CatalogEntry) types.Workload {
	w := types.Workload{
		ID:          entry.ID,
		Kind:        entry.Kind,
		Category:    entry.Category,
		Name:        entry.Name,
		Description: entry.Description,
		Status:      types.StatusUnknown,
		Uptime:      "Unknown",
		LastChecked: time.Now(),
	}

	cctx, cancel := context.WithTimeout(ctx, f.conf.CallTimeout())
	defer cancel()

	report, err := f.gw.GetStatus(cctx, entry.ID, entry.Kind)
	if err != nil {
		log.WithFunc("fleet.collectOne").Debugf(ctx, "status probe %d failed: %v", entry.ID, err)
		return w
	}
	w.Status = report.Status
	w.CPUUsage = report.CPUUsage
	w.MemoryUsage = report.MemoryUsage
	if report.Uptime != "" {
		w.Uptime = report.Uptime
	}
	return w
}
