package maintain

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/fleetd/types"
)

// drift compares the live fleet (pct list / qm list) against the catalog.
// A kind whose listing failed is excluded from the missing check so a
// one-sided outage cannot report the whole catalog as gone. When both
// listings fail there is nothing to compare and drift is nil.
func (m *Maintainer) drift(ctx context.Context) *types.CatalogDrift {
	logger := log.WithFunc("maintain.drift")

	live := make(map[int]struct{})
	listed := make(map[types.WorkloadKind]bool)
	for kind, argv := range map[types.WorkloadKind][]string{
		types.KindContainer: {"pct", "list"},
		types.KindVM:        {"qm", "list"},
	} {
		res, err := m.run(ctx, argv...)
		if err != nil {
			logger.Warnf(ctx, "%s failed: %v", strings.Join(argv, " "), err)
			continue
		}
		listed[kind] = true
		for _, id := range parseIDTable(res.Stdout) {
			live[id] = struct{}{}
		}
	}
	if !listed[types.KindContainer] && !listed[types.KindVM] {
		return nil
	}

	drift := &types.CatalogDrift{Uncataloged: []int{}, Missing: []int{}}
	for _, entry := range m.cat.All() {
		if !listed[entry.Kind] {
			continue
		}
		if _, ok := live[entry.ID]; !ok {
			drift.Missing = append(drift.Missing, entry.ID)
		}
	}
	for id := range live {
		if _, err := m.cat.Lookup(id); err != nil {
			drift.Uncataloged = append(drift.Uncataloged, id)
		}
	}
	sort.Ints(drift.Uncataloged)
	return drift
}

// parseIDTable extracts the leading numeric IDs from pct/qm list output,
// skipping the header line.
func parseIDTable(out string) []int {
	var ids []int
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if id, err := strconv.Atoi(fields[0]); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
