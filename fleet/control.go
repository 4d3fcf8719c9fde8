package fleet

import (
	"context"
	"fmt"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/types"
)

// ControlContainer validates id as a cataloged container and applies action.
func (f *Fleet) ControlContainer(ctx context.Context, id int, action gateway.Action) error {
	return f.control(ctx, id, types.KindContainer, action)
}

// ControlVM validates id as a cataloged VM and applies action.
func (f *Fleet) ControlVM(ctx context.Context, id int, action gateway.Action) error {
	return f.control(ctx, id, types.KindVM, action)
}

// control ensures the resulting state rather than performing a literal
// transition: when the gateway rejects the command but the workload is
// already in the state the action would produce, the call succeeds.
func (f *Fleet) control(ctx context.Context, id int, kind types.WorkloadKind, action gateway.Action) error {
	entry, err := f.cat.Lookup(id)
	if err != nil {
		return err
	}
	if entry.Kind != kind {
		return fmt.Errorf("id %d is a %s, not a %s: %w", id, entry.Kind, kind, catalog.ErrNotFound)
	}

	cctx, cancel := context.WithTimeout(ctx, f.conf.CallTimeout())
	defer cancel()

	ctlErr := f.gw.Control(cctx, id, kind, action)
	if ctlErr == nil {
		return nil
	}

	if desired, ok := desiredStatus(action); ok {
		sctx, scancel := context.WithTimeout(ctx, f.conf.CallTimeout())
		defer scancel()
		if report, serr := f.gw.GetStatus(sctx, id, kind); serr == nil && report.Status == desired {
			log.WithFunc("fleet.control").Infof(ctx, "%s %d already %s, treating %s as success", kind, id, desired, action)
			return nil
		}
	}
	return fmt.Errorf("%s %s %d: %w", action, kind, id, ctlErr)
}

// desiredStatus maps an action to the end state it should produce.
func desiredStatus(action gateway.Action) (types.WorkloadStatus, bool) {
	switch action {
	case gateway.ActionStart, gateway.ActionRestart:
		return types.StatusRunning, true
	case gateway.ActionStop:
		return types.StatusStopped, true
	default:
		return types.StatusUnknown, false
	}
}
