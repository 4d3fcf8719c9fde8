package maintain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"

	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/types"
)

// ErrUnknownScript is returned for a script name with no configured argv.
var ErrUnknownScript = errors.New("unknown script")

// ErrUnknownService is returned when a service name is not in the manifest.
var ErrUnknownService = errors.New("service not in manifest")

// serviceActions are the verbs ControlService accepts.
var serviceActions = map[string]bool{"start": true, "stop": true, "restart": true}

// ControlService start/stops/restarts one manifest service. The name is
// validated against the manifest and any scope IDs against the catalog
// before a gateway call is issued.
func (m *Maintainer) ControlService(ctx context.Context, name, action string, containerID, vmID *int) error {
	if !serviceActions[action] {
		return fmt.Errorf("unsupported service action %q", action)
	}
	if _, ok := m.manifest.FindService(name); !ok {
		return fmt.Errorf("service %q: %w", name, ErrUnknownService)
	}
	for _, id := range []*int{containerID, vmID} {
		if id == nil {
			continue
		}
		if _, err := m.cat.Lookup(*id); err != nil {
			return err
		}
	}

	res, err := m.run(ctx, m.wrap(containerID, vmID, "systemctl", action, name)...)
	if err != nil {
		out := ""
		if res != nil {
			out = res.Combined()
		}
		return fmt.Errorf("%s service %s: %s: %w", action, name, out, err)
	}
	return nil
}

// InstallMissingBinaries probes every manifest binary and installs the
// missing ones via apt. Success is false only when every attempted
// installation failed.
func (m *Maintainer) InstallMissingBinaries(ctx context.Context) *types.InstallResult {
	logger := log.WithFunc("maintain.InstallMissingBinaries")
	result := &types.InstallResult{
		ReportID:  uuid.NewString(),
		Installed: []string{},
		Failed:    []string{},
	}

	for _, spec := range m.manifest.Binaries {
		bin := m.probeBinary(ctx, spec)
		if bin.Exists {
			continue
		}

		pkg := spec.Package
		if pkg == "" {
			pkg = spec.Name
		}
		ictx, cancel := context.WithTimeout(ctx, m.conf.ScriptTimeout())
		_, err := m.gw.Run(ictx, m.wrap(spec.ContainerID, spec.VMID, "apt-get", "install", "-y", pkg)...)
		cancel()
		if err != nil {
			logger.Warnf(ctx, "install %s failed: %v", spec.Name, err)
			result.Failed = append(result.Failed, spec.Name)
			continue
		}
		result.Installed = append(result.Installed, spec.Name)
	}

	attempted := len(result.Installed) + len(result.Failed)
	result.Success = attempted == 0 || len(result.Installed) > 0
	switch {
	case attempted == 0:
		result.Message = "all expected binaries present"
	case result.Success:
		result.Message = fmt.Sprintf("installed %d of %d missing binaries", len(result.Installed), attempted)
	default:
		result.Message = fmt.Sprintf("all %d installations failed", attempted)
	}
	return result
}

// FixAllServices restarts every manifest service that is not active. Every
// attempt is recorded in ActionsTaken regardless of outcome; Success drops
// to false only when a restart could not even be dispatched.
func (m *Maintainer) FixAllServices(ctx context.Context) *types.FixResult {
	logger := log.WithFunc("maintain.FixAllServices")
	result := &types.FixResult{
		ReportID:     uuid.NewString(),
		Success:      true,
		ActionsTaken: []string{},
	}

	fixed := 0
	for _, spec := range m.manifest.Services {
		svc := m.probeService(ctx, spec)
		if svc.Active {
			continue
		}

		result.ActionsTaken = append(result.ActionsTaken, "restarted "+spec.Name)
		_, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "systemctl", "restart", spec.Name)...)
		if err == nil {
			fixed++
			continue
		}
		logger.Warnf(ctx, "restart %s failed: %v", spec.Name, err)
		var cmdErr *gateway.CommandError
		if !errors.As(err, &cmdErr) {
			// The restart never reached the target.
			result.Success = false
		}
	}

	if len(result.ActionsTaken) == 0 {
		result.Message = "all services active"
	} else {
		result.Message = fmt.Sprintf("restarted %d inactive services, %d recovered", len(result.ActionsTaken), fixed)
	}
	return result
}

// RunScript executes one named remediation procedure from the configured
// script table. A timed-out or failed script still yields a ScriptResult
// with the partial captured output.
func (m *Maintainer) RunScript(ctx context.Context, name string) (*types.ScriptResult, error) {
	argv, ok := m.conf.Scripts[name]
	if !ok {
		return nil, fmt.Errorf("script %q: %w", name, ErrUnknownScript)
	}

	sctx, cancel := context.WithTimeout(ctx, m.conf.ScriptTimeout())
	defer cancel()

	start := time.Now()
	res, err := m.gw.Run(sctx, argv...)
	out := ""
	if res != nil {
		out = res.Combined()
	}
	if errors.Is(err, gateway.ErrTimeout) {
		out += "\n(script timed out)"
	}
	return &types.ScriptResult{
		ReportID: uuid.NewString(),
		Success:  err == nil,
		Output:   out,
		Duration: time.Since(start),
	}, nil
}
