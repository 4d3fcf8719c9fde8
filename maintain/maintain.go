// Package maintain implements the maintenance diagnostics engine and the
// remediation executor: it probes expected services, binaries and config
// files across the fleet, and carries out the fix-up actions.
package maintain

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/host"
	"github.com/projecteru2/fleetd/types"
)

// Maintainer probes and remediates the fleet.
type Maintainer struct {
	conf     *config.Config
	cat      *catalog.Catalog
	gw       gateway.Gateway
	host     *host.Host
	manifest *Manifest
}

// New creates a Maintainer.
func New(conf *config.Config, cat *catalog.Catalog, gw gateway.Gateway, h *host.Host, manifest *Manifest) *Maintainer {
	return &Maintainer{conf: conf, cat: cat, gw: gw, host: h, manifest: manifest}
}

// Overview runs every manifest probe concurrently and assembles the
// maintenance read model in manifest order. A failed probe yields a row
// with negative findings, never a missing row; Overview never fails.
func (m *Maintainer) Overview(ctx context.Context) *types.MaintenanceOverview {
	overview := &types.MaintenanceOverview{
		Services:    make([]types.Service, len(m.manifest.Services)),
		Binaries:    make([]types.Binary, len(m.manifest.Binaries)),
		Configs:     make([]types.ConfigFile, len(m.manifest.Configs)),
		LastUpdated: time.Now(),
	}

	bctx, cancel := context.WithTimeout(ctx, m.conf.BatchTimeout())
	defer cancel()

	var g errgroup.Group
	g.SetLimit(m.conf.MaxInFlight)
	for i, spec := range m.manifest.Services {
		i, spec := i, spec
		g.Go(func() error {
			overview.Services[i] = m.probeService(bctx, spec)
			return nil
		})
	}
	for i, spec := range m.manifest.Binaries {
		i, spec := i, spec
		g.Go(func() error {
			overview.Binaries[i] = m.probeBinary(bctx, spec)
			return nil
		})
	}
	for i, spec := range m.manifest.Configs {
		i, spec := i, spec
		g.Go(func() error {
			overview.Configs[i] = m.probeConfig(bctx, spec)
			return nil
		})
	}
	g.Go(func() error {
		overview.SystemHealth = m.host.Health(bctx)
		return nil
	})
	g.Go(func() error {
		overview.Drift = m.drift(bctx)
		return nil
	})
	_ = g.Wait()

	return overview
}

// wrap prefixes argv so it executes in the right scope: inside a container
// via pct exec, inside a VM via its ssh alias, or directly on the host.
func (m *Maintainer) wrap(containerID, vmID *int, argv ...string) []string {
	switch {
	case containerID != nil:
		return append([]string{"pct", "exec", strconv.Itoa(*containerID), "--"}, argv...)
	case vmID != nil:
		if alias := m.conf.VMAlias(*vmID); alias != "" {
			return append([]string{"ssh", alias, "--"}, argv...)
		}
		return argv
	default:
		return argv
	}
}

func (m *Maintainer) run(ctx context.Context, argv ...string) (*gateway.Result, error) {
	cctx, cancel := context.WithTimeout(ctx, m.conf.CallTimeout())
	defer cancel()
	return m.gw.Run(cctx, argv...)
}

func (m *Maintainer) probeService(ctx context.Context, spec ServiceSpec) types.Service {
	svc := types.Service{
		Name:        spec.Name,
		ContainerID: spec.ContainerID,
		VMID:        spec.VMID,
	}

	res, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "systemctl", "is-active", spec.Name)...)
	svc.Active = err == nil && strings.TrimSpace(res.Stdout) == "active"

	res, err = m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "systemctl", "is-enabled", spec.Name)...)
	svc.Enabled = err == nil && strings.TrimSpace(res.Stdout) == "enabled"

	return svc
}

// versionFlags is the probe chain tried in order until one answers.
var versionFlags = []string{"--version", "-v", "-V", "version"}

func (m *Maintainer) probeBinary(ctx context.Context, spec BinarySpec) types.Binary {
	bin := types.Binary{
		Name:        spec.Name,
		Path:        "Not found",
		ContainerID: spec.ContainerID,
		VMID:        spec.VMID,
	}

	res, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "which", spec.Name)...)
	if err != nil || strings.TrimSpace(res.Stdout) == "" {
		return bin
	}
	bin.Exists = true
	bin.Path = strings.TrimSpace(res.Stdout)

	if _, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "test", "-x", bin.Path)...); err == nil {
		bin.Executable = true
	}

	for _, flag := range versionFlags {
		res, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, bin.Path, flag)...)
		if err != nil {
			continue
		}
		if line := firstLine(res.Stdout); line != "" && len(line) < 200 {
			bin.Version = line
			break
		}
	}
	return bin
}

func (m *Maintainer) probeConfig(ctx context.Context, spec ConfigSpec) types.ConfigFile {
	cf := types.ConfigFile{
		Name:        spec.Name,
		Path:        spec.Path,
		ContainerID: spec.ContainerID,
		VMID:        spec.VMID,
	}
	if cf.Name == "" {
		cf.Name = path.Base(spec.Path)
	}

	if _, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "test", "-f", spec.Path)...); err != nil {
		return cf
	}
	cf.Exists = true

	if _, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "test", "-r", spec.Path)...); err == nil {
		cf.Readable = true
	}
	if _, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "test", "-w", spec.Path)...); err == nil {
		cf.Writable = true
	}

	res, err := m.run(ctx, m.wrap(spec.ContainerID, spec.VMID, "stat", "-c", "%s %Y", spec.Path)...)
	if err == nil {
		cf.SizeBytes, cf.Modified = parseStat(res.Stdout)
	}
	return cf
}

// parseStat parses `stat -c "%s %Y"` output into size and mtime.
func parseStat(out string) (int64, string) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return 0, ""
	}
	size, _ := strconv.ParseInt(fields[0], 10, 64)
	secs, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return size, ""
	}
	return size, time.Unix(secs, 0).UTC().Format(time.DateTime)
}

func firstLine(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	return strings.TrimSpace(line)
}
