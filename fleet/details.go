package fleet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/types"
)

// ContainerDetails drills into one container: guest OS identity plus the
// systemd services currently running inside it. Probe failures degrade to
// "Unknown"/empty rather than failing the call; only an uncataloged id is
// an error.
func (f *Fleet) ContainerDetails(ctx context.Context, id int) (*types.ContainerDetails, error) {
	entry, err := f.cat.Lookup(id)
	if err != nil {
		return nil, err
	}
	if entry.Kind != types.KindContainer {
		return nil, fmt.Errorf("id %d is not a container: %w", id, catalog.ErrNotFound)
	}

	details := &types.ContainerDetails{
		ID:              id,
		OSInfo:          "Unknown",
		SystemdServices: []types.Service{},
	}

	cctx, cancel := context.WithTimeout(ctx, f.conf.CallTimeout())
	defer cancel()
	if res, err := f.gw.Run(cctx, "pct", "exec", strconv.Itoa(id), "--", "cat", "/etc/os-release"); err == nil {
		if name := parseOSRelease(res.Stdout); name != "" {
			details.OSInfo = name
		}
	}

	sctx, scancel := context.WithTimeout(ctx, f.conf.CallTimeout())
	defer scancel()
	res, err := f.gw.Run(sctx, "pct", "exec", strconv.Itoa(id), "--",
		"systemctl", "list-units", "--type=service", "--state=running", "--no-legend", "--plain")
	if err == nil {
		details.SystemdServices = parseRunningUnits(res.Stdout, id)
	}
	return details, nil
}

// parseOSRelease extracts PRETTY_NAME from /etc/os-release content.
func parseOSRelease(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if v, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	return ""
}

// parseRunningUnits turns `systemctl list-units --state=running` output
// into Service records scoped to the given container.
func parseRunningUnits(out string, containerID int) []types.Service {
	services := []types.Service{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 || !strings.HasSuffix(fields[0], ".service") {
			continue
		}
		cid := containerID
		services = append(services, types.Service{
			Name:        strings.TrimSuffix(fields[0], ".service"),
			Active:      true,
			ContainerID: &cid,
		})
	}
	return services
}
