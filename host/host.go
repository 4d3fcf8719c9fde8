// Package host exposes read-only probes and privileged operations for the
// hypervisor node itself.
package host

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/projecteru2/core/log"

	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/types"
)

// networkProbeTarget is pinged once to judge outbound reachability.
const networkProbeTarget = "1.1.1.1"

// Host runs probes and maintenance operations against the hypervisor node.
type Host struct {
	conf *config.Config
	gw   gateway.Gateway
}

// New creates a Host service.
func New(conf *config.Config, gw gateway.Gateway) *Host {
	return &Host{conf: conf, gw: gw}
}

// Info returns the node identity: hostname, PVE version, kernel, uptime,
// load average. Failed probes leave the corresponding field empty.
func (h *Host) Info(ctx context.Context) *types.HostInfo {
	info := &types.HostInfo{}
	info.Hostname = h.probeLine(ctx, "hostname")
	info.PVEVersion = h.probeLine(ctx, "pveversion")
	info.Kernel = h.probeLine(ctx, "uname", "-r")
	info.Uptime = h.probeLine(ctx, "uptime", "-p")
	info.LoadAverage = h.probeLine(ctx, "cat", "/proc/loadavg")
	return info
}

// ClusterStatus returns the raw `pvecm status` output. A single node that
// is not clustered still yields the tool's own message rather than an error.
func (h *Host) ClusterStatus(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, h.conf.CallTimeout())
	defer cancel()
	res, err := h.gw.Run(ctx, "pvecm", "status")
	if res == nil {
		return ""
	}
	if err != nil {
		// pvecm exits non-zero on standalone nodes but still prints why.
		return res.Combined()
	}
	return res.Stdout
}

// Health aggregates disk, memory, CPU load, network reachability and uptime.
// Every probe failure degrades to a zero/negative finding; Health never
// returns an error.
func (h *Host) Health(ctx context.Context) types.SystemHealth {
	logger := log.WithFunc("host.Health")
	health := types.SystemHealth{NetworkStatus: "Unreachable", Uptime: "Unknown"}

	if out := h.probe(ctx, "df", "-h", "/"); out != "" {
		health.DiskUsage = ParseDiskUsage(out)
	} else {
		logger.Warnf(ctx, "disk probe failed")
	}
	if out := h.probe(ctx, "free", "-m"); out != "" {
		health.MemoryUsage = ParseMemoryUsage(out)
	}
	if out := h.probe(ctx, "uptime"); out != "" {
		health.Uptime = strings.TrimSpace(out)
		health.CPULoad = ParseLoad(out)
	}
	ctxPing, cancel := context.WithTimeout(ctx, h.conf.CallTimeout())
	if _, err := h.gw.Run(ctxPing, "ping", "-c", "1", "-W", "2", networkProbeTarget); err == nil {
		health.NetworkStatus = "Connected"
	}
	cancel()
	return health
}

// UpdatePackages runs a full package upgrade on the node.
func (h *Host) UpdatePackages(ctx context.Context) *types.ScriptResult {
	return h.script(ctx, "sh", "-c", "apt-get update && apt-get -y dist-upgrade")
}

// Reboot asks the node to reboot. The ssh session dropping as the node goes
// down is expected and still counts as success.
func (h *Host) Reboot(ctx context.Context) *types.ScriptResult {
	return h.script(ctx, "systemctl", "reboot")
}

// Shutdown powers the node off.
func (h *Host) Shutdown(ctx context.Context) *types.ScriptResult {
	return h.script(ctx, "systemctl", "poweroff")
}

func (h *Host) script(ctx context.Context, argv ...string) *types.ScriptResult {
	ctx, cancel := context.WithTimeout(ctx, h.conf.ScriptTimeout())
	defer cancel()

	start := time.Now()
	res, err := h.gw.Run(ctx, argv...)
	out := ""
	if res != nil {
		out = res.Combined()
	}
	return &types.ScriptResult{
		ReportID: uuid.NewString(),
		Success:  err == nil,
		Output:   out,
		Duration: time.Since(start),
	}
}

func (h *Host) probe(ctx context.Context, argv ...string) string {
	ctx, cancel := context.WithTimeout(ctx, h.conf.CallTimeout())
	defer cancel()
	res, err := h.gw.Run(ctx, argv...)
	if err != nil || res == nil {
		return ""
	}
	return res.Stdout
}

func (h *Host) probeLine(ctx context.Context, argv ...string) string {
	out := h.probe(ctx, argv...)
	if i := strings.IndexByte(out, '\n'); i >= 0 {
		out = out[:i]
	}
	return strings.TrimSpace(out)
}

// ParseDiskUsage extracts the use% of / from `df -h /` output.
func ParseDiskUsage(out string) float64 {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		return 0
	}
	fields := strings.Fields(lines[1])
	if len(fields) < 5 {
		return 0
	}
	pct, err := strconv.ParseFloat(strings.TrimSuffix(fields[4], "%"), 64)
	if err != nil {
		return 0
	}
	return pct
}

// ParseMemoryUsage computes used/total*100 from `free -m` output.
func ParseMemoryUsage(out string) float64 {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "Mem:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return 0
		}
		total, err1 := strconv.ParseFloat(fields[1], 64)
		used, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil || total == 0 {
			return 0
		}
		return used / total * 100
	}
	return 0
}

// ParseLoad extracts the 1-minute load average from `uptime` output.
func ParseLoad(out string) float64 {
	const marker = "load average:"
	i := strings.Index(out, marker)
	if i < 0 {
		return 0
	}
	rest := strings.TrimSpace(out[i+len(marker):])
	fields := strings.SplitN(rest, ",", 2)
	load, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return 0
	}
	return load
}
