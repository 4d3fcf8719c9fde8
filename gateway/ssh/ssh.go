// Package ssh implements the hypervisor gateway by running pct/qm and
// arbitrary privileged commands on the Proxmox node over ssh.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/projecteru2/core/log"

	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/metrics"
	"github.com/projecteru2/fleetd/types"
)

// compile-time interface check.
var _ gateway.Gateway = (*SSH)(nil)

// SSH executes gateway calls as `ssh <target> -- <argv>`. The target is an
// ssh alias or user@host; authentication is the ssh client's concern.
type SSH struct {
	target string
}

// New creates an SSH gateway for conf.SSHTarget.
func New(conf *config.Config) *SSH {
	return &SSH{target: conf.SSHTarget}
}

// GetStatus queries `pct status` / `qm status` and parses the reported state.
func (s *SSH) GetStatus(ctx context.Context, id int, kind types.WorkloadKind) (*gateway.StatusReport, error) {
	res, err := s.run(ctx, statusCommand(kind), "status", strconv.Itoa(id))
	if err != nil {
		return nil, err
	}
	return &gateway.StatusReport{Status: ParseStatus(res.Stdout)}, nil
}

// Control issues a start/stop/reboot through pct or qm. A nil return means
// the command was accepted, not that the transition completed.
func (s *SSH) Control(ctx context.Context, id int, kind types.WorkloadKind, action gateway.Action) error {
	verb := string(action)
	if action == gateway.ActionRestart {
		verb = "reboot"
	}
	tool := "pct"
	if kind == types.KindVM {
		tool = "qm"
	}
	_, err := s.run(ctx, tool, verb, strconv.Itoa(id))
	return err
}

// Run executes a privileged command on the hypervisor node.
func (s *SSH) Run(ctx context.Context, argv ...string) (*gateway.Result, error) {
	return s.exec(ctx, "", argv)
}

// RunInput is Run with data piped to the remote process's stdin.
func (s *SSH) RunInput(ctx context.Context, stdin string, argv ...string) (*gateway.Result, error) {
	return s.exec(ctx, stdin, argv)
}

func (s *SSH) run(ctx context.Context, argv ...string) (*gateway.Result, error) {
	return s.exec(ctx, "", argv)
}

func (s *SSH) exec(ctx context.Context, stdin string, argv []string) (*gateway.Result, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty gateway command")
	}

	args := append([]string{s.target, "--"}, argv...)
	cmd := exec.CommandContext(ctx, "ssh", args...) //nolint:gosec // argv built from config tables
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := &gateway.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	err = classify(ctx, err, res)
	metrics.ObserveGatewayCall(argv[0], res.Duration, err)
	if err != nil {
		log.WithFunc("ssh.exec").Debugf(ctx, "gateway command %q failed: %v", strings.Join(argv, " "), err)
	}
	return res, err
}

// classify maps an exec outcome onto the gateway error taxonomy. The Result
// is always kept so callers retain the partial captured output.
func classify(ctx context.Context, err error, res *gateway.Result) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && (errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)) {
		return gateway.ErrTimeout
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("dispatch ssh: %w", err)
	}
	res.ExitCode = exitErr.ExitCode()

	combined := strings.ToLower(res.Combined())
	switch {
	case strings.Contains(combined, "does not exist") || strings.Contains(combined, "no such"):
		return gateway.ErrNotFound
	case strings.Contains(combined, "permission denied") || strings.Contains(combined, "not permitted"):
		return gateway.ErrPermissionDenied
	default:
		return &gateway.CommandError{ExitCode: res.ExitCode, Output: res.Combined()}
	}
}

func statusCommand(kind types.WorkloadKind) string {
	if kind == types.KindVM {
		return "qm"
	}
	return "pct"
}

// ParseStatus extracts the workload state from `pct status` / `qm status`
// output ("status: running"). Anything unrecognised is Unknown, never
// Stopped.
func ParseStatus(output string) types.WorkloadStatus {
	switch {
	case strings.Contains(output, "running"):
		return types.StatusRunning
	case strings.Contains(output, "stopped"):
		return types.StatusStopped
	default:
		return types.StatusUnknown
	}
}
