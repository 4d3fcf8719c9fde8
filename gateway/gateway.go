package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/projecteru2/fleetd/types"
)

// Action is a workload control verb.
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

var (
	// ErrNotFound is returned when the hypervisor does not know the target.
	ErrNotFound = errors.New("target not found")
	// ErrPermissionDenied is returned on insufficient privilege at the gateway.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTimeout is returned when a call exceeded its deadline.
	ErrTimeout = errors.New("gateway call timed out")
)

// CommandError reports a non-zero exit from an external process, carrying
// the captured output for the caller to surface.
type CommandError struct {
	ExitCode int
	Output   string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command failed with exit code %d: %s", e.ExitCode, e.Output)
}

// Result is the outcome of one privileged command execution. A Result is
// produced even on failure so callers keep the partial captured output.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Combined returns stdout followed by stderr.
func (r *Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// StatusReport is the live state returned by a status probe. Utilisation
// fields are zero when the hypervisor does not report them.
type StatusReport struct {
	Status      types.WorkloadStatus
	CPUUsage    float64
	MemoryUsage float64
	Uptime      string
}

// Gateway is the boundary to the hypervisor's command surface. Every call
// is blocking I/O bounded by its context deadline; implementations must
// never let one hanging call block another.
type Gateway interface {
	// GetStatus queries the live state of one workload.
	GetStatus(ctx context.Context, id int, kind types.WorkloadKind) (*StatusReport, error)
	// Control issues a start/stop/restart. A nil return means "command
	// accepted", not "state confirmed" — confirmation comes from the
	// next status poll.
	Control(ctx context.Context, id int, kind types.WorkloadKind, action Action) error
	// Run executes a privileged command on the hypervisor. When the
	// process ran but exited non-zero, both a Result (with captured
	// output) and a *CommandError are returned.
	Run(ctx context.Context, argv ...string) (*Result, error)
	// RunInput is Run with data piped to the process's stdin.
	RunInput(ctx context.Context, stdin string, argv ...string) (*Result, error)
}
