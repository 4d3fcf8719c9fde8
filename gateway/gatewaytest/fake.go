// Package gatewaytest provides an in-memory Gateway used by the test
// suites. It is configured per-test and records every call it receives.
package gatewaytest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/types"
)

// compile-time interface check.
var _ gateway.Gateway = (*Fake)(nil)

// Fake is a scriptable Gateway. The zero value reports every workload as
// NotFound and succeeds every command with empty output.
type Fake struct {
	mu sync.Mutex

	// Statuses maps workload ID to the report returned by GetStatus.
	Statuses map[int]*gateway.StatusReport
	// StatusErrs maps workload ID to the error returned by GetStatus.
	StatusErrs map[int]error
	// StatusDelays maps workload ID to a delay applied before GetStatus
	// answers; the call still honours its context deadline.
	StatusDelays map[int]time.Duration

	// ControlErrs maps workload ID to the error returned by Control.
	ControlErrs map[int]error

	// Responses maps a command prefix (argv joined by spaces) to the
	// scripted result. The longest matching prefix wins.
	Responses map[string]*gateway.Result
	// Errs maps a command prefix to the error returned alongside the
	// scripted (or empty) result.
	Errs map[string]error

	statusCalls  []int
	controlCalls []ControlCall
	runCalls     [][]string
	inputs       map[string]string
}

// ControlCall records one Control invocation.
type ControlCall struct {
	ID     int
	Kind   types.WorkloadKind
	Action gateway.Action
}

// GetStatus returns the scripted report for id, after any scripted delay.
func (f *Fake) GetStatus(ctx context.Context, id int, _ types.WorkloadKind) (*gateway.StatusReport, error) {
	f.mu.Lock()
	f.statusCalls = append(f.statusCalls, id)
	delay := f.StatusDelays[id]
	report := f.Statuses[id]
	err := f.StatusErrs[id]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, gateway.ErrTimeout
		}
	}
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, gateway.ErrNotFound
	}
	return report, nil
}

// Control records the call and returns the scripted error for id.
func (f *Fake) Control(_ context.Context, id int, kind types.WorkloadKind, action gateway.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controlCalls = append(f.controlCalls, ControlCall{ID: id, Kind: kind, Action: action})
	return f.ControlErrs[id]
}

// Run returns the scripted result for the longest matching command prefix.
func (f *Fake) Run(ctx context.Context, argv ...string) (*gateway.Result, error) {
	return f.RunInput(ctx, "", argv...)
}

// RunInput is Run with the piped stdin recorded per command.
func (f *Fake) RunInput(_ context.Context, stdin string, argv ...string) (*gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cmd := strings.Join(argv, " ")
	f.runCalls = append(f.runCalls, argv)
	if stdin != "" {
		if f.inputs == nil {
			f.inputs = make(map[string]string)
		}
		f.inputs[cmd] = stdin
	}

	res, err := f.match(cmd)
	if res == nil {
		res = &gateway.Result{}
	}
	return res, err
}

func (f *Fake) match(cmd string) (*gateway.Result, error) {
	best := -1
	var res *gateway.Result
	for prefix, r := range f.Responses {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > best {
			best, res = len(prefix), r
		}
	}
	best = -1
	var err error
	for prefix, e := range f.Errs {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > best {
			best, err = len(prefix), e
		}
	}
	return res, err
}

// StatusCalls returns the IDs passed to GetStatus, in call order.
func (f *Fake) StatusCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.statusCalls...)
}

// ControlCalls returns every recorded Control invocation.
func (f *Fake) ControlCalls() []ControlCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ControlCall(nil), f.controlCalls...)
}

// RunCalls returns every recorded Run/RunInput argv.
func (f *Fake) RunCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.runCalls...)
}

// Input returns the stdin piped to the given command, if any.
func (f *Fake) Input(cmd string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[cmd]
}

// CallCount returns the total number of gateway calls of any kind.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.statusCalls) + len(f.controlCalls) + len(f.runCalls)
}
