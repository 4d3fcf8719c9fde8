package fleet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/fleetd/cmd/core"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/types"
	"github.com/projecteru2/fleetd/utils"
)

const waitPollInterval = 2 * time.Second

type Handler struct {
	cmdcore.BaseHandler
}

// initEngine is the shared init for all fleet subcommands.
func (h Handler) initEngine(cmd *cobra.Command) (context.Context, *config.Config, *cmdcore.Engine, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	engine, err := cmdcore.InitEngine(ctx, conf)
	if err != nil {
		return nil, nil, nil, err
	}
	return ctx, conf, engine, nil
}

func (h Handler) Overview(cmd *cobra.Command, _ []string) error {
	ctx, _, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	overview := engine.Fleet.Overview(ctx)

	if !cmdcore.StdoutIsTTY() {
		return printJSON(overview)
	}
	fmt.Printf("Containers: %d/%d running    VMs: %d/%d running    (as of %s)\n\n",
		overview.RunningContainers, overview.TotalContainers,
		overview.RunningVMs, overview.TotalVMs,
		overview.LastUpdated.Local().Format(time.TimeOnly))
	printWorkloadTable(append(overview.Containers, overview.VMs...))
	return nil
}

func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx, _, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	overview := engine.Fleet.Overview(ctx)
	workloads := append(overview.Containers, overview.VMs...)

	if !cmdcore.StdoutIsTTY() {
		return printJSON(workloads)
	}
	printWorkloadTable(workloads)
	return nil
}

func (h Handler) Details(cmd *cobra.Command, args []string) error {
	ctx, _, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	details, err := engine.Fleet.ContainerDetails(ctx, id)
	if err != nil {
		return err
	}

	if !cmdcore.StdoutIsTTY() {
		return printJSON(details)
	}
	fmt.Printf("Container %d\nOS: %s\n\nRunning services:\n", details.ID, details.OSInfo)
	for _, svc := range details.SystemdServices {
		fmt.Printf("  %s\n", svc.Name)
	}
	if len(details.SystemdServices) == 0 {
		fmt.Println("  (none reported)")
	}
	return nil
}

func (h Handler) Start(cmd *cobra.Command, args []string) error {
	return h.batchControl(cmd, args, gateway.ActionStart, types.StatusRunning)
}

func (h Handler) Stop(cmd *cobra.Command, args []string) error {
	return h.batchControl(cmd, args, gateway.ActionStop, types.StatusStopped)
}

func (h Handler) Restart(cmd *cobra.Command, args []string) error {
	return h.batchControl(cmd, args, gateway.ActionRestart, types.StatusRunning)
}

// batchControl applies one action to every named workload, dispatching by
// the cataloged kind. With --wait it polls until the end state is confirmed
// by a status probe.
func (h Handler) batchControl(cmd *cobra.Command, args []string, action gateway.Action, desired types.WorkloadStatus) error {
	ctx, conf, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	wait, _ := cmd.Flags().GetBool("wait")
	logger := log.WithFunc("cmd.fleet." + string(action))

	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		entry, err := engine.Catalog.Lookup(id)
		if err != nil {
			return err
		}

		if entry.Kind == types.KindVM {
			err = engine.Fleet.ControlVM(ctx, id, action)
		} else {
			err = engine.Fleet.ControlContainer(ctx, id, action)
		}
		if err != nil {
			return err
		}
		logger.Infof(ctx, "%s accepted for %s %d (%s)", action, entry.Kind, id, entry.Name)

		if !wait {
			continue
		}
		if err := waitForStatus(ctx, conf, engine, id, desired); err != nil {
			return fmt.Errorf("wait for %s %d: %w", entry.Kind, id, err)
		}
		logger.Infof(ctx, "%s %d confirmed %s", entry.Kind, id, desired)
	}
	return nil
}

func waitForStatus(ctx context.Context, conf *config.Config, engine *cmdcore.Engine, id int, desired types.WorkloadStatus) error {
	return utils.WaitFor(ctx, conf.ScriptTimeout(), waitPollInterval, func() (bool, error) {
		w, err := engine.Fleet.Workload(ctx, id)
		if err != nil {
			return false, err
		}
		return w.Status == desired, nil
	})
}

func printWorkloadTable(workloads []types.Workload) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tCATEGORY\tSTATUS\tUPTIME")
	for _, wl := range workloads {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			wl.ID, wl.Kind, wl.Name, wl.Category, wl.Status, wl.Uptime)
	}
	w.Flush() //nolint:errcheck
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid workload id %q", arg)
	}
	return id, nil
}
