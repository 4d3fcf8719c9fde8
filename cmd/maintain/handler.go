package maintain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/projecteru2/fleetd/advisor"
	cmdcore "github.com/projecteru2/fleetd/cmd/core"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) initEngine(cmd *cobra.Command) (context.Context, *cmdcore.Engine, error) {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return nil, nil, err
	}
	engine, err := cmdcore.InitEngine(ctx, conf)
	if err != nil {
		return nil, nil, err
	}
	return ctx, engine, nil
}

func (h Handler) Status(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	overview := engine.Maintainer.Overview(ctx)

	if !cmdcore.StdoutIsTTY() {
		return printJSON(overview)
	}

	fmt.Printf("Health: disk %.1f%%  memory %.1f%%  load %.2f  network %s\n",
		overview.SystemHealth.DiskUsage, overview.SystemHealth.MemoryUsage,
		overview.SystemHealth.CPULoad, overview.SystemHealth.NetworkStatus)
	fmt.Printf("Uptime: %s\n\n", overview.SystemHealth.Uptime)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tSCOPE\tACTIVE\tENABLED")
	for _, svc := range overview.Services {
		fmt.Fprintf(w, "%s\t%s\t%t\t%t\n", svc.Name, scope(svc.ContainerID, svc.VMID), svc.Active, svc.Enabled)
	}
	fmt.Fprintln(w, "\nBINARY\tSCOPE\tPATH\tVERSION")
	for _, bin := range overview.Binaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", bin.Name, scope(bin.ContainerID, bin.VMID), bin.Path, bin.Version)
	}
	fmt.Fprintln(w, "\nCONFIG\tSCOPE\tEXISTS\tSIZE\tMODIFIED")
	for _, cf := range overview.Configs {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			cf.Path, scope(cf.ContainerID, cf.VMID), cf.Exists, cmdcore.FormatSize(cf.SizeBytes), cf.Modified)
	}
	w.Flush() //nolint:errcheck

	if overview.Drift != nil && (len(overview.Drift.Uncataloged) > 0 || len(overview.Drift.Missing) > 0) {
		fmt.Printf("\nDrift: uncataloged %v, missing %v\n", overview.Drift.Uncataloged, overview.Drift.Missing)
	}
	return nil
}

func (h Handler) FixServices(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	result := engine.Maintainer.FixAllServices(ctx)
	logger := log.WithFunc("cmd.maintain.fix")
	logger.Infof(ctx, "%s (success: %t)", result.Message, result.Success)
	for _, action := range result.ActionsTaken {
		logger.Infof(ctx, "  %s", action)
	}
	return nil
}

func (h Handler) InstallBinaries(cmd *cobra.Command, _ []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	result := engine.Maintainer.InstallMissingBinaries(ctx)
	logger := log.WithFunc("cmd.maintain.install")
	logger.Infof(ctx, "%s (success: %t)", result.Message, result.Success)
	for _, name := range result.Installed {
		logger.Infof(ctx, "  installed %s", name)
	}
	for _, name := range result.Failed {
		logger.Warnf(ctx, "  failed %s", name)
	}
	return nil
}

func (h Handler) Script(cmd *cobra.Command, args []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	result, err := engine.Maintainer.RunScript(ctx, args[0])
	if err != nil {
		return err
	}
	log.WithFunc("cmd.maintain.script").Infof(ctx, "%s finished in %s (success: %t)",
		args[0], result.Duration.Round(0), result.Success)
	if result.Output != "" {
		fmt.Println(result.Output)
	}
	if !result.Success {
		return fmt.Errorf("script %s failed", args[0])
	}
	return nil
}

func (h Handler) Service(cmd *cobra.Command, args []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	var containerID, vmID *int
	if v, _ := cmd.Flags().GetInt("container"); v > 0 {
		containerID = &v
	}
	if v, _ := cmd.Flags().GetInt("vm"); v > 0 {
		vmID = &v
	}
	if err := engine.Maintainer.ControlService(ctx, args[0], args[1], containerID, vmID); err != nil {
		return err
	}
	log.WithFunc("cmd.maintain.service").Infof(ctx, "%s %s done", args[1], args[0])
	return nil
}

func (h Handler) ReadConfig(cmd *cobra.Command, args []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid container id %q", args[0])
	}
	content, err := engine.Maintainer.ReadContainerConfig(ctx, id, args[1])
	if err != nil {
		return err
	}
	fmt.Print(content)
	return nil
}

func (h Handler) WriteConfig(cmd *cobra.Command, args []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid container id %q", args[0])
	}

	var content []byte
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		content, err = os.ReadFile(file) //nolint:gosec // path from CLI flag
	} else {
		content, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read new content: %w", err)
	}

	if err := engine.Maintainer.WriteContainerConfig(ctx, id, args[1], string(content)); err != nil {
		return err
	}
	log.WithFunc("cmd.maintain.config").Infof(ctx, "wrote %s on container %d", args[1], id)
	return nil
}

func (h Handler) Suggest(cmd *cobra.Command, args []string) error {
	ctx, engine, err := h.initEngine(cmd)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid container id %q", args[0])
	}
	content, err := engine.Maintainer.ReadContainerConfig(ctx, id, args[1])
	if err != nil {
		return err
	}
	suggestions, serr := engine.Advisor.Suggest(ctx, id, args[1], content)
	suggestions = advisor.Degrade(ctx, suggestions, serr)

	if !cmdcore.StdoutIsTTY() {
		return printJSON(suggestions)
	}
	if len(suggestions) == 0 {
		fmt.Println("No suggestions.")
		return nil
	}
	for _, s := range suggestions {
		fmt.Printf("- %s\n  %s\n", s.Title, s.Detail)
	}
	return nil
}

func scope(containerID, vmID *int) string {
	switch {
	case containerID != nil:
		return fmt.Sprintf("ct/%d", *containerID)
	case vmID != nil:
		return fmt.Sprintf("vm/%d", *vmID)
	default:
		return "host"
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
