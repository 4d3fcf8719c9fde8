package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/projecteru2/fleetd/catalog"
	cmdcore "github.com/projecteru2/fleetd/cmd/core"
	"github.com/projecteru2/fleetd/types"
)

type Handler struct {
	cmdcore.BaseHandler
}

func (h Handler) List(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	cat, err := catalog.Load(ctx, conf)
	if err != nil {
		return err
	}

	if !cmdcore.StdoutIsTTY() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat.All())
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tCATEGORY\tDESCRIPTION")
	for _, e := range cat.All() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.Kind, e.Name, e.Category, e.Description)
	}
	return w.Flush()
}

func (h Handler) Add(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	if conf.CatalogFile == "" {
		return fmt.Errorf("catalog_file not configured")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid workload id %q", args[0])
	}
	kind, _ := cmd.Flags().GetString("kind")
	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")

	entry := types.CatalogEntry{
		ID:          id,
		Kind:        types.WorkloadKind(kind),
		Category:    category,
		Name:        args[1],
		Description: description,
	}
	if err := catalog.NewStore(conf).Add(ctx, entry); err != nil {
		return err
	}
	log.WithFunc("cmd.catalog.add").Infof(ctx, "cataloged %s %d (%s)", kind, id, args[1])
	return nil
}

func (h Handler) Remove(cmd *cobra.Command, args []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	if conf.CatalogFile == "" {
		return fmt.Errorf("catalog_file not configured")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid workload id %q", args[0])
	}
	if err := catalog.NewStore(conf).Remove(ctx, id); err != nil {
		return err
	}
	log.WithFunc("cmd.catalog.remove").Infof(ctx, "removed %d from catalog extension", id)
	return nil
}
