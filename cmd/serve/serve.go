package serve

import (
	"github.com/spf13/cobra"

	cmdcore "github.com/projecteru2/fleetd/cmd/core"
	"github.com/projecteru2/fleetd/server"
)

type Handler struct {
	cmdcore.BaseHandler
}

// Command builds the "serve" command.
func Command(h Handler) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE:  h.Serve,
	}
}

func (h Handler) Serve(cmd *cobra.Command, _ []string) error {
	ctx, conf, err := h.Init(cmd)
	if err != nil {
		return err
	}
	engine, err := cmdcore.InitEngine(ctx, conf)
	if err != nil {
		return err
	}
	srv := server.New(conf, engine.Fleet, engine.Maintainer, engine.Host, engine.Advisor)
	return srv.Run(ctx)
}
