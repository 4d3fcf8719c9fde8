package core

import (
	"context"
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projecteru2/fleetd/advisor"
	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/fleet"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/gateway/ssh"
	"github.com/projecteru2/fleetd/host"
	"github.com/projecteru2/fleetd/maintain"
)

// BaseHandler provides shared config access for all command handlers.
type BaseHandler struct {
	ConfProvider func() *config.Config
}

// Init returns the command context and validated config in one call.
func (h BaseHandler) Init(cmd *cobra.Command) (context.Context, *config.Config, error) {
	conf, err := h.Conf()
	if err != nil {
		return nil, nil, err
	}
	return CommandContext(cmd), conf, nil
}

// Conf validates and returns the config. All handlers call this first.
func (h BaseHandler) Conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// CommandContext returns command context, falling back to Background.
func CommandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// Engine bundles the fully wired services behind the CLI and API.
type Engine struct {
	Catalog    *catalog.Catalog
	Gateway    gateway.Gateway
	Fleet      *fleet.Fleet
	Maintainer *maintain.Maintainer
	Host       *host.Host
	Advisor    advisor.Client
}

// InitEngine wires catalog, gateway and services from the config.
func InitEngine(ctx context.Context, conf *config.Config) (*Engine, error) {
	cat, err := catalog.Load(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	manifest, err := maintain.LoadManifest(conf.ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	gw := ssh.New(conf)
	h := host.New(conf, gw)
	return &Engine{
		Catalog:    cat,
		Gateway:    gw,
		Fleet:      fleet.New(conf, cat, gw),
		Maintainer: maintain.New(conf, cat, gw, h, manifest),
		Host:       h,
		Advisor:    advisor.New(conf),
	}, nil
}

// StdoutIsTTY reports whether stdout is a terminal; handlers print tables
// on a TTY and JSON otherwise.
func StdoutIsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// FormatSize renders a byte count for table output.
func FormatSize(bytes int64) string {
	return units.HumanSize(float64(bytes))
}
