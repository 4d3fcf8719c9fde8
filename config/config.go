package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	coretypes "github.com/projecteru2/core/types"
)

// Config holds global fleetd configuration.
type Config struct {
	// SSHTarget is the ssh destination for the hypervisor node, e.g. an
	// alias from ~/.ssh/config or root@host.
	SSHTarget string `json:"ssh_target" mapstructure:"ssh_target"`
	// RunDir holds lock files and other runtime state.
	RunDir string `json:"run_dir" mapstructure:"run_dir"`
	// CatalogFile optionally extends the built-in catalog (JSON, managed
	// by the catalog commands).
	CatalogFile string `json:"catalog_file" mapstructure:"catalog_file"`
	// ManifestFile optionally overrides the built-in maintenance manifest
	// of expected services, binaries and config files (YAML).
	ManifestFile string `json:"manifest_file" mapstructure:"manifest_file"`
	// VMAliases maps VM IDs (as strings) to ssh aliases reachable from the
	// hypervisor node, used to probe inside guests.
	VMAliases map[string]string `json:"vm_aliases" mapstructure:"vm_aliases"`

	// MaxInFlight bounds simultaneous gateway calls during batch
	// collection and diagnostics.
	MaxInFlight int `json:"max_in_flight" mapstructure:"max_in_flight"`
	// CallTimeoutSeconds bounds a single gateway call.
	CallTimeoutSeconds int `json:"call_timeout_seconds" mapstructure:"call_timeout_seconds"`
	// BatchTimeoutSeconds bounds a whole collection cycle; probes still
	// pending at the deadline are reported as Unknown.
	BatchTimeoutSeconds int `json:"batch_timeout_seconds" mapstructure:"batch_timeout_seconds"`
	// ScriptTimeoutSeconds bounds remediation scripts and host package
	// updates, which legitimately run for minutes.
	ScriptTimeoutSeconds int `json:"script_timeout_seconds" mapstructure:"script_timeout_seconds"`

	// AdvisorURL is the base URL of the configuration advisor. Empty
	// disables the advisor; requests then degrade to empty suggestions.
	AdvisorURL string `json:"advisor_url" mapstructure:"advisor_url"`
	// ListenAddr is the HTTP API listen address for the serve command.
	ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`

	// Scripts maps remediation script names to the argv executed on the
	// hypervisor. Merged over DefaultScripts, so a config file can
	// override or extend the built-in procedures.
	Scripts map[string][]string `json:"scripts" mapstructure:"scripts"`

	// Log configuration, uses eru core's ServerLogConfig.
	Log coretypes.ServerLogConfig `json:"log" mapstructure:"log"`
}

// DefaultScripts are the built-in named remediation procedures. Each runs
// as a single shell command on the hypervisor.
func DefaultScripts() map[string][]string {
	return map[string][]string{
		"container-fix":     {"sh", "-c", "/usr/local/bin/fix-containers.sh"},
		"media-fix":         {"sh", "-c", "/usr/local/bin/fix-media-services.sh"},
		"hardware-optimize": {"sh", "-c", "/usr/local/bin/optimize-hardware.sh"},
		"duckdns-update":    {"sh", "-c", "/usr/local/bin/duckdns-update.sh"},
	}
}

// DefaultConfig returns a Config with conservative defaults.
func DefaultConfig() *Config {
	return &Config{
		SSHTarget:            "proxmox",
		RunDir:               "/run/fleetd",
		MaxInFlight:          8,
		CallTimeoutSeconds:   5,
		BatchTimeoutSeconds:  15,
		ScriptTimeoutSeconds: 600,
		ListenAddr:           ":8440",
		Scripts:              DefaultScripts(),
		VMAliases: map[string]string{
			"500": "homeassistant",
			"611": "alexa",
			"900": "ai-system",
		},
		Log: coretypes.ServerLogConfig{
			Level:      "info",
			MaxSize:    500,
			MaxAge:     28,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from file, falling back to defaults.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if path == "" {
		return conf, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // config path from CLI flag
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, conf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	conf.Normalize()
	return conf, nil
}

// Normalize fills zero-valued tunables with defaults and merges the
// built-in scripts under any user-supplied ones.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = def.MaxInFlight
	}
	if c.CallTimeoutSeconds <= 0 {
		c.CallTimeoutSeconds = def.CallTimeoutSeconds
	}
	if c.BatchTimeoutSeconds <= 0 {
		c.BatchTimeoutSeconds = def.BatchTimeoutSeconds
	}
	if c.ScriptTimeoutSeconds <= 0 {
		c.ScriptTimeoutSeconds = def.ScriptTimeoutSeconds
	}
	if c.SSHTarget == "" {
		c.SSHTarget = def.SSHTarget
	}
	if c.RunDir == "" {
		c.RunDir = def.RunDir
	}
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	merged := DefaultScripts()
	for name, argv := range c.Scripts {
		merged[name] = argv
	}
	c.Scripts = merged
	if len(c.VMAliases) == 0 {
		c.VMAliases = def.VMAliases
	}
}

// VMAlias returns the ssh alias for a VM ID, or "" when none is configured.
func (c *Config) VMAlias(id int) string {
	return c.VMAliases[strconv.Itoa(id)]
}

// CallTimeout is the per-gateway-call deadline.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSeconds) * time.Second
}

// BatchTimeout is the whole-collection deadline.
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutSeconds) * time.Second
}

// ScriptTimeout is the deadline for remediation scripts.
func (c *Config) ScriptTimeout() time.Duration {
	return time.Duration(c.ScriptTimeoutSeconds) * time.Second
}

// LockDir is where per-config-file write locks live.
func (c *Config) LockDir() string {
	return filepath.Join(c.RunDir, "locks")
}
