package types

import "time"

// Service is the observed state of one systemd unit, scoped to a single
// workload (or the hypervisor host when both IDs are nil). A failed probe
// yields Active=false, never a missing row.
type Service struct {
	Name        string `json:"name"`
	Active      bool   `json:"active"`
	Enabled     bool   `json:"enabled"`
	ContainerID *int   `json:"container_id,omitempty"`
	VMID        *int   `json:"vm_id,omitempty"`
}

// Binary is the observed state of one expected executable on a target.
type Binary struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Exists      bool   `json:"exists"`
	Executable  bool   `json:"executable"`
	Version     string `json:"version,omitempty"`
	ContainerID *int   `json:"container_id,omitempty"`
	VMID        *int   `json:"vm_id,omitempty"`
}

// ConfigFile is the observed state of one expected configuration file.
type ConfigFile struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Exists      bool   `json:"exists"`
	Readable    bool   `json:"readable"`
	Writable    bool   `json:"writable"`
	SizeBytes   int64  `json:"size_bytes"`
	Modified    string `json:"modified,omitempty"`
	ContainerID *int   `json:"container_id,omitempty"`
	VMID        *int   `json:"vm_id,omitempty"`
}

// SystemHealth aggregates host-level utilisation from read-only probes.
type SystemHealth struct {
	DiskUsage     float64 `json:"disk_usage"`
	MemoryUsage   float64 `json:"memory_usage"`
	CPULoad       float64 `json:"cpu_load"`
	NetworkStatus string  `json:"network_status"`
	Uptime        string  `json:"uptime"`
}

// CatalogDrift reports divergence between the catalog and the live fleet:
// IDs present on the hypervisor but not cataloged, and cataloged IDs the
// hypervisor does not know. Informational only — drift is data, not an error.
type CatalogDrift struct {
	Uncataloged []int `json:"uncataloged"`
	Missing     []int `json:"missing"`
}

// MaintenanceOverview is the maintenance read model served to clients.
// Every expected service/binary/config appears exactly once even when the
// underlying probes all failed.
type MaintenanceOverview struct {
	Services     []Service     `json:"services"`
	Binaries     []Binary      `json:"binaries"`
	Configs      []ConfigFile  `json:"configs"`
	SystemHealth SystemHealth  `json:"system_health"`
	Drift        *CatalogDrift `json:"drift,omitempty"`
	LastUpdated  time.Time     `json:"last_updated"`
}
