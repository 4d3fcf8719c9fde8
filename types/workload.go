package types

import "time"

// WorkloadKind distinguishes LXC containers from QEMU virtual machines.
type WorkloadKind string

const (
	KindContainer WorkloadKind = "container"
	KindVM        WorkloadKind = "vm"
)

// WorkloadStatus is the observed lifecycle state of a workload.
// StatusUnknown is the mandatory value when a status probe fails or times
// out; it is never collapsed into StatusStopped.
type WorkloadStatus string

const (
	StatusRunning WorkloadStatus = "Running"
	StatusStopped WorkloadStatus = "Stopped"
	StatusUnknown WorkloadStatus = "Unknown"
)

// CatalogEntry is the static metadata for one expected workload.
// Entries are loaded once at startup and never mutated.
type CatalogEntry struct {
	ID          int          `json:"id" yaml:"id"`
	Kind        WorkloadKind `json:"kind" yaml:"kind"`
	Category    string       `json:"category" yaml:"category"`
	Name        string       `json:"name" yaml:"name"`
	Description string       `json:"description" yaml:"description"`
}

// Workload is one catalog entry merged with its live state. Rebuilt from
// scratch on every collection cycle; no snapshot survives between polls.
type Workload struct {
	ID          int            `json:"id"`
	Kind        WorkloadKind   `json:"kind"`
	Category    string         `json:"category"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Status      WorkloadStatus `json:"status"`
	CPUUsage    float64        `json:"cpu_usage"`
	MemoryUsage float64        `json:"memory_usage"`
	Uptime      string         `json:"uptime"`
	LastChecked time.Time      `json:"last_checked"`
}

// SystemOverview is the fleet-wide read model served to clients.
type SystemOverview struct {
	TotalContainers   int        `json:"total_containers"`
	RunningContainers int        `json:"running_containers"`
	TotalVMs          int        `json:"total_vms"`
	RunningVMs        int        `json:"running_vms"`
	Containers        []Workload `json:"containers"`
	VMs               []Workload `json:"vms"`
	LastUpdated       time.Time  `json:"last_updated"`
}
