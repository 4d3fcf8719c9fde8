package types

// HostInfo describes the hypervisor node itself.
type HostInfo struct {
	Hostname    string `json:"hostname"`
	PVEVersion  string `json:"pve_version"`
	Kernel      string `json:"kernel"`
	Uptime      string `json:"uptime"`
	LoadAverage string `json:"load_average"`
}

// ContainerDetails is the per-container drill-down view: guest OS identity
// plus the systemd services currently running inside it.
type ContainerDetails struct {
	ID              int       `json:"id"`
	OSInfo          string    `json:"os_info"`
	SystemdServices []Service `json:"systemd_services"`
}

// Suggestion is one advisory returned by the configuration advisor.
type Suggestion struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}
