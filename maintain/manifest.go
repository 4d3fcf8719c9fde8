package maintain

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceSpec names one systemd unit expected to be active, scoped to a
// container, a VM, or the hypervisor host when both IDs are nil.
type ServiceSpec struct {
	Name        string `yaml:"name"`
	ContainerID *int   `yaml:"container_id,omitempty"`
	VMID        *int   `yaml:"vm_id,omitempty"`
}

// BinarySpec names one executable expected on a target. Package is the apt
// package that provides it; it defaults to the binary name.
type BinarySpec struct {
	Name        string `yaml:"name"`
	Package     string `yaml:"package,omitempty"`
	ContainerID *int   `yaml:"container_id,omitempty"`
	VMID        *int   `yaml:"vm_id,omitempty"`
}

// ConfigSpec names one configuration file expected on a target.
type ConfigSpec struct {
	Name        string `yaml:"name,omitempty"`
	Path        string `yaml:"path"`
	ContainerID *int   `yaml:"container_id,omitempty"`
	VMID        *int   `yaml:"vm_id,omitempty"`
}

// Manifest is the full probe table for maintenance diagnostics. Every entry
// always yields exactly one row in the maintenance overview, with negative
// findings when the probe fails.
type Manifest struct {
	Services []ServiceSpec `yaml:"services"`
	Binaries []BinarySpec  `yaml:"binaries"`
	Configs  []ConfigSpec  `yaml:"configs"`
}

func intp(v int) *int { return &v }

// DefaultManifest covers the host services plus the key media stack
// workloads.
func DefaultManifest() *Manifest {
	return &Manifest{
		Services: []ServiceSpec{
			{Name: "nginx"},
			{Name: "docker"},
			{Name: "ssh"},
			{Name: "prowlarr", ContainerID: intp(210)},
			{Name: "qbittorrent", ContainerID: intp(212)},
			{Name: "sonarr", ContainerID: intp(214)},
			{Name: "radarr", ContainerID: intp(215)},
			{Name: "plex", ContainerID: intp(230)},
			{Name: "jellyfin", ContainerID: intp(231)},
			{Name: "home-assistant", VMID: intp(500)},
			{Name: "alexa-service", VMID: intp(611)},
		},
		Binaries: []BinarySpec{
			{Name: "docker", Package: "docker.io"},
			{Name: "systemctl", Package: "systemd"},
			{Name: "nginx"},
			{Name: "prowlarr", ContainerID: intp(210)},
			{Name: "sonarr", ContainerID: intp(214)},
			{Name: "radarr", ContainerID: intp(215)},
			{Name: "plex", Package: "plexmediaserver", ContainerID: intp(230)},
			{Name: "jellyfin", ContainerID: intp(231)},
			{Name: "python3", VMID: intp(500)},
			{Name: "hass", VMID: intp(500)},
		},
		Configs: []ConfigSpec{
			{Path: "/etc/nginx/nginx.conf"},
			{Path: "/etc/docker/daemon.json"},
			{Path: "/config/config.xml", ContainerID: intp(210)},
			{Path: "/config/qBittorrent/qBittorrent.conf", ContainerID: intp(212)},
			{Path: "/config/config.xml", ContainerID: intp(214)},
			{Path: "/config/config.xml", ContainerID: intp(215)},
			{Path: "/config/configuration.yaml", VMID: intp(500)},
		},
	}
}

// LoadManifest returns the manifest from path, or the default when path is
// empty or missing.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // manifest path from config
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultManifest(), nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return m, nil
}

// FindService returns the manifest entry for name, or false.
func (m *Manifest) FindService(name string) (ServiceSpec, bool) {
	for _, s := range m.Services {
		if s.Name == name {
			return s, true
		}
	}
	return ServiceSpec{}, false
}

// ConfigsFor returns the config specs scoped to one container.
func (m *Manifest) ConfigsFor(containerID int) []ConfigSpec {
	var specs []ConfigSpec
	for _, c := range m.Configs {
		if c.ContainerID != nil && *c.ContainerID == containerID {
			specs = append(specs, c)
		}
	}
	return specs
}
