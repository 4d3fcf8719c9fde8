package catalog

import "github.com/projecteru2/fleetd/types"

// Category range conventions for container IDs. Entries outside every
// range fall back to "Other".
const (
	catCore        = "Core Infrastructure"    // 100-199
	catMedia       = "Essential Media Services" // 210-229
	catServers     = "Media Servers"          // 230-239
	catEnhance     = "Enhancement Services"   // 240-250
	catMonitoring  = "Monitoring & Analytics" // 260-269
	catManagement  = "Management & Utilities" // 270-279
	catOther       = "Other"
)

// CategoryForID maps a container ID to its category by the numeric-range
// convention. Used for uncataloged IDs discovered on the hypervisor.
func CategoryForID(id int) string {
	switch {
	case id >= 100 && id <= 199:
		return catCore
	case id >= 210 && id <= 229:
		return catMedia
	case id >= 230 && id <= 239:
		return catServers
	case id >= 240 && id <= 250:
		return catEnhance
	case id >= 260 && id <= 269:
		return catMonitoring
	case id >= 270 && id <= 279:
		return catManagement
	default:
		return catOther
	}
}

func ct(id int, name, desc string) types.CatalogEntry {
	return types.CatalogEntry{
		ID:          id,
		Kind:        types.KindContainer,
		Category:    CategoryForID(id),
		Name:        name,
		Description: desc,
	}
}

func vm(id int, name, desc string) types.CatalogEntry {
	return types.CatalogEntry{
		ID:          id,
		Kind:        types.KindVM,
		Category:    "Virtual Machines",
		Name:        name,
		Description: desc,
	}
}

// builtin is the fixed fleet this node is expected to run. Adding an entry
// here is the only change needed to bring a new workload under management.
func builtin() []types.CatalogEntry {
	return []types.CatalogEntry{
		ct(100, "WireGuard", "VPN access and secure tunneling"),
		ct(101, "Gluetun", "VPN client container for other services"),
		ct(102, "Flaresolverr", "Cloudflare solver proxy"),
		ct(103, "Traefik", "Reverse proxy and load balancer"),
		ct(104, "Vaultwarden", "Password manager server"),
		ct(105, "Valkey", "Redis-compatible in-memory database"),
		ct(106, "PostgreSQL", "Primary database server"),
		ct(107, "Authentik", "Identity provider and SSO"),

		ct(210, "Prowlarr", "Indexer manager and proxy"),
		ct(211, "Jackett", "Torrent indexer proxy"),
		ct(212, "QBittorrent", "BitTorrent client"),
		ct(214, "Sonarr", "TV series management"),
		ct(215, "Radarr", "Movie management"),
		ct(216, "Proxarr", "Proxy management for *arr apps"),
		ct(217, "Readarr", "Book and audiobook management"),
		ct(219, "Whisparr", "Adult content management"),
		ct(220, "Sonarr Extended", "Extended TV series management"),
		ct(221, "Radarr Extended", "Extended movie management"),
		ct(223, "Autobrr", "Automated torrent management"),
		ct(224, "Deluge", "Alternative BitTorrent client"),

		ct(230, "Plex", "Media server and streaming platform"),
		ct(231, "Jellyfin", "Open-source media server"),
		ct(232, "Audiobookshelf", "Audiobook and podcast server"),
		ct(233, "Calibre-web", "E-book server and manager"),
		ct(234, "IPTV-Proxy", "IPTV streaming proxy"),
		ct(235, "TVHeadend", "TV streaming server"),
		ct(236, "Tdarr Server", "Media transcoding server"),
		ct(237, "Tdarr Node", "Media transcoding worker"),

		ct(240, "Bazarr", "Subtitle management"),
		ct(241, "Overseerr", "Media request management"),
		ct(242, "Jellyseerr", "Jellyfin request management"),
		ct(243, "Ombi", "Media request platform"),
		ct(244, "Tautulli", "Plex monitoring and statistics"),
		ct(245, "Kometa", "Plex metadata management"),
		ct(246, "Gaps", "Plex collection gap finder"),
		ct(247, "Janitorr", "Media cleanup automation"),
		ct(248, "Decluttarr", "Media library decluttering"),
		ct(249, "Watchlistarr", "Watchlist synchronization"),
		ct(250, "Traktarr", "Trakt.tv integration"),

		ct(260, "Prometheus", "Metrics collection and monitoring"),
		ct(261, "Grafana", "Metrics visualization and dashboards"),
		ct(262, "Checkrr", "Service health checking"),

		ct(270, "FileBot", "File renaming and organization"),
		ct(271, "FlexGet", "Automated content downloading"),
		ct(272, "Buildarr", "Configuration management for *arr apps"),
		ct(274, "Organizr", "Service organization dashboard"),
		ct(275, "Homarr", "Modern dashboard for services"),
		ct(276, "Homepage", "Customizable homepage dashboard"),
		ct(277, "Recyclarr", "Configuration recycling for *arr apps"),
		ct(278, "CrowdSec", "Collaborative security engine"),
		ct(279, "Tailscale", "Secure networking mesh"),

		vm(500, "Home Assistant", "Home automation platform"),
		vm(611, "Alexa", "Voice assistant system"),
		vm(900, "AI System", "Artificial intelligence services"),
	}
}
