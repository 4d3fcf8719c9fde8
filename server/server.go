// Package server exposes the engine over an HTTP API: JSON read models,
// remediation endpoints, a websocket overview stream and prometheus
// metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/projecteru2/core/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/projecteru2/fleetd/advisor"
	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/fleet"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/host"
	"github.com/projecteru2/fleetd/maintain"
)

const shutdownGrace = 10 * time.Second

// Server wires the engine services into HTTP routes.
type Server struct {
	conf       *config.Config
	fleet      *fleet.Fleet
	maintainer *maintain.Maintainer
	host       *host.Host
	advisor    advisor.Client
}

// New creates a Server.
func New(conf *config.Config, f *fleet.Fleet, m *maintain.Maintainer, h *host.Host, adv advisor.Client) *Server {
	return &Server{conf: conf, fleet: f, maintainer: m, host: h, advisor: adv}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), MetricsMiddleware())
	s.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              s.conf.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second, //nolint:mnd
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithFunc("server.Run").Infof(ctx, "API listening on %s", s.conf.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}

// RegisterRoutes attaches every API route to the router.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/overview", s.overview)
	api.GET("/overview/stream", s.overviewStream)
	api.GET("/maintenance", s.maintenance)

	api.GET("/host", s.hostInfo)
	api.GET("/host/cluster", s.clusterStatus)
	api.POST("/host/update", s.hostUpdate)
	api.POST("/host/reboot", s.hostReboot)
	api.POST("/host/shutdown", s.hostShutdown)

	api.GET("/containers/:id", s.containerDetails)
	api.GET("/containers/:id/configs", s.containerConfigs)
	api.GET("/containers/:id/config", s.readConfig)
	api.PUT("/containers/:id/config", s.writeConfig)
	api.POST("/containers/:id/config/suggestions", s.configSuggestions)
	api.POST("/containers/:id/start", s.containerAction(gateway.ActionStart))
	api.POST("/containers/:id/stop", s.containerAction(gateway.ActionStop))
	api.POST("/containers/:id/restart", s.containerAction(gateway.ActionRestart))
	api.POST("/vms/:id/start", s.vmAction(gateway.ActionStart))
	api.POST("/vms/:id/stop", s.vmAction(gateway.ActionStop))

	api.POST("/services/:name/:action", s.controlService)
	api.POST("/remediate/binaries", s.installBinaries)
	api.POST("/remediate/services", s.fixServices)
	api.POST("/scripts/:name", s.runScript)
}

func (s *Server) overview(c *gin.Context) {
	c.JSON(http.StatusOK, s.fleet.Overview(c.Request.Context()))
}

func (s *Server) maintenance(c *gin.Context) {
	c.JSON(http.StatusOK, s.maintainer.Overview(c.Request.Context()))
}

func (s *Server) hostInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.host.Info(c.Request.Context()))
}

func (s *Server) clusterStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"cluster_status": s.host.ClusterStatus(c.Request.Context())})
}

func (s *Server) hostUpdate(c *gin.Context) {
	c.JSON(http.StatusOK, s.host.UpdatePackages(c.Request.Context()))
}

func (s *Server) hostReboot(c *gin.Context) {
	c.JSON(http.StatusOK, s.host.Reboot(c.Request.Context()))
}

func (s *Server) hostShutdown(c *gin.Context) {
	c.JSON(http.StatusOK, s.host.Shutdown(c.Request.Context()))
}

func (s *Server) containerDetails(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	details, err := s.fleet.ContainerDetails(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) containerConfigs(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	configs, err := s.maintainer.ContainerConfigs(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, configs)
}

func (s *Server) containerAction(action gateway.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := s.fleet.ControlContainer(c.Request.Context(), id, action); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "action": string(action)})
	}
}

func (s *Server) vmAction(action gateway.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := s.fleet.ControlVM(c.Request.Context(), id, action); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "action": string(action)})
	}
}

func (s *Server) readConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	path := c.Query("path")
	if path == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing path parameter"})
		return
	}
	content, err := s.maintainer.ReadContainerConfig(c.Request.Context(), id, path)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "content": content})
}

type writeConfigRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

func (s *Server) writeConfig(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req writeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.maintainer.WriteContainerConfig(c.Request.Context(), id, req.Path, req.Content); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "written": true})
}

func (s *Server) configSuggestions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req writeConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()
	suggestions, err := s.advisor.Suggest(ctx, id, req.Path, req.Content)
	c.JSON(http.StatusOK, gin.H{"suggestions": advisor.Degrade(ctx, suggestions, err)})
}

func (s *Server) controlService(c *gin.Context) {
	name := c.Param("name")
	action := c.Param("action")
	containerID, ok := optionalIDQuery(c, "container_id")
	if !ok {
		return
	}
	vmID, ok := optionalIDQuery(c, "vm_id")
	if !ok {
		return
	}
	if err := s.maintainer.ControlService(c.Request.Context(), name, action, containerID, vmID); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"service": name, "action": action})
}

func (s *Server) installBinaries(c *gin.Context) {
	c.JSON(http.StatusOK, s.maintainer.InstallMissingBinaries(c.Request.Context()))
}

func (s *Server) fixServices(c *gin.Context) {
	c.JSON(http.StatusOK, s.maintainer.FixAllServices(c.Request.Context()))
}

func (s *Server) runScript(c *gin.Context) {
	result, err := s.maintainer.RunScript(c.Request.Context(), c.Param("name"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func optionalIDQuery(c *gin.Context, key string) (*int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return nil, false
	}
	return &id, true
}

// abortWithError maps the error taxonomy onto HTTP statuses.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var cmdErr *gateway.CommandError
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, gateway.ErrNotFound),
		errors.Is(err, maintain.ErrUnknownScript),
		errors.Is(err, maintain.ErrUnknownService):
		status = http.StatusNotFound
	case errors.Is(err, gateway.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, gateway.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, maintain.ErrNotReadable), errors.Is(err, maintain.ErrNotWritable):
		status = http.StatusConflict
	case errors.As(err, &cmdErr):
		status = http.StatusBadGateway
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
