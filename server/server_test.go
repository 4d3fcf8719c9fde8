package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/fleet"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/gateway/gatewaytest"
	"github.com/projecteru2/fleetd/host"
	"github.com/projecteru2/fleetd/maintain"
	"github.com/projecteru2/fleetd/server"
	"github.com/projecteru2/fleetd/types"
)

// fakeAdvisor returns scripted suggestions or an error.
type fakeAdvisor struct {
	suggestions []types.Suggestion
	err         error
}

func (f *fakeAdvisor) Suggest(context.Context, int, string, string) ([]types.Suggestion, error) {
	return f.suggestions, f.err
}

func intp(v int) *int { return &v }

var _ = Describe("API", func() {
	var (
		gw     *gatewaytest.Fake
		adv    *fakeAdvisor
		router *gin.Engine
	)

	BeforeEach(func() {
		conf := config.DefaultConfig()
		conf.CallTimeoutSeconds = 1
		conf.BatchTimeoutSeconds = 2
		conf.ScriptTimeoutSeconds = 2
		conf.RunDir = GinkgoT().TempDir()

		cat := catalog.New(
			types.CatalogEntry{ID: 214, Kind: types.KindContainer, Name: "Sonarr"},
			types.CatalogEntry{ID: 500, Kind: types.KindVM, Name: "Home Assistant"},
		)
		gw = &gatewaytest.Fake{}
		adv = &fakeAdvisor{}

		h := host.New(conf, gw)
		manifest := &maintain.Manifest{
			Services: []maintain.ServiceSpec{{Name: "sonarr", ContainerID: intp(214)}},
		}
		m := maintain.New(conf, cat, gw, h, manifest)
		f := fleet.New(conf, cat, gw)

		router = gin.New()
		server.New(conf, f, m, h, adv).RegisterRoutes(router)
	})

	do := func(method, path, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	It("should answer the health check", func() {
		rec := do(http.MethodGet, "/healthz", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should expose prometheus metrics", func() {
		rec := do(http.MethodGet, "/metrics", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should serve the fleet overview", func() {
		gw.Statuses = map[int]*gateway.StatusReport{
			214: {Status: types.StatusRunning},
			500: {Status: types.StatusStopped},
		}

		rec := do(http.MethodGet, "/api/v1/overview", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var overview types.SystemOverview
		Expect(json.Unmarshal(rec.Body.Bytes(), &overview)).To(Succeed())
		Expect(overview.TotalContainers).To(Equal(1))
		Expect(overview.RunningContainers).To(Equal(1))
		Expect(overview.TotalVMs).To(Equal(1))
		Expect(overview.RunningVMs).To(Equal(0))
	})

	It("should serve the maintenance overview", func() {
		rec := do(http.MethodGet, "/api/v1/maintenance", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var overview types.MaintenanceOverview
		Expect(json.Unmarshal(rec.Body.Bytes(), &overview)).To(Succeed())
		Expect(overview.Services).To(HaveLen(1))
	})

	It("should start a cataloged container", func() {
		rec := do(http.MethodPost, "/api/v1/containers/214/start", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(gw.ControlCalls()).To(HaveLen(1))
	})

	It("should return 404 for an uncataloged container", func() {
		rec := do(http.MethodPost, "/api/v1/containers/999/start", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(gw.CallCount()).To(Equal(0))
	})

	It("should return 404 when the kinds do not match", func() {
		rec := do(http.MethodPost, "/api/v1/vms/214/start", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should return 400 for a non-numeric id", func() {
		rec := do(http.MethodPost, "/api/v1/containers/sonarr/start", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should map a gateway timeout to 504", func() {
		gw.ControlErrs = map[int]error{214: gateway.ErrTimeout}
		gw.StatusErrs = map[int]error{214: gateway.ErrTimeout}

		rec := do(http.MethodPost, "/api/v1/containers/214/stop", "")
		Expect(rec.Code).To(Equal(http.StatusGatewayTimeout))
	})

	It("should map permission errors to 403", func() {
		gw.ControlErrs = map[int]error{214: gateway.ErrPermissionDenied}
		gw.StatusErrs = map[int]error{214: gateway.ErrPermissionDenied}

		rec := do(http.MethodPost, "/api/v1/containers/214/stop", "")
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})

	It("should require the path parameter when reading a config", func() {
		rec := do(http.MethodGet, "/api/v1/containers/214/config", "")
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should map an unreadable config to 409", func() {
		gw.Errs = map[string]error{
			"pct exec 214 -- test -r /config/config.xml": &gateway.CommandError{ExitCode: 1},
		}

		rec := do(http.MethodGet, "/api/v1/containers/214/config?path=/config/config.xml", "")
		Expect(rec.Code).To(Equal(http.StatusConflict))
	})

	It("should read a config file", func() {
		gw.Responses = map[string]*gateway.Result{
			"pct exec 214 -- cat /config/config.xml": {Stdout: "<Config/>"},
		}

		rec := do(http.MethodGet, "/api/v1/containers/214/config?path=/config/config.xml", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("<Config/>"))
	})

	It("should write a config file", func() {
		body := `{"path": "/config/config.xml", "content": "<Config/>"}`
		rec := do(http.MethodPut, "/api/v1/containers/214/config", body)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(gw.Input("pct exec 214 -- tee /config/config.xml.tmp")).To(Equal("<Config/>"))
	})

	It("should reject a write without a path", func() {
		rec := do(http.MethodPut, "/api/v1/containers/214/config", `{"content": "x"}`)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should degrade to empty suggestions when the advisor is down", func() {
		adv.err = errors.New("connection refused")

		body := `{"path": "/config/config.xml", "content": "<Config/>"}`
		rec := do(http.MethodPost, "/api/v1/containers/214/config/suggestions", body)
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp struct {
			Suggestions []types.Suggestion `json:"suggestions"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Suggestions).NotTo(BeNil())
		Expect(resp.Suggestions).To(BeEmpty())
	})

	It("should pass advisor suggestions through", func() {
		adv.suggestions = []types.Suggestion{{Title: "enable auth", Detail: "set auth to true"}}

		body := `{"path": "/config/config.xml", "content": "<Config/>"}`
		rec := do(http.MethodPost, "/api/v1/containers/214/config/suggestions", body)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("enable auth"))
	})

	It("should control manifest services", func() {
		rec := do(http.MethodPost, "/api/v1/services/sonarr/restart?container_id=214", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(gw.RunCalls()).To(ContainElement([]string{"pct", "exec", "214", "--", "systemctl", "restart", "sonarr"}))
	})

	It("should return 404 for a service not in the manifest", func() {
		rec := do(http.MethodPost, "/api/v1/services/ghost/restart", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should return 404 for an unknown script", func() {
		rec := do(http.MethodPost, "/api/v1/scripts/nonsense", "")
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("should run a configured script", func() {
		gw.Responses = map[string]*gateway.Result{
			"sh -c /usr/local/bin/fix-containers.sh": {Stdout: "done"},
		}

		rec := do(http.MethodPost, "/api/v1/scripts/container-fix", "")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var result types.ScriptResult
		Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Success).To(BeTrue())
		Expect(result.Output).To(Equal("done"))
	})

	It("should serve host info and power operations", func() {
		gw.Responses = map[string]*gateway.Result{"hostname": {Stdout: "pve\n"}}

		rec := do(http.MethodGet, "/api/v1/host", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("pve"))

		rec = do(http.MethodPost, "/api/v1/host/update", "")
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
