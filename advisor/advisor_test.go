package advisor_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/projecteru2/fleetd/advisor"
	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/types"
)

var _ = Describe("Client", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should be disabled when no URL is configured", func() {
		client := advisor.New(config.DefaultConfig())
		suggestions, err := client.Suggest(ctx, 214, "/config/config.xml", "<Config/>")
		Expect(err).NotTo(HaveOccurred())
		Expect(suggestions).To(BeEmpty())
	})

	It("should post the config and decode the suggestions", func() {
		var gotPath string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/suggestions"))
			var req struct {
				WorkloadID int    `json:"workload_id"`
				Path       string `json:"path"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.WorkloadID).To(Equal(214))
			gotPath = req.Path

			_ = json.NewEncoder(w).Encode(map[string]any{
				"suggestions": []types.Suggestion{{Title: "enable auth", Detail: "set auth to true"}},
			})
		}))
		defer srv.Close()

		conf := config.DefaultConfig()
		conf.AdvisorURL = srv.URL
		suggestions, err := advisor.New(conf).Suggest(ctx, 214, "/config/config.xml", "<Config/>")
		Expect(err).NotTo(HaveOccurred())
		Expect(gotPath).To(Equal("/config/config.xml"))
		Expect(suggestions).To(HaveLen(1))
		Expect(suggestions[0].Title).To(Equal("enable auth"))
	})

	It("should classify a non-200 response as unavailable", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		conf := config.DefaultConfig()
		conf.AdvisorURL = srv.URL
		_, err := advisor.New(conf).Suggest(ctx, 214, "/x", "y")
		Expect(err).To(MatchError(advisor.ErrUnavailable))
	})

	It("should classify a connection failure as unavailable", func() {
		conf := config.DefaultConfig()
		conf.AdvisorURL = "http://127.0.0.1:1" // nothing listens here
		_, err := advisor.New(conf).Suggest(ctx, 214, "/x", "y")
		Expect(err).To(MatchError(advisor.ErrUnavailable))
	})
})

var _ = Describe("Degrade", func() {
	It("should collapse errors into an empty list", func() {
		out := advisor.Degrade(context.Background(), nil, errors.New("boom"))
		Expect(out).NotTo(BeNil())
		Expect(out).To(BeEmpty())
	})

	It("should replace a nil list with an empty one", func() {
		out := advisor.Degrade(context.Background(), nil, nil)
		Expect(out).NotTo(BeNil())
		Expect(out).To(BeEmpty())
	})

	It("should pass suggestions through untouched", func() {
		in := []types.Suggestion{{Title: "t", Detail: "d"}}
		Expect(advisor.Degrade(context.Background(), in, nil)).To(Equal(in))
	})
})
