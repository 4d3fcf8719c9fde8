package maintain_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/projecteru2/fleetd/catalog"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/gateway/gatewaytest"
	"github.com/projecteru2/fleetd/maintain"
)

var _ = Describe("ContainerConfigs", func() {
	var (
		ctx context.Context
		gw  *gatewaytest.Fake
		m   *maintain.Maintainer
	)

	BeforeEach(func() {
		ctx = context.Background()
		gw = &gatewaytest.Fake{}
		m = newMaintainer(testConfig(), gw, &maintain.Manifest{
			Configs: []maintain.ConfigSpec{
				{Path: "/config/config.xml", ContainerID: intp(214)},
				{Path: "/config/config.xml", ContainerID: intp(215)},
			},
		})
	})

	It("should probe only the configs scoped to the container", func() {
		configs, err := m.ContainerConfigs(ctx, 214)
		Expect(err).NotTo(HaveOccurred())
		Expect(configs).To(HaveLen(1))
		Expect(configs[0].Path).To(Equal("/config/config.xml"))
		Expect(*configs[0].ContainerID).To(Equal(214))
	})

	It("should return an empty list for a container with no manifest configs", func() {
		configs, err := m.ContainerConfigs(ctx, 230)
		Expect(err).NotTo(HaveOccurred())
		Expect(configs).To(BeEmpty())
	})

	It("should reject uncataloged and non-container ids", func() {
		_, err := m.ContainerConfigs(ctx, 999)
		Expect(err).To(MatchError(catalog.ErrNotFound))
		_, err = m.ContainerConfigs(ctx, 500)
		Expect(err).To(MatchError(catalog.ErrNotFound))
		Expect(gw.CallCount()).To(Equal(0))
	})
})

var _ = Describe("ReadContainerConfig", func() {
	var (
		ctx context.Context
		gw  *gatewaytest.Fake
		m   *maintain.Maintainer
	)

	BeforeEach(func() {
		ctx = context.Background()
		gw = &gatewaytest.Fake{}
		m = newMaintainer(testConfig(), gw, &maintain.Manifest{})
	})

	It("should return the file content", func() {
		gw.Responses = map[string]*gateway.Result{
			"pct exec 214 -- cat /config/config.xml": {Stdout: "<Config>\n</Config>\n"},
		}

		content, err := m.ReadContainerConfig(ctx, 214, "/config/config.xml")
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal("<Config>\n</Config>\n"))
	})

	It("should map a failed readability check to ErrNotReadable", func() {
		gw.Errs = map[string]error{
			"pct exec 214 -- test -r /config/config.xml": &gateway.CommandError{ExitCode: 1},
		}

		_, err := m.ReadContainerConfig(ctx, 214, "/config/config.xml")
		Expect(err).To(MatchError(maintain.ErrNotReadable))
	})
})

var _ = Describe("WriteContainerConfig", func() {
	const path = "/config/config.xml"

	var (
		ctx context.Context
		gw  *gatewaytest.Fake
		m   *maintain.Maintainer
	)

	BeforeEach(func() {
		ctx = context.Background()
		gw = &gatewaytest.Fake{}
		m = newMaintainer(testConfig(), gw, &maintain.Manifest{})
	})

	// ran reports whether a command starting with prefix was issued.
	ran := func(prefix string) bool {
		for _, argv := range gw.RunCalls() {
			if strings.HasPrefix(strings.Join(argv, " "), prefix) {
				return true
			}
		}
		return false
	}

	It("should back up, stage and rename into place", func() {
		Expect(m.WriteContainerConfig(ctx, 214, path, "<Config/>")).To(Succeed())

		Expect(ran("pct exec 214 -- cp -p " + path + " " + path + ".bak")).To(BeTrue())
		Expect(gw.Input("pct exec 214 -- tee " + path + ".tmp")).To(Equal("<Config/>"))
		Expect(ran("pct exec 214 -- mv " + path + ".tmp " + path)).To(BeTrue())
	})

	It("should map an unwritable target to ErrNotWritable without touching it", func() {
		gw.Errs = map[string]error{
			"pct exec 214 -- test -w " + path: &gateway.CommandError{ExitCode: 1},
		}

		err := m.WriteContainerConfig(ctx, 214, path, "<Config/>")
		Expect(err).To(MatchError(maintain.ErrNotWritable))
		Expect(ran("pct exec 214 -- cp")).To(BeFalse())
		Expect(ran("pct exec 214 -- tee")).To(BeFalse())
	})

	It("should clean up the temp file and never rename when staging fails", func() {
		gw.Errs = map[string]error{
			"pct exec 214 -- tee " + path + ".tmp": gateway.ErrTimeout,
		}

		err := m.WriteContainerConfig(ctx, 214, path, "<Config/>")
		Expect(err).To(MatchError(gateway.ErrTimeout))
		Expect(ran("pct exec 214 -- mv")).To(BeFalse())
		Expect(ran("pct exec 214 -- rm -f " + path + ".tmp")).To(BeTrue())
	})

	It("should clean up the temp file when the rename fails", func() {
		gw.Errs = map[string]error{
			"pct exec 214 -- mv " + path + ".tmp": &gateway.CommandError{ExitCode: 1, Output: "read-only file system"},
		}

		err := m.WriteContainerConfig(ctx, 214, path, "<Config/>")
		Expect(err).To(HaveOccurred())
		Expect(ran("pct exec 214 -- rm -f " + path + ".tmp")).To(BeTrue())
	})

	It("should skip the backup for a brand-new file", func() {
		gw.Errs = map[string]error{
			"pct exec 214 -- test -f " + path: &gateway.CommandError{ExitCode: 1},
		}

		Expect(m.WriteContainerConfig(ctx, 214, path, "<Config/>")).To(Succeed())
		Expect(ran("pct exec 214 -- cp")).To(BeFalse())
		Expect(ran("pct exec 214 -- mv " + path + ".tmp " + path)).To(BeTrue())
	})

	It("should reject an uncataloged id before locking or probing", func() {
		err := m.WriteContainerConfig(ctx, 999, path, "<Config/>")
		Expect(err).To(MatchError(catalog.ErrNotFound))
		Expect(gw.CallCount()).To(Equal(0))
	})
})
