package host_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/projecteru2/fleetd/config"
	"github.com/projecteru2/fleetd/gateway"
	"github.com/projecteru2/fleetd/gateway/gatewaytest"
	"github.com/projecteru2/fleetd/host"
)

func testConfig() *config.Config {
	conf := config.DefaultConfig()
	conf.CallTimeoutSeconds = 1
	conf.ScriptTimeoutSeconds = 1
	return conf
}

var _ = Describe("Info", func() {
	It("should collect node identity, keeping only the first output line", func() {
		gw := &gatewaytest.Fake{Responses: map[string]*gateway.Result{
			"hostname":          {Stdout: "pve\n"},
			"pveversion":        {Stdout: "pve-manager/8.1.4/ec5affc9e41f1d79 (running kernel: 6.5.11-8-pve)\n"},
			"uname -r":          {Stdout: "6.5.11-8-pve\n"},
			"uptime -p":         {Stdout: "up 2 weeks, 3 days\n"},
			"cat /proc/loadavg": {Stdout: "0.42 0.37 0.30 1/480 12345\n"},
		}}

		info := host.New(testConfig(), gw).Info(context.Background())
		Expect(info.Hostname).To(Equal("pve"))
		Expect(info.Kernel).To(Equal("6.5.11-8-pve"))
		Expect(info.Uptime).To(Equal("up 2 weeks, 3 days"))
		Expect(info.LoadAverage).To(Equal("0.42 0.37 0.30 1/480 12345"))
	})

	It("should leave fields empty when probes fail", func() {
		gw := &gatewaytest.Fake{Errs: map[string]error{"": gateway.ErrTimeout}}
		info := host.New(testConfig(), gw).Info(context.Background())
		Expect(info.Hostname).To(BeEmpty())
		Expect(info.PVEVersion).To(BeEmpty())
	})
})

var _ = Describe("ClusterStatus", func() {
	It("should return the tool output even on a standalone node", func() {
		gw := &gatewaytest.Fake{
			Responses: map[string]*gateway.Result{
				"pvecm status": {ExitCode: 2, Stderr: "Error: Corosync config '/etc/pve/corosync.conf' does not exist"},
			},
			Errs: map[string]error{
				"pvecm status": &gateway.CommandError{ExitCode: 2},
			},
		}

		out := host.New(testConfig(), gw).ClusterStatus(context.Background())
		Expect(out).To(ContainSubstring("does not exist"))
	})
})

var _ = Describe("Health", func() {
	It("should aggregate all probes", func() {
		gw := &gatewaytest.Fake{Responses: map[string]*gateway.Result{
			"df -h /": {Stdout: "Filesystem Size Used Avail Use% Mounted on\n/dev/mapper/pve-root 94G 34G 56G 38% /\n"},
			"free -m": {Stdout: "       total  used  free\nMem:   32000  8000  24000\nSwap:   8191     0   8191\n"},
			"uptime":  {Stdout: " 10:02:01 up 16 days,  4:11,  1 user,  load average: 0.52, 0.58, 0.59\n"},
		}}

		health := host.New(testConfig(), gw).Health(context.Background())
		Expect(health.DiskUsage).To(Equal(38.0))
		Expect(health.MemoryUsage).To(Equal(25.0))
		Expect(health.CPULoad).To(Equal(0.52))
		Expect(health.NetworkStatus).To(Equal("Connected"))
		Expect(health.Uptime).To(ContainSubstring("up 16 days"))
	})

	It("should degrade every finding when the gateway is down", func() {
		gw := &gatewaytest.Fake{Errs: map[string]error{"": gateway.ErrTimeout}}

		health := host.New(testConfig(), gw).Health(context.Background())
		Expect(health.DiskUsage).To(BeZero())
		Expect(health.MemoryUsage).To(BeZero())
		Expect(health.CPULoad).To(BeZero())
		Expect(health.NetworkStatus).To(Equal("Unreachable"))
		Expect(health.Uptime).To(Equal("Unknown"))
	})
})

var _ = Describe("Power operations", func() {
	It("should report a successful update with its output", func() {
		gw := &gatewaytest.Fake{Responses: map[string]*gateway.Result{
			"sh -c apt-get update": {Stdout: "0 upgraded, 0 newly installed"},
		}}

		result := host.New(testConfig(), gw).UpdatePackages(context.Background())
		Expect(result.Success).To(BeTrue())
		Expect(result.Output).To(ContainSubstring("0 upgraded"))
		Expect(result.ReportID).NotTo(BeEmpty())
	})

	It("should keep partial output when the update fails", func() {
		gw := &gatewaytest.Fake{
			Responses: map[string]*gateway.Result{
				"sh -c apt-get update": {Stdout: "Hit:1 http://deb.debian.org", Stderr: "E: dpkg was interrupted"},
			},
			Errs: map[string]error{
				"sh -c apt-get update": &gateway.CommandError{ExitCode: 100},
			},
		}

		result := host.New(testConfig(), gw).UpdatePackages(context.Background())
		Expect(result.Success).To(BeFalse())
		Expect(result.Output).To(ContainSubstring("dpkg was interrupted"))
	})

	It("should issue the reboot and poweroff verbs", func() {
		gw := &gatewaytest.Fake{}
		h := host.New(testConfig(), gw)

		Expect(h.Reboot(context.Background()).Success).To(BeTrue())
		Expect(h.Shutdown(context.Background()).Success).To(BeTrue())
		Expect(gw.RunCalls()).To(Equal([][]string{
			{"systemctl", "reboot"},
			{"systemctl", "poweroff"},
		}))
	})
})

var _ = Describe("Parsers", func() {
	It("should parse df output", func() {
		out := "Filesystem Size Used Avail Use% Mounted on\n/dev/sda1 94G 34G 56G 38% /\n"
		Expect(host.ParseDiskUsage(out)).To(Equal(38.0))
		Expect(host.ParseDiskUsage("garbage")).To(BeZero())
	})

	It("should parse free output", func() {
		out := "       total  used  free\nMem:   1000   250   750\n"
		Expect(host.ParseMemoryUsage(out)).To(Equal(25.0))
		Expect(host.ParseMemoryUsage("no mem line")).To(BeZero())
	})

	It("should parse the 1-minute load average", func() {
		out := " 10:02:01 up 16 days, load average: 1.25, 0.58, 0.59"
		Expect(host.ParseLoad(out)).To(Equal(1.25))
		Expect(host.ParseLoad("nothing here")).To(BeZero())
	})
})
