package ssh_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/projecteru2/fleetd/gateway/ssh"
	"github.com/projecteru2/fleetd/types"
)

var _ = Describe("ParseStatus", func() {
	It("should recognise running", func() {
		Expect(ssh.ParseStatus("status: running\n")).To(Equal(types.StatusRunning))
	})

	It("should recognise stopped", func() {
		Expect(ssh.ParseStatus("status: stopped\n")).To(Equal(types.StatusStopped))
	})

	It("should fall back to Unknown, never Stopped", func() {
		Expect(ssh.ParseStatus("")).To(Equal(types.StatusUnknown))
		Expect(ssh.ParseStatus("status: suspended\n")).To(Equal(types.StatusUnknown))
		Expect(ssh.ParseStatus("garbage")).To(Equal(types.StatusUnknown))
	})
})
