package utils_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/projecteru2/fleetd/utils"
)

var _ = Describe("AtomicWriteJSON", func() {
	It("should write valid JSON and leave no temp files behind", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "data.json")

		Expect(utils.AtomicWriteJSON(path, map[string]int{"sonarr": 214})).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"sonarr": 214`))

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("should replace an existing file in place", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "data.json")
		Expect(utils.AtomicWriteJSON(path, map[string]int{"v": 1})).To(Succeed())
		Expect(utils.AtomicWriteJSON(path, map[string]int{"v": 2})).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"v": 2`))
	})
})

var _ = Describe("EnsureDirs", func() {
	It("should create nested directories and tolerate existing ones", func() {
		dir := filepath.Join(GinkgoT().TempDir(), "a", "b", "c")
		Expect(utils.EnsureDirs(dir)).To(Succeed())
		Expect(utils.EnsureDirs(dir)).To(Succeed())

		info, err := os.Stat(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
	})
})

var _ = Describe("WaitFor", func() {
	It("should return once the check succeeds", func() {
		calls := 0
		err := utils.WaitFor(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
			calls++
			return calls >= 3, nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(3))
	})

	It("should stop on a check error", func() {
		boom := errors.New("boom")
		err := utils.WaitFor(context.Background(), time.Second, time.Millisecond, func() (bool, error) {
			return false, boom
		})
		Expect(err).To(MatchError(boom))
	})

	It("should time out when the check never succeeds", func() {
		err := utils.WaitFor(context.Background(), 10*time.Millisecond, time.Millisecond, func() (bool, error) {
			return false, nil
		})
		Expect(err).To(HaveOccurred())
	})

	It("should honour context cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := utils.WaitFor(ctx, time.Second, time.Millisecond, func() (bool, error) {
			return false, nil
		})
		Expect(err).To(MatchError(context.Canceled))
	})
})
