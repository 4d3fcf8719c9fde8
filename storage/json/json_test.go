package json_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	storejson "github.com/projecteru2/fleetd/storage/json"
)

type payload struct {
	Names []string       `json:"names"`
	Index map[string]int `json:"index"`
}

func (p *payload) Init() {
	if p.Index == nil {
		p.Index = make(map[string]int)
	}
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		store *storejson.Store[payload]
		file  string
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir := GinkgoT().TempDir()
		file = filepath.Join(dir, "data.json")
		store = storejson.New[payload](filepath.Join(dir, "data.lock"), file)
	})

	It("should present a zero value for a missing file", func() {
		err := store.With(ctx, func(p *payload) error {
			Expect(p.Names).To(BeEmpty())
			Expect(p.Index).NotTo(BeNil()) // Init ran
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should persist updates and read them back", func() {
		Expect(store.Update(ctx, func(p *payload) error {
			p.Names = append(p.Names, "sonarr")
			p.Index["sonarr"] = 214
			return nil
		})).To(Succeed())

		err := store.With(ctx, func(p *payload) error {
			Expect(p.Names).To(Equal([]string{"sonarr"}))
			Expect(p.Index["sonarr"]).To(Equal(214))
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("should not write when the update fn fails", func() {
		Expect(store.Update(ctx, func(p *payload) error {
			p.Names = append(p.Names, "radarr")
			return os.ErrPermission
		})).To(MatchError(os.ErrPermission))

		_, err := os.Stat(file)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("should fail on a corrupt file", func() {
		Expect(os.WriteFile(file, []byte("{not json"), 0o600)).To(Succeed())
		err := store.With(ctx, func(*payload) error { return nil })
		Expect(err).To(HaveOccurred())
	})
})
