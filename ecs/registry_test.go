package ecs_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zoudehupowersystem/HECS-CPS-Sim/ecs"
)

type position struct {
	X, Y float64
}

type label struct {
	Text string
}

type named interface {
	Name() string
}

type alpha struct{ id int }

func (a *alpha) Name() string { return "alpha" }

type beta struct{ id int }

func (b *beta) Name() string { return "beta" }

var _ = Describe("Registry", func() {
	var registry *ecs.Registry

	BeforeEach(func() {
		registry = ecs.NewRegistry()
	})

	It("should allocate increasing entity ids", func() {
		first := registry.Create()
		second := registry.Create()

		Expect(second).To(BeNumerically(">", first))
	})

	It("should store and retrieve components by type", func() {
		e := registry.Create()
		ecs.Emplace(registry, e, &position{X: 1, Y: 2})
		ecs.Emplace(registry, e, &label{Text: "line"})

		pos, ok := ecs.Get[*position](registry, e)
		Expect(ok).To(BeTrue())
		Expect(pos.X).To(Equal(1.0))

		lbl, ok := ecs.Get[*label](registry, e)
		Expect(ok).To(BeTrue())
		Expect(lbl.Text).To(Equal("line"))
	})

	It("should report missing components", func() {
		e := registry.Create()

		_, ok := ecs.Get[*position](registry, e)
		Expect(ok).To(BeFalse())
	})

	It("should replace a component of the same type", func() {
		e := registry.Create()
		ecs.Emplace(registry, e, &position{X: 1})
		ecs.Emplace(registry, e, &position{X: 9})

		pos, _ := ecs.Get[*position](registry, e)
		Expect(pos.X).To(Equal(9.0))
	})

	It("should iterate components in attachment order", func() {
		e1 := registry.Create()
		e2 := registry.Create()
		e3 := registry.Create()

		ecs.Emplace(registry, e2, &position{X: 2})
		ecs.Emplace(registry, e1, &position{X: 1})
		ecs.Emplace(registry, e3, &position{X: 3})

		seen := []ecs.Entity{}
		ecs.Each(registry, func(_ *position, e ecs.Entity) {
			seen = append(seen, e)
		})

		Expect(seen).To(Equal([]ecs.Entity{e2, e1, e3}))
	})

	It("should iterate by interface across concrete buckets", func() {
		e1 := registry.Create()
		e2 := registry.Create()

		ecs.Emplace(registry, e1, &alpha{id: 1})
		ecs.Emplace(registry, e2, &beta{id: 2})

		names := []string{}
		ecs.Each(registry, func(c named, _ ecs.Entity) {
			names = append(names, c.Name())
		})

		Expect(names).To(Equal([]string{"alpha", "beta"}))
	})
})
