package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/emsim/internal/catalog"
	"github.com/san-kum/emsim/internal/circuit"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/thermal"
)

var _ = Describe("Engine lifecycle", func() {
	var (
		engine *sim.Engine
		load   *circuit.Component
	)

	build := func(resistance float64) {
		engine = sim.New(catalog.Default(), "lifecycle", circuit.DefaultSettings())
		src, ok := engine.AddComponent(catalog.DCSource, circuit.Position{})
		Expect(ok).To(BeTrue())
		load, ok = engine.AddComponent(catalog.Resistor, circuit.Position{X: 100})
		Expect(ok).To(BeTrue())
		gnd, ok := engine.AddComponent(catalog.Ground, circuit.Position{Y: 100})
		Expect(ok).To(BeTrue())

		Expect(engine.UpdateComponent(load.ID, map[string]any{"resistance": resistance})).To(BeTrue())
		_, ok = engine.AddWire(src.ID, "positive", load.ID, "a")
		Expect(ok).To(BeTrue())
		_, ok = engine.AddWire(load.ID, "b", src.ID, "negative")
		Expect(ok).To(BeTrue())
		_, ok = engine.AddWire(src.ID, "negative", gnd.ID, "gnd")
		Expect(ok).To(BeTrue())
	}

	Context("before start", func() {
		BeforeEach(func() { build(1000) })

		It("ignores steps", func() {
			engine.Step(0.1)
			Expect(engine.State().StepCount).To(BeZero())
			Expect(load.Runtime.Temperature).To(Equal(25.0))
		})

		It("starts a valid circuit", func() {
			Expect(engine.Start()).To(BeTrue())
			Expect(engine.State().Running).To(BeTrue())
			Expect(engine.State().Errors).To(BeEmpty())
		})
	})

	Context("with an overloaded resistor", func() {
		BeforeEach(func() {
			build(10)
			Expect(engine.Start()).To(BeTrue())
		})

		stepUntilFailed := func() {
			for i := 0; i < 500 && !load.Runtime.Failed; i++ {
				engine.Step(0.1)
			}
		}

		It("escalates warnings before failing", func() {
			seen := map[thermal.WarningLevel]bool{}
			for i := 0; i < 500 && !load.Runtime.Failed; i++ {
				engine.Step(0.1)
				seen[load.Runtime.Warning] = true
			}
			Expect(load.Runtime.Failed).To(BeTrue())
			Expect(seen).To(HaveKey(thermal.WarningLow))
			Expect(seen).To(HaveKey(thermal.WarningMedium))
			Expect(seen).To(HaveKey(thermal.WarningHigh))
			Expect(seen).To(HaveKey(thermal.WarningCritical))
		})

		It("keeps the failure while cooling", func() {
			stepUntilFailed()
			Expect(load.Runtime.FailureKind).To(Equal(thermal.FailureThermal))

			for i := 0; i < 2000; i++ {
				engine.Step(0.1)
				Expect(load.Runtime.Failed).To(BeTrue())
			}
			Expect(load.Runtime.Temperature).To(BeNumerically("<", 100))
			Expect(engine.Validate().Warnings).To(ContainElement(ContainSubstring("has failed")))
		})

		It("clears everything on reset", func() {
			stepUntilFailed()
			engine.Reset()

			Expect(load.Runtime.Failed).To(BeFalse())
			Expect(load.Runtime.FailureKind).To(Equal(thermal.FailureNone))
			Expect(load.Runtime.Warning).To(Equal(thermal.WarningNone))
			Expect(load.Runtime.Temperature).To(Equal(25.0))
			Expect(load.Runtime.Current).To(BeZero())
			Expect(engine.State()).To(Equal(sim.State{}))
		})

		It("stops advancing after stop", func() {
			engine.Step(0.1)
			engine.Stop()
			engine.Step(0.1)
			Expect(engine.State().StepCount).To(Equal(1))
			Expect(engine.State().ElapsedTime).To(BeNumerically("~", 0.1, 1e-12))
		})
	})

	DescribeTable("warning classification at the material limit",
		func(ratio float64, want thermal.WarningLevel) {
			Expect(thermal.Classify(ratio*150, 150, thermal.OverheatRatio)).To(Equal(want))
		},
		Entry("0.50 is low", 0.50, thermal.WarningLow),
		Entry("0.80 is medium", 0.80, thermal.WarningMedium),
		Entry("0.8999 is medium", 0.8999, thermal.WarningMedium),
		Entry("0.90 is high", 0.90, thermal.WarningHigh),
		Entry("0.95 is critical", 0.95, thermal.WarningCritical),
	)
})
