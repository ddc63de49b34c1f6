package thermal

import (
	"math"
	"testing"
)

func TestClassify(t *testing.T) {
	const maxTemp = 150.0

	tests := []struct {
		name string
		temp float64
		want WarningLevel
	}{
		{"cold", 25, WarningNone},
		{"just below overheat", 74.9, WarningNone},
		{"overheat boundary", 75, WarningLow},
		{"exactly 0.80", 120, WarningMedium},
		{"0.8999", 0.8999 * maxTemp, WarningMedium},
		{"exactly 0.90", 135, WarningHigh},
		{"exactly 0.95", 142.5, WarningCritical},
		{"past max", 200, WarningCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.temp, maxTemp, OverheatRatio); got != tt.want {
				t.Errorf("Classify(%g) = %s, want %s", tt.temp, got, tt.want)
			}
		})
	}
}

func TestClassify_NoMaxTemperature(t *testing.T) {
	if got := Classify(1000, 0, OverheatRatio); got != WarningNone {
		t.Errorf("expected none without a max temperature, got %s", got)
	}
}

func TestShouldFail(t *testing.T) {
	if ShouldFail(150, 150, OverheatRatio) {
		t.Error("at exactly max temperature should not fail")
	}
	if !ShouldFail(150.01, 150, OverheatRatio) {
		t.Error("above max temperature should fail")
	}
	if ShouldFail(500, 150, 5) {
		t.Error("should not fail when not overheating by ratio")
	}
}

func TestStep(t *testing.T) {
	p := Params{Resistance: 10, Capacity: 2}

	// 5 W into 2 J/°C for 0.1 s at ambient: +0.25 °C
	got := Step(25, 25, 5, p, 0.1)
	if math.Abs(got-25.25) > 1e-12 {
		t.Errorf("expected 25.25, got %f", got)
	}

	// cooling with no generation: 75 °C -> dissipates 5 W
	got = Step(75, 25, 0, p, 0.1)
	if math.Abs(got-74.75) > 1e-12 {
		t.Errorf("expected 74.75, got %f", got)
	}

	// large step would overshoot below ambient
	if got := Step(30, 25, 0, p, 100); got != 25 {
		t.Errorf("expected clamp at ambient, got %f", got)
	}

	if got := Step(20, 25, 0, p, 0.1); got != 25 {
		t.Errorf("expected temperature raised to ambient, got %f", got)
	}

	if got := Step(40, 25, 3, Params{}, 0.1); got != 40 {
		t.Errorf("expected unchanged with zero capacity, got %f", got)
	}
}

func TestStep_ConvergesToSteadyState(t *testing.T) {
	p := Params{Resistance: 50, Capacity: 0.5}
	temp := 25.0
	for i := 0; i < 20000; i++ {
		temp = Step(temp, 25, 0.1, p, 0.1)
	}
	want := SteadyState(25, 0.1, 50)
	if math.Abs(temp-want) > 1e-6 {
		t.Errorf("expected steady state %f, got %f", want, temp)
	}
}

func TestHeat(t *testing.T) {
	if q := HeatGeneration(-2, 3); q != 12 {
		t.Errorf("expected 12 W, got %f", q)
	}
	if q := HeatDissipation(35, 25, 0); q != 0 {
		t.Errorf("expected 0 W with no thermal path, got %f", q)
	}
	if q := HeatDissipation(35, 25, 5); q != 2 {
		t.Errorf("expected 2 W, got %f", q)
	}
}

func TestRank(t *testing.T) {
	levels := []WarningLevel{WarningNone, WarningLow, WarningMedium, WarningHigh, WarningCritical}
	for i, l := range levels {
		if l.Rank() != i {
			t.Errorf("%s: expected rank %d, got %d", l, i, l.Rank())
		}
	}
}
