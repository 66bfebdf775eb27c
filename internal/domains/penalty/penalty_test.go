package penalty_test

import (
	"parking/config"
	"parking/internal/domains/penalty"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculator_Penalty(t *testing.T) {
	tests := []struct {
		name     string
		calc     penalty.Calculator
		minutes  int
		rate     float64
		member   bool
		expected float64
	}{
		{name: "on time", calc: penalty.Calculator{}, minutes: 0, rate: 50, expected: 0},
		{name: "one minute bills a full hour", calc: penalty.Calculator{}, minutes: 1, rate: 50, expected: 50},
		{name: "exactly one hour", calc: penalty.Calculator{}, minutes: 60, rate: 50, expected: 50},
		{name: "75 minutes bills two hours", calc: penalty.Calculator{}, minutes: 75, rate: 50, expected: 100},
		{name: "inside grace", calc: penalty.Calculator{GraceMinutes: 10}, minutes: 10, rate: 50, expected: 0},
		{name: "past grace bills from minute one", calc: penalty.Calculator{GraceMinutes: 10}, minutes: 11, rate: 50, expected: 50},
		{name: "member billed by default", calc: penalty.Calculator{}, minutes: 30, rate: 20, member: true, expected: 20},
		{name: "member exempt", calc: penalty.Calculator{ExemptMembers: true}, minutes: 30, rate: 20, member: true, expected: 0},
		{name: "visitor not exempt", calc: penalty.Calculator{ExemptMembers: true}, minutes: 30, rate: 20, expected: 20},
		{name: "fractional rate rounded", calc: penalty.Calculator{}, minutes: 121, rate: 12.333, expected: 37},
		{name: "free organization", calc: penalty.Calculator{}, minutes: 500, rate: 0, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.calc.Penalty(tt.minutes, tt.rate, tt.member), 0.001)
		})
	}
}

func TestCalculator_PenaltyIsMonotone(t *testing.T) {
	calc := penalty.Calculator{GraceMinutes: 5}
	previous := 0.0

	for minutes := 0; minutes <= 24*60; minutes++ {
		current := calc.Penalty(minutes, 37.5, false)

		assert.GreaterOrEqual(t, current, previous, "penalty dropped at %d minutes", minutes)

		previous = current
	}
}

func TestCalculator_OverstayMinutes(t *testing.T) {
	calc := penalty.Calculator{}
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, calc.OverstayMinutes(end, end))
	assert.Equal(t, 0, calc.OverstayMinutes(end, end.Add(-time.Minute)))
	assert.Equal(t, 1, calc.OverstayMinutes(end, end.Add(time.Second)))
	assert.Equal(t, 75, calc.OverstayMinutes(end, end.Add(75*time.Minute)))
	assert.Equal(t, 76, calc.OverstayMinutes(end, end.Add(75*time.Minute+time.Second)))
}

func TestNew(t *testing.T) {
	cfg := &config.Config{}
	cfg.Penalty.GraceMinutes = -3
	cfg.Penalty.ExemptMembers = true

	calc := penalty.New(cfg)

	assert.Equal(t, 0, calc.GraceMinutes)
	assert.True(t, calc.ExemptMembers)
}
