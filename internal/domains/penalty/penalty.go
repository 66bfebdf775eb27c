// Package penalty prices overstays.
package penalty

import (
	"math"
	"parking/config"
	"parking/shared"
	"parking/shared/constant"
	"time"
)

// Calculator bills every started hour of overstay at the hourly rate once the
// overstay exceeds GraceMinutes.
type Calculator struct {
	GraceMinutes  int
	ExemptMembers bool
}

func New(cfg *config.Config) Calculator {
	return Calculator{
		GraceMinutes:  max(0, cfg.Penalty.GraceMinutes),
		ExemptMembers: cfg.Penalty.ExemptMembers,
	}
}

// OverstayMinutes is ceil((exit - end) / 1m), or 0 for an on-time exit.
func (c Calculator) OverstayMinutes(end, exit time.Time) int {
	if !exit.After(end) {
		return 0
	}

	return int(math.Ceil(exit.Sub(end).Minutes()))
}

// Penalty is monotone in overstayMinutes for a fixed rate.
func (c Calculator) Penalty(overstayMinutes int, hourlyRate float64, member bool) float64 {
	if overstayMinutes <= c.GraceMinutes || hourlyRate <= 0 {
		return 0
	}

	if member && c.ExemptMembers {
		return 0
	}

	hours := (overstayMinutes + constant.MinutesPerHour - 1) / constant.MinutesPerHour

	return shared.RoundMoney(float64(hours) * hourlyRate)
}
