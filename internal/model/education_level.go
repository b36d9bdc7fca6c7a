package model

import (
	"math"
	"strings"
)

// EducationLevel is the coarse grade band used for pricing and reporting.
type EducationLevel string

const (
	LevelElementary EducationLevel = "elementary"
	LevelMiddle     EducationLevel = "middle"
	LevelSecondary  EducationLevel = "secondary"
)

// AllEducationLevels in reporting order.
var AllEducationLevels = []EducationLevel{LevelElementary, LevelMiddle, LevelSecondary}

func (e EducationLevel) Valid() bool {
	return e == LevelElementary || e == LevelMiddle || e == LevelSecondary
}

// NormalizeLevel maps legacy aliases onto canonical levels and falls back to
// elementary for anything unrecognized. Normalizing a canonical value returns
// it unchanged.
func NormalizeLevel(raw string) EducationLevel {
	switch EducationLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelElementary, "primary":
		return LevelElementary
	case LevelMiddle, "preparatory":
		return LevelMiddle
	case LevelSecondary:
		return LevelSecondary
	default:
		return LevelElementary
	}
}

// ParseLevel is the strict variant used on writes: aliases are accepted and
// canonicalized, anything else is rejected instead of defaulting.
func ParseLevel(raw string) (EducationLevel, bool) {
	switch EducationLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case LevelElementary, "primary":
		return LevelElementary, true
	case LevelMiddle, "preparatory":
		return LevelMiddle, true
	case LevelSecondary:
		return LevelSecondary, true
	default:
		return "", false
	}
}

// Round2 rounds to 2 decimal places. All money and hour figures in reports
// go through this.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
