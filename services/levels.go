package services

import (
	"fmt"
	"math"
	"sort"
)

// LevelTable resolves levels from cumulative XP. Thresholds[N-1] is the XP at which
// level N is reached; past the table every level costs Increment more.
type LevelTable struct {
	Thresholds []int64
	Increment  int64
}

// Progress is the position of a user inside their current level.
type Progress struct {
	Current    int64 `json:"current"`
	Required   int64 `json:"required"`
	Percentage int   `json:"percentage"`
}

var defaultLevels = LevelTable{Thresholds: DefaultLevelThresholds, Increment: DefaultLevelIncrement}

func (t LevelTable) Validate() error {
	if len(t.Thresholds) == 0 {
		return fmt.Errorf("level table is empty")
	}
	if t.Thresholds[0] != 0 {
		return fmt.Errorf("level 1 must start at 0 XP, got %d", t.Thresholds[0])
	}
	for i := 1; i < len(t.Thresholds); i++ {
		if t.Thresholds[i] <= t.Thresholds[i-1] {
			return fmt.Errorf("level thresholds must be strictly increasing (level %d)", i+1)
		}
	}
	if t.Increment <= 0 {
		return fmt.Errorf("level increment must be positive")
	}
	return nil
}

// Threshold returns the XP at which level is reached, saturating at math.MaxInt64.
func (t LevelTable) Threshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := len(t.Thresholds)
	if level <= n {
		return t.Thresholds[level-1]
	}
	last := t.Thresholds[n-1]
	steps := int64(level - n)
	if steps > (math.MaxInt64-last)/t.Increment {
		return math.MaxInt64
	}
	return last + steps*t.Increment
}

// CalculateLevel picks the highest level whose threshold xp meets. Never below 1.
func (t LevelTable) CalculateLevel(xp int64) int {
	if xp <= 0 {
		return 1
	}
	n := len(t.Thresholds)
	last := t.Thresholds[n-1]
	if xp >= last {
		return n + int((xp-last)/t.Increment)
	}
	// index of the first threshold above xp == highest level reached
	level := sort.Search(n, func(i int) bool { return t.Thresholds[i] > xp })
	return max(level, 1)
}

// XPForNextLevel returns the threshold of level+1.
func (t LevelTable) XPForNextLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return t.Threshold(level + 1)
}

func (t LevelTable) XPProgress(xp int64, level int) Progress {
	if level < 1 {
		level = 1
	}
	base := t.Threshold(level)
	required := t.Threshold(level+1) - base
	current := xp - base

	pct := 0
	switch {
	case required <= 0 || current <= 0:
	case current <= math.MaxInt64/100:
		pct = int(current * 100 / required)
	default:
		pct = int(float64(current) / float64(required) * 100)
	}
	return Progress{Current: current, Required: required, Percentage: min(max(pct, 0), 100)}
}

// CalculateLevel resolves xp against the built-in level table.
func CalculateLevel(xp int64) int { return defaultLevels.CalculateLevel(xp) }

// XPForNextLevel returns the built-in threshold of level+1.
func XPForNextLevel(level int) int64 { return defaultLevels.XPForNextLevel(level) }

// XPProgress reports progress within level against the built-in table.
func XPProgress(xp int64, level int) Progress { return defaultLevels.XPProgress(xp, level) }
