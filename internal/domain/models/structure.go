package models

import (
	"sort"
	"time"
)

type Direction string

const (
	Bull Direction = "bull"
	Bear Direction = "bear"
)

// SwingPoints holds indices into the bar series that produced them.
type SwingPoints struct {
	Highs []int
	Lows  []int
}

// StructureEvent is a break of structure.
type StructureEvent struct {
	Index        int       `json:"index"`
	Time         time.Time `json:"ts"`
	Direction    Direction `json:"dir"`
	RefIndex     int       `json:"ref_index"`
	RefTime      time.Time `json:"ref"`
	Displacement float64   `json:"displacement"`
}

type ZoneKind string

const (
	ZoneFVG ZoneKind = "fvg"
	ZoneOB  ZoneKind = "ob"
)

// Zone is a fair-value gap or order block price interval.
type Zone struct {
	Kind      ZoneKind  `json:"kind"`
	Direction Direction `json:"dir"`
	Index     int       `json:"index"`
	Time      time.Time `json:"ts"`
	Low       float64   `json:"low"`
	High      float64   `json:"high"`
}

func (z Zone) Mid() float64 { return (z.Low + z.High) / 2 }

// LiquidityLevels are sorted, de-duplicated equal-high and equal-low prices.
type LiquidityLevels struct {
	Highs []float64 `json:"eqh"`
	Lows  []float64 `json:"eql"`
}

// All merges both sides into one sorted set.
func (l LiquidityLevels) All() []float64 {
	seen := make(map[float64]struct{}, len(l.Highs)+len(l.Lows))
	out := make([]float64, 0, len(l.Highs)+len(l.Lows))
	for _, v := range append(append([]float64{}, l.Highs...), l.Lows...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func (l LiquidityLevels) Empty() bool { return len(l.Highs) == 0 && len(l.Lows) == 0 }
