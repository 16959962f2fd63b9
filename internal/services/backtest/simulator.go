// Package backtest replays journal trades against forward bars.
package backtest

import (
	"ICTWatch/internal/domain/models"
)

// Position slices taken at each tier. T3 and T4 share the runner slice.
const (
	T1Size     = 0.5
	T2Size     = 0.25
	RunnerSize = 0.25

	sizeEpsilon = 1e-6
)

// ProfitR is the move from entry to price in units of initial risk, signed
// for the trade direction. Zero-risk trades return 0.
func ProfitR(tr models.Trade, price float64) float64 {
	r := tr.Risk()
	if r <= 0 {
		return 0
	}
	if tr.IsLong() {
		return (price - tr.Entry) / r
	}
	return (tr.Entry - price) / r
}

type position struct {
	tr        models.Trade
	long      bool
	remaining float64
	stop      float64
	breakeven bool
	t1, t2    bool
	runner    bool
	res       models.BacktestResult
}

func (p *position) touched(c models.Candle, level float64) bool {
	if p.long {
		return c.High >= level
	}
	return c.Low <= level
}

func (p *position) stopped(c models.Candle) bool {
	if p.long {
		return c.Low <= p.stop
	}
	return c.High >= p.stop
}

func (p *position) exit(price, size float64, tag string) {
	p.res.RealizedR += ProfitR(p.tr, price) * size
	p.remaining -= size
	p.res.Closed += size
	if tag != "" {
		p.res.HitSeq = append(p.res.HitSeq, tag)
	}
}

// Simulate walks candles in order. Each bar checks the stop before any
// target, so a bar that spans both is a loss on whatever is still open. T1
// closes half and moves the stop to entry, T2 closes a quarter, and the last
// quarter goes to T3 or T4, whichever is touched first (T4 when both touch
// on the same bar). Size left when candles run out is marked at the last close.
func Simulate(tr models.Trade, candles []models.Candle) models.BacktestResult {
	p := &position{tr: tr, long: tr.IsLong(), remaining: 1, stop: tr.Stop}
	p.res.HitSeq = []string{}
	if len(candles) == 0 {
		return p.res
	}

	for _, c := range candles {
		p.res.LastTime = c.Time

		if p.stopped(c) {
			p.exit(p.stop, p.remaining, "")
			p.res.StopHit = true
			return p.res
		}

		if !p.t1 && p.touched(c, tr.Targets[0]) {
			p.t1 = true
			p.exit(tr.Targets[0], T1Size, "T1")
			if !p.breakeven {
				p.stop = tr.Entry
				p.breakeven = true
			}
		}
		if !p.t2 && p.remaining > sizeEpsilon && p.touched(c, tr.Targets[1]) {
			p.t2 = true
			p.exit(tr.Targets[1], T2Size, "T2")
		}
		if !p.runner && p.remaining > sizeEpsilon {
			hit3, hit4 := p.touched(c, tr.Targets[2]), p.touched(c, tr.Targets[3])
			switch {
			case hit4:
				p.runner = true
				p.exit(tr.Targets[3], RunnerSize, "T4")
			case hit3:
				p.runner = true
				p.exit(tr.Targets[2], RunnerSize, "T3")
			}
		}

		if p.remaining <= sizeEpsilon {
			return p.res
		}
	}

	last := candles[len(candles)-1]
	p.exit(last.Close, p.remaining, "")
	return p.res
}
