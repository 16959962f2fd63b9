package usecase

import (
	"context"
	"strings"
	"time"

	domrepo "ICTWatch/internal/domain/repository"
	"ICTWatch/pkg/logger"
)

// Sector is an SPDR sector ETF and its short label.
type Sector struct {
	Symbol string
	Label  string
}

var Sectors = []Sector{
	{"XLC", "CommSvcs"},
	{"XLY", "Disc"},
	{"XLP", "Staples"},
	{"XLE", "Energy"},
	{"XLF", "Fin"},
	{"XLV", "Health"},
	{"XLI", "Indust"},
	{"XLB", "Mat"},
	{"XLRE", "RE"},
	{"XLK", "Tech"},
	{"XLU", "Utils"},
}

const sectorThreshold = 0.003

// SectorBoard renders the one-line sector breadth summary.
type SectorBoard struct {
	md  domrepo.MarketData
	log *logger.Logger
	now func() time.Time
}

func NewSectorBoard(md domrepo.MarketData, log *logger.Logger) *SectorBoard {
	return &SectorBoard{md: md, log: log.With("sectors"), now: time.Now}
}

// Line compares the last two daily closes of each sector ETF. Missing data
// renders as "·".
func (b *SectorBoard) Line(ctx context.Context) string {
	now := b.now()
	parts := make([]string, 0, len(Sectors))
	for _, s := range Sectors {
		bars, err := b.md.FetchBars(ctx, s.Symbol, domrepo.TF1d, now.AddDate(0, 0, -15), now)
		if err != nil {
			b.log.Debug("sector fetch failed", logger.String("symbol", s.Symbol), logger.Error(err))
			parts = append(parts, s.Label+"·")
			continue
		}
		closes := make([]float64, 0, len(bars))
		for _, bar := range bars {
			if bar.Close > 0 {
				closes = append(closes, bar.Close)
			}
		}
		parts = append(parts, s.Label+SectorArrow(closes))
	}
	return "Sectors: " + strings.Join(parts, "  ")
}

// SectorArrow is ↑ above +0.3%, ↓ below -0.3%, – otherwise and · without two closes.
func SectorArrow(closes []float64) string {
	if len(closes) < 2 {
		return "·"
	}
	prev, last := closes[len(closes)-2], closes[len(closes)-1]
	pct := last/prev - 1
	switch {
	case pct > sectorThreshold:
		return "↑"
	case pct < -sectorThreshold:
		return "↓"
	}
	return "–"
}
