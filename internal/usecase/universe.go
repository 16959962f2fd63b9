package usecase

import (
	"os"

	"ICTWatch/pkg/logger"
	"ICTWatch/pkg/util"
)

// UniverseSource resolves the ticker list: the file when set and readable,
// else the configured symbols, else fallback. The result is capped at max.
type UniverseSource struct {
	File     string
	Symbols  []string
	Fallback []string
	Max      int
	Log      *logger.Logger
}

func (u UniverseSource) Load() []string {
	syms := u.fromFile()
	if len(syms) == 0 {
		syms = util.Dedupe(u.Symbols)
	}
	if len(syms) == 0 {
		syms = util.Dedupe(u.Fallback)
	}
	if u.Max > 0 && len(syms) > u.Max {
		syms = syms[:u.Max]
	}
	return syms
}

func (u UniverseSource) fromFile() []string {
	if u.File == "" {
		return nil
	}
	f, err := os.Open(u.File)
	if err != nil {
		u.Log.Warn("universe file unreadable, using defaults", logger.String("file", u.File), logger.Error(err))
		return nil
	}
	defer f.Close()
	syms, err := util.ReadSymbols(f)
	if err != nil {
		u.Log.Warn("universe file parse failed", logger.String("file", u.File), logger.Error(err))
		return nil
	}
	return syms
}
