package util

import (
	"bufio"
	"io"
	"strconv"
	"strings"
)

// ParseFloat parses a trimmed float; empty or malformed input is not ok.
func ParseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Pick returns the first non-empty value among keys.
func Pick(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(row[k]); v != "" {
			return v
		}
	}
	return ""
}

// ReadSymbols reads one ticker per line. Blank lines and # comments are
// skipped, entries are uppercased and the first occurrence wins.
func ReadSymbols(r io.Reader) ([]string, error) {
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.ToUpper(strings.TrimSpace(sc.Text()))
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, sc.Err()
}

// Dedupe uppercases and removes repeats, keeping order.
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
