// Package symbol resolves display names for instruments.
//
// Derivative contracts arrive from symbol search with machine symbols like
// "NIFTY15MAR2421500CE"; the resolver formats them into the human-readable
// convention the dashboard renders ("NIFTY 15 MAR 21500 CALL"). Equities
// and indices pass through unchanged.
package symbol

import (
	"math"
	"strconv"
	"strings"

	"github.com/jeso2410/papertrade-frontend/internal/model"
)

// Resolve returns the display name for an instrument. It is a total
// function: any metadata, however sparse, yields a string.
//
// Priority:
//  1. expiry + positive strike  → "{name} {day} {month} {strike} {CALL|PUT}"
//  2. expiry only               → "{name} {day} {month} FUT"
//  3. otherwise                 → raw symbol
func Resolve(meta model.InstrumentMetadata) string {
	if meta.Expiry != "" && meta.Strike > 0 {
		side := ""
		if strings.HasSuffix(meta.Symbol, "CE") {
			side = "CALL"
		} else if strings.HasSuffix(meta.Symbol, "PE") {
			side = "PUT"
		}
		strike := strconv.FormatInt(int64(math.Trunc(meta.Strike)), 10)
		return meta.Name + " " + expiryDay(meta.Expiry) + " " + expiryMonth(meta.Expiry) + " " + strike + " " + side
	}

	if meta.Expiry != "" {
		return meta.Name + " " + expiryDay(meta.Expiry) + " " + expiryMonth(meta.Expiry) + " FUT"
	}

	return meta.Symbol
}

// expiryDay returns the day component of an expiry code like "15MAR24".
func expiryDay(expiry string) string {
	return clip(expiry, 0, 2)
}

// expiryMonth returns the month component of an expiry code.
func expiryMonth(expiry string) string {
	return clip(expiry, 2, 5)
}

// clip slices [from, to) without panicking on short inputs.
func clip(s string, from, to int) string {
	if from > len(s) {
		return ""
	}
	if to > len(s) {
		to = len(s)
	}
	return s[from:to]
}
