package returns

import (
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"time"
)

const (
	rmaPrefix   = "RMA"
	rmaAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var rmaPattern = regexp.MustCompile(`^RMA[0-9]{8}[A-Z0-9]{4}$`)

// RMAGenerator produces human-facing return references: "RMA", the last eight
// digits of the millisecond clock, then four random uppercase alphanumerics.
type RMAGenerator struct {
	now    func() time.Time
	random io.Reader
}

// NewRMAGenerator creates a generator backed by the wall clock and crypto/rand
func NewRMAGenerator() *RMAGenerator {
	return &RMAGenerator{now: time.Now, random: rand.Reader}
}

// NewRMAGeneratorWith creates a generator with an explicit clock and entropy source
func NewRMAGeneratorWith(now func() time.Time, random io.Reader) *RMAGenerator {
	return &RMAGenerator{now: now, random: random}
}

// Next returns a new RMA number
func (g *RMAGenerator) Next() (string, error) {
	millis := g.now().UnixMilli() % 100_000_000
	buf := make([]byte, 4)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("failed to read RMA entropy: %w", err)
	}
	suffix := make([]byte, len(buf))
	for i, b := range buf {
		suffix[i] = rmaAlphabet[int(b)%len(rmaAlphabet)]
	}
	return fmt.Sprintf("%s%08d%s", rmaPrefix, millis, suffix), nil
}

// IsValidRMANumber reports whether s has the RMA number shape
func IsValidRMANumber(s string) bool {
	return rmaPattern.MatchString(s)
}
