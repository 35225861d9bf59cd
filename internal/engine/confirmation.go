package engine

import (
    "strings"

    "github.com/google/uuid"
)

// ConfirmationNumbers produces unique, human-presentable reservation
// identifiers: a domain prefix, a compact UTC timestamp and an 8-character
// random suffix taken from a fresh UUID.  The suffix alone carries 32 bits
// of randomness and the ledger enforces uniqueness as a hard constraint;
// the booking path retries generation on the (practically never seen)
// collision.
type ConfirmationNumbers struct {
    prefix string
    clock  Clock
}

// NewConfirmationNumbers returns a generator with the given prefix, e.g.
// "RES" yields numbers like RES-20240210T1500-4F9A1C2B.
func NewConfirmationNumbers(prefix string, clock Clock) *ConfirmationNumbers {
    if prefix == "" {
        prefix = "RES"
    }
    return &ConfirmationNumbers{prefix: prefix, clock: clock}
}

// Generate returns a fresh confirmation number.
func (g *ConfirmationNumbers) Generate() string {
    ts := g.clock.Now().UTC().Format("20060102T1504")
    raw := strings.ReplaceAll(uuid.NewString(), "-", "")
    return g.prefix + "-" + ts + "-" + strings.ToUpper(raw[:8])
}
