package ir

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefix for content-addressed event identity. Version suffix
// enables future algorithm migration.
const DomainEvent = "evsc/event/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ProgramHash computes the content-addressed hash of a compiled event.
// Two compilations of the same source tree produce the same hash; this is
// the determinism anchor used by the audit ledger and the test suite.
func ProgramHash(ev *Event) string {
	return hashWithDomain(DomainEvent, CanonicalListing(ev))
}
