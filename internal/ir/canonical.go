package ir

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CanonicalListing renders an event as the canonical text listing used for
// golden comparison and content hashing.
//
// Canonical means: fixed line format, shortest round-trip float rendering,
// and NFC-normalized text, so that two structurally identical events always
// produce byte-identical listings.
func CanonicalListing(ev *Event) []byte {
	var b strings.Builder

	b.WriteString("event ")
	fmt.Fprintf(&b, "%d %s", ev.ID, ev.Policy)
	if ev.LegacyRestart {
		b.WriteString(" legacy_audit")
	}
	b.WriteByte('\n')

	for i, line := range ev.Lines {
		fmt.Fprintf(&b, "%4d: 0x%04x ", i, uint16(line.Op))
		if line.Negate {
			b.WriteString("NOT ")
		}
		b.WriteString(line.Name)
		fmt.Fprintf(&b, " slot=%d", line.Slot)
		if len(line.Args) > 0 {
			b.WriteString(" args=[")
			for j, a := range line.Args {
				if j > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(Render(a))
			}
			b.WriteByte(']')
		}
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, "slots and=%d or=%d\n", ev.Slots.HighWaterAND, ev.Slots.HighWaterOR)
	for _, u := range ev.Slots.Uses {
		fmt.Fprintf(&b, "use slot=%d kind=%s lines=%d..%d", u.Slot, u.Kind, u.First, u.Last)
		if u.Held {
			b.WriteString(" held")
		}
		b.WriteByte('\n')
	}

	return []byte(norm.NFC.String(b.String()))
}
