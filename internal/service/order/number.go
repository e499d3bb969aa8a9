package order

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// newOrderNumber composes a human-readable order number from the compact
// date, a rolling timestamp fragment, and a random three-digit suffix, e.g.
// BLM-20260825-104532-917. Collisions are unlikely but not impossible; the
// unique index on orders.number plus the caller's retry loop make them
// harmless.
func newOrderNumber(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = "BLM"
	}
	return fmt.Sprintf("%s-%s-%06d-%03d",
		prefix, now.Format("20060102"), now.Unix()%1_000_000, rand.IntN(1000))
}
