package billing

import (
	"fmt"
	"math/rand"
	"time"
)

// NumberFor builds an invoice number like FACT-20251115-0423. The suffix is
// random, so collisions within a day are possible; the factory retries with a
// fresh number until the insert lands.
func NumberFor(t time.Time) string {
	return fmt.Sprintf("FACT-%s-%04d", t.Format("20060102"), rand.Intn(10000))
}
