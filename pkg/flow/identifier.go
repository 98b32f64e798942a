package flow

import (
	cryptorand "crypto/rand"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var flowIDSanitizer = regexp.MustCompile(`[^a-zA-Z0-9\-]`)

// ulidEntropy is shared across sessions; locked because callers may build
// sessions from multiple goroutines.
var ulidEntropy = &ulid.LockedMonotonicReader{
	MonotonicReader: ulid.Monotonic(cryptorand.Reader, 0),
}

// newFlowID returns a unique flow identifier derived from the given base
// name, for logs, traces, and telemetry correlation.
func newFlowID(base string) string {
	base = strings.TrimSpace(base)
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))
	base = flowIDSanitizer.ReplaceAllString(base, "-")
	base = strings.Trim(base, "-")
	if base == "" {
		base = "flow"
	}

	id := ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy).String()
	return fmt.Sprintf("%s-%s", base, strings.ToLower(id))
}
