// Package gather defines the contracts between the flow session core and the
// external page gatherers: the gather modes, the artifact bundle each step
// produces, and the collaborator interfaces the session drives. The gathering
// itself (driving the browser, collecting protocol data) lives behind these
// interfaces and is not implemented here.
package gather

import (
	"encoding/json"
	"time"
)

// Mode discriminates the three kinds of gather steps.
type Mode string

const (
	ModeNavigation Mode = "navigation"
	ModeTimespan   Mode = "timespan"
	ModeSnapshot   Mode = "snapshot"
)

// Valid reports whether m is one of the known gather modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeNavigation, ModeTimespan, ModeSnapshot:
		return true
	}
	return false
}

// Context records how a step's artifacts were gathered.
type Context struct {
	GatherMode Mode `json:"gatherMode"`
}

// URLInfo carries the resolved URLs for a gather step. FinalDisplayedURL is
// always present and is what display names and flow names derive from.
type URLInfo struct {
	RequestedURL      string `json:"requestedUrl,omitempty"`
	MainDocumentURL   string `json:"mainDocumentUrl,omitempty"`
	FinalDisplayedURL string `json:"finalDisplayedUrl"`
}

// Artifacts is the raw, unscored output of one gather step. Payload is
// whatever the gatherer collected; the session core never looks inside it.
type Artifacts struct {
	GatherContext Context         `json:"GatherContext"`
	URL           URLInfo         `json:"URL"`
	FetchTime     time.Time       `json:"fetchTime"`
	UserAgent     string          `json:"userAgent,omitempty"`
	Payload       json.RawMessage `json:"payload,omitempty"`
}

// Mode returns the gather mode recorded in the artifacts. Nil-safe.
func (a *Artifacts) Mode() Mode {
	if a == nil {
		return ""
	}
	return a.GatherContext.GatherMode
}
