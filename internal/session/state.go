package session

import (
	"time"

	"github.com/wolfeidau/sentiview/internal/models"
)

// Snapshot is an immutable view of the session at one instant.
type Snapshot struct {
	Token   string
	User    *models.User
	Loading bool
}

// IsAuthenticated is true only once startup verification has finished and
// both a token and a user are held.
func (s Snapshot) IsAuthenticated() bool {
	return !s.Loading && s.Token != "" && s.User != nil
}

func (s Snapshot) clone() Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	DiagnosticNoToken            DiagnosticKind = "no_token"
	DiagnosticStoreError         DiagnosticKind = "store_error"
	DiagnosticMalformedToken     DiagnosticKind = "malformed_token"
	DiagnosticTokenExpired       DiagnosticKind = "token_expired"
	DiagnosticProfileFetchFailed DiagnosticKind = "profile_fetch_failed"
	DiagnosticCancelled          DiagnosticKind = "cancelled"
	DiagnosticVerified           DiagnosticKind = "verified"
	DiagnosticLogoutNotifyFailed DiagnosticKind = "logout_notify_failed"
)

// Diagnostic reports a failure the manager recovered from locally.
// Startup verification never returns an error; it emits one of these instead.
type Diagnostic struct {
	Kind        DiagnosticKind
	Err         error
	Fingerprint string
	At          time.Time
}
