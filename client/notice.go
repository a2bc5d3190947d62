package client

import "time"

// Notice kinds surfaced transiently in the UI.
const (
	NoticeError    = "error"
	NoticeUnlock   = "unlock"
	NoticeCoaching = "coaching"
)

// Notice is a dismissible, auto-expiring user-facing notification. Failed
// requests, stage unlocks and coaching tips all surface as notices; none of
// them mutate relationship or message state.
type Notice struct {
	Kind      string
	Text      string
	ExpiresAt time.Time
}

func (n Notice) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt)
}
