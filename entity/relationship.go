package entity

import "time"

// Stages a blind match progresses through. The stage only ever moves forward.
const (
	StageAnonymousChat = 1
	StageVoiceExchange = 2
	StageReveal        = 3
	StageBondedDate    = 4
)

// Bond-score thresholds at which the stage advances.
const (
	BondForVoice  = 25
	BondForReveal = 50
	BondForDate   = 75
)

type Relationship struct {
	ID         string     `json:"id" gorm:"primaryKey;size:64"`
	UserAID    string     `json:"-" gorm:"index;size:64"`
	UserBID    string     `json:"-" gorm:"index;size:64"`
	AliasA     string     `json:"-" gorm:"size:64"`
	AliasB     string     `json:"-" gorm:"size:64"`
	Stage      int        `json:"stage"`
	BondScore  int        `json:"bond_score"`
	RevealedAt *time.Time `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// RevealConsent records one participant's reveal request. At most one row per
// (relationship, user); two rows plus stage >= Reveal flips the relationship
// to revealed.
type RevealConsent struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	RelationshipID string    `json:"relationship_id" gorm:"index;size:64;uniqueIndex:idx_reveal_rel_user"`
	UserID         string    `json:"user_id" gorm:"size:64;uniqueIndex:idx_reveal_rel_user"`
	CreatedAt      time.Time `json:"created_at"`
}

func (r *Relationship) Revealed() bool { return r.RevealedAt != nil }

// CounterpartID returns the other participant's user id, or "" if userID is
// not a participant.
func (r *Relationship) CounterpartID(userID string) string {
	switch userID {
	case r.UserAID:
		return r.UserBID
	case r.UserBID:
		return r.UserAID
	}
	return ""
}

// AliasFor returns the anonymous name shown *for* the given user to their
// counterpart.
func (r *Relationship) AliasFor(userID string) string {
	switch userID {
	case r.UserAID:
		return r.AliasA
	case r.UserBID:
		return r.AliasB
	}
	return ""
}

// RelationshipView is the per-participant snapshot served by the API. Before
// reveal only the counterpart's alias is present; after reveal the counterpart
// user id is included so the client can resolve the public profile.
type RelationshipView struct {
	ID                string    `json:"id"`
	Stage             int       `json:"stage"`
	BondScore         int       `json:"bond_score"`
	TheirAlias        string    `json:"their_alias"`
	Revealed          bool      `json:"revealed"`
	RevealRequested   bool      `json:"reveal_requested"`
	CounterpartUserID string    `json:"counterpart_user_id,omitempty"`
	LastMessage       string    `json:"last_message,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// Reveal request outcomes returned to the caller.
const (
	RevealWaiting  = "waiting"
	RevealRevealed = "revealed"
)
