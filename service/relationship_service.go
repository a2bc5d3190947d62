package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/events"
	"github.com/abeme/go_bm_api/logger"
)

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrNotParticipant       = errors.New("not a participant of this relationship")
	ErrRevealTooEarly       = errors.New("reveal requires stage 2 or later")
)

var aliasAdjectives = []string{
	"Scarlet", "Velvet", "Amber", "Indigo", "Silver", "Crimson", "Golden", "Midnight",
}

var aliasAnimals = []string{
	"Fox", "Sparrow", "Otter", "Lynx", "Heron", "Wolf", "Finch", "Hare",
}

// RelationshipService owns the blind-match lifecycle: creation from mutual
// ratings, bond accrual, staged progression, and the two-phase reveal
// consent protocol. Stage only ever moves forward.
type RelationshipService struct {
	db  *gorm.DB
	bus *events.Bus
	log *logger.Logger
}

func NewRelationshipService(db *gorm.DB, bus *events.Bus, log *logger.Logger) *RelationshipService {
	return &RelationshipService{db: db, bus: bus, log: log}
}

func newAlias() string {
	u := uuid.New()
	adj := aliasAdjectives[int(u[0])%len(aliasAdjectives)]
	animal := aliasAnimals[int(u[1])%len(aliasAnimals)]
	return adj + " " + animal
}

// stageForBond maps a bond score onto the fixed stage ladder.
func stageForBond(bond int) int {
	switch {
	case bond >= entity.BondForDate:
		return entity.StageBondedDate
	case bond >= entity.BondForReveal:
		return entity.StageReveal
	case bond >= entity.BondForVoice:
		return entity.StageVoiceExchange
	default:
		return entity.StageAnonymousChat
	}
}

var stageUnlockNotes = map[int]string{
	entity.StageVoiceExchange: "Voice notes are now unlocked. Hear each other for the first time.",
	entity.StageReveal:        "Your bond is strong enough to reveal. Either of you can request it.",
	entity.StageBondedDate:    "You two are ready to meet in person. Plan your first date!",
}

// Create starts a new anonymous relationship between two mutually matched
// users, with generated aliases and a welcome system message.
func (s *RelationshipService) Create(ctx context.Context, userA, userB string) (*entity.Relationship, error) {
	rel := &entity.Relationship{
		ID:        uuid.NewString(),
		UserAID:   userA,
		UserBID:   userB,
		AliasA:    newAlias(),
		AliasB:    newAlias(),
		Stage:     entity.StageAnonymousChat,
		BondScore: 10,
	}
	if err := s.db.Create(rel).Error; err != nil {
		return nil, err
	}
	welcome := &entity.Message{
		RelationshipID: rel.ID,
		Kind:           entity.MessageSystem,
		Body:           "You've been matched! Chat anonymously and let the bond grow.",
	}
	if err := s.db.Create(welcome).Error; err != nil {
		return nil, err
	}
	s.log.Info("relationship created", "id", rel.ID)
	s.bus.Publish(ctx, events.Event{Kind: events.KindCreated, RelationshipID: rel.ID, Stage: rel.Stage})
	return rel, nil
}

func (s *RelationshipService) get(id string) (*entity.Relationship, error) {
	var rel entity.Relationship
	if err := s.db.Where("id = ?", id).First(&rel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationshipNotFound
		}
		return nil, err
	}
	return &rel, nil
}

// GetForUser loads a relationship and verifies the caller participates.
func (s *RelationshipService) GetForUser(id, userID string) (*entity.Relationship, error) {
	rel, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if rel.CounterpartID(userID) == "" {
		return nil, ErrNotParticipant
	}
	return rel, nil
}

// View builds the per-participant snapshot. Pre-reveal it exposes only the
// counterpart's alias; the counterpart user id is attached once revealed so
// the caller can resolve the public profile.
func (s *RelationshipService) View(rel *entity.Relationship, userID string) (entity.RelationshipView, error) {
	counterpart := rel.CounterpartID(userID)
	var consents int64
	if err := s.db.Model(&entity.RevealConsent{}).
		Where("relationship_id = ? AND user_id = ?", rel.ID, userID).
		Count(&consents).Error; err != nil {
		return entity.RelationshipView{}, err
	}
	v := entity.RelationshipView{
		ID:              rel.ID,
		Stage:           rel.Stage,
		BondScore:       rel.BondScore,
		TheirAlias:      rel.AliasFor(counterpart),
		Revealed:        rel.Revealed(),
		RevealRequested: consents > 0,
		CreatedAt:       rel.CreatedAt,
	}
	if rel.Revealed() {
		v.CounterpartUserID = counterpart
	}
	var last entity.Message
	err := s.db.Where("relationship_id = ?", rel.ID).
		Order("created_at DESC, id DESC").First(&last).Error
	if err == nil {
		v.LastMessage = last.Body
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return entity.RelationshipView{}, err
	}
	return v, nil
}

// ListForUser returns the caller's relationships, newest first.
func (s *RelationshipService) ListForUser(userID string) ([]entity.RelationshipView, error) {
	var rels []entity.Relationship
	if err := s.db.Where("user_a_id = ? OR user_b_id = ?", userID, userID).
		Order("created_at DESC").Find(&rels).Error; err != nil {
		return nil, err
	}
	views := make([]entity.RelationshipView, 0, len(rels))
	for i := range rels {
		v, err := s.View(&rels[i], userID)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// RequestReveal records the caller's consent. Consent is idempotent and
// non-retractable; the relationship reveals only once both participants have
// consented and the stage has reached the reveal stage.
func (s *RelationshipService) RequestReveal(ctx context.Context, relID, userID string) (string, error) {
	rel, err := s.GetForUser(relID, userID)
	if err != nil {
		return "", err
	}
	if rel.Revealed() {
		return entity.RevealRevealed, nil
	}
	if rel.Stage < entity.StageVoiceExchange {
		return "", ErrRevealTooEarly
	}
	if err := s.recordConsent(relID, userID); err != nil {
		return "", err
	}
	revealed, err := s.maybeReveal(ctx, rel)
	if err != nil {
		return "", err
	}
	if revealed {
		return entity.RevealRevealed, nil
	}
	return entity.RevealWaiting, nil
}

// recordConsent inserts the caller's consent row. A concurrent request may
// win the unique index; the duplicate is the same consent, so losing that
// race is still success.
func (s *RelationshipService) recordConsent(relID, userID string) error {
	err := s.db.Create(&entity.RevealConsent{RelationshipID: relID, UserID: userID}).Error
	if err == nil {
		return nil
	}
	var cnt int64
	if err2 := s.db.Model(&entity.RevealConsent{}).
		Where("relationship_id = ? AND user_id = ?", relID, userID).
		Count(&cnt).Error; err2 == nil && cnt > 0 {
		return nil
	}
	return err
}

// maybeReveal flips the relationship to revealed when both consents exist
// and the stage allows it. Called from RequestReveal and from stage advances
// so a pair that consented early reveals as soon as stage 3 arrives.
func (s *RelationshipService) maybeReveal(ctx context.Context, rel *entity.Relationship) (bool, error) {
	if rel.Revealed() || rel.Stage < entity.StageReveal {
		return rel.Revealed(), nil
	}
	var consents int64
	if err := s.db.Model(&entity.RevealConsent{}).
		Where("relationship_id = ?", rel.ID).Count(&consents).Error; err != nil {
		return false, err
	}
	if consents < 2 {
		return false, nil
	}
	now := time.Now()
	rel.RevealedAt = &now
	if err := s.db.Model(&entity.Relationship{}).Where("id = ?", rel.ID).
		Update("revealed_at", &now).Error; err != nil {
		return false, err
	}
	note := &entity.Message{
		RelationshipID: rel.ID,
		Kind:           entity.MessageSystem,
		Body:           "Identities revealed. Say hello for real this time.",
	}
	if err := s.db.Create(note).Error; err != nil {
		return false, err
	}
	if err := s.storeReport(rel); err != nil {
		return false, err
	}
	s.log.Info("relationship revealed", "id", rel.ID)
	s.bus.Publish(ctx, events.Event{Kind: events.KindRevealed, RelationshipID: rel.ID, Stage: rel.Stage})
	return true, nil
}

// RecalcProgress re-derives bond score and stage from the message history.
// Bond grows with mutual exchange: the pair earns credit per message round
// both sides have completed, so one-sided chatter does not advance anything.
func (s *RelationshipService) RecalcProgress(ctx context.Context, relID string) (*entity.Relationship, error) {
	rel, err := s.get(relID)
	if err != nil {
		return nil, err
	}
	var countA, countB int64
	if err := s.db.Model(&entity.Message{}).
		Where("relationship_id = ? AND sender_id = ? AND kind = ?", relID, rel.UserAID, entity.MessageText).
		Count(&countA).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&entity.Message{}).
		Where("relationship_id = ? AND sender_id = ? AND kind = ?", relID, rel.UserBID, entity.MessageText).
		Count(&countB).Error; err != nil {
		return nil, err
	}
	rounds := countA
	if countB < rounds {
		rounds = countB
	}
	bond := 10 + int(rounds)*5
	if bond > 100 {
		bond = 100
	}
	if bond < rel.BondScore {
		// Bond is monotonic; never regress on recalculation.
		bond = rel.BondScore
	}
	newStage := stageForBond(bond)
	if newStage < rel.Stage {
		newStage = rel.Stage
	}
	stageAdvanced := newStage > rel.Stage
	rel.BondScore = bond
	rel.Stage = newStage
	if err := s.db.Model(&entity.Relationship{}).Where("id = ?", relID).
		Updates(map[string]interface{}{"bond_score": bond, "stage": newStage}).Error; err != nil {
		return nil, err
	}
	if stageAdvanced {
		if note, ok := stageUnlockNotes[newStage]; ok {
			sysMsg := &entity.Message{RelationshipID: relID, Kind: entity.MessageSystem, Body: note}
			if err := s.db.Create(sysMsg).Error; err != nil {
				return nil, err
			}
		}
		s.log.Info("stage advanced", "id", relID, "stage", newStage)
		s.bus.Publish(ctx, events.Event{Kind: events.KindStage, RelationshipID: relID, Stage: newStage})
		if _, err := s.maybeReveal(ctx, rel); err != nil {
			return nil, err
		}
	}
	return rel, nil
}

// CanViewProfile reports whether viewer may see target's public profile:
// only through a revealed relationship between the two.
func (s *RelationshipService) CanViewProfile(viewerID, targetID string) (bool, error) {
	if viewerID == targetID {
		return true, nil
	}
	var cnt int64
	err := s.db.Model(&entity.Relationship{}).
		Where("revealed_at IS NOT NULL AND ((user_a_id = ? AND user_b_id = ?) OR (user_a_id = ? AND user_b_id = ?))",
			viewerID, targetID, targetID, viewerID).
		Count(&cnt).Error
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// storeReport computes the compatibility report at reveal time. A concurrent
// reveal may have stored it already; the existing row wins.
func (s *RelationshipService) storeReport(rel *entity.Relationship) error {
	report := &entity.CompatibilityReport{
		RelationshipID: rel.ID,
		Overall:        clampScore(rel.BondScore + 10),
		Emotional:      clampScore(rel.BondScore + 6),
		Communication:  clampScore(rel.BondScore + 12),
		Values:         clampScore(rel.BondScore + 2),
		Attachment:     clampScore(rel.BondScore - 4),
	}
	err := s.db.Create(report).Error
	if err == nil {
		return nil
	}
	var cnt int64
	if err2 := s.db.Model(&entity.CompatibilityReport{}).
		Where("relationship_id = ?", rel.ID).Count(&cnt).Error; err2 == nil && cnt > 0 {
		return nil
	}
	return err
}

// GetReport returns the stored compatibility report for a revealed
// relationship the caller participates in.
func (s *RelationshipService) GetReport(relID, userID string) (*entity.CompatibilityReport, error) {
	rel, err := s.GetForUser(relID, userID)
	if err != nil {
		return nil, err
	}
	if !rel.Revealed() {
		return nil, ErrRelationshipNotFound
	}
	var report entity.CompatibilityReport
	if err := s.db.Where("relationship_id = ?", relID).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRelationshipNotFound
		}
		return nil, err
	}
	return &report, nil
}
