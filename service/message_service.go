package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/events"
)

var ErrEmptyMessage = errors.New("message body is empty")

// Advisory coaching tips per stage. Sent on the response every few messages;
// never persisted.
var coachingTips = map[int]string{
	entity.StageAnonymousChat: "Ask an open question - curiosity builds bonds faster than compliments.",
	entity.StageVoiceExchange: "Try a voice note. Tone carries what text can't.",
	entity.StageReveal:        "You're close to reveal territory. Share something you've never told a match.",
	entity.StageBondedDate:    "Suggest a low-pressure first meeting, somewhere public and easy to leave.",
}

const coachingEvery = 5

// MessageService owns the append-only conversation of a relationship and the
// bond accrual that message exchange drives.
type MessageService struct {
	db   *gorm.DB
	rels *RelationshipService
	bus  *events.Bus
}

func NewMessageService(db *gorm.DB, rels *RelationshipService, bus *events.Bus) *MessageService {
	return &MessageService{db: db, rels: rels, bus: bus}
}

// List returns the conversation oldest-first together with a fresh
// relationship snapshot, so one poll serves both concerns.
func (s *MessageService) List(relID, userID string) (*entity.MessageListResponse, error) {
	rel, err := s.rels.GetForUser(relID, userID)
	if err != nil {
		return nil, err
	}
	var msgs []entity.Message
	if err := s.db.Where("relationship_id = ?", relID).
		Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
		return nil, err
	}
	view, err := s.rels.View(rel, userID)
	if err != nil {
		return nil, err
	}
	return &entity.MessageListResponse{Messages: msgs, Relationship: view}, nil
}

// Send appends a text message, recalculates bond/stage, and returns the
// stored message with an updated snapshot and an occasional coaching tip.
func (s *MessageService) Send(ctx context.Context, relID, senderID, body string) (*entity.SendMessageResponse, error) {
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := s.rels.GetForUser(relID, senderID); err != nil {
		return nil, err
	}
	msg := &entity.Message{
		RelationshipID: relID,
		SenderID:       senderID,
		Body:           body,
		Kind:           entity.MessageText,
	}
	if err := s.db.Create(msg).Error; err != nil {
		return nil, err
	}
	rel, err := s.rels.RecalcProgress(ctx, relID)
	if err != nil {
		return nil, err
	}
	view, err := s.rels.View(rel, senderID)
	if err != nil {
		return nil, err
	}
	resp := &entity.SendMessageResponse{Message: *msg, Relationship: view}
	var sent int64
	if err := s.db.Model(&entity.Message{}).
		Where("relationship_id = ? AND sender_id = ? AND kind = ?", relID, senderID, entity.MessageText).
		Count(&sent).Error; err == nil && sent%coachingEvery == 0 {
		resp.CoachingTip = coachingTips[rel.Stage]
	}
	s.bus.Publish(ctx, events.Event{Kind: events.KindMessage, RelationshipID: relID, Stage: rel.Stage})
	return resp, nil
}
