package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
)

var (
	ErrRatingOutOfRange = errors.New("rating must be between 1 and 10")
	ErrSelfRating       = errors.New("cannot rate yourself")
	ErrAlreadyRated     = errors.New("candidate already rated")
)

// MatchThreshold is the minimum rating both directions must reach before a
// blind relationship is created.
const MatchThreshold = 8

// RatingService records write-once attraction ratings and creates a
// relationship when a pair crosses the mutual threshold.
type RatingService struct {
	db   *gorm.DB
	rels *RelationshipService
}

func NewRatingService(db *gorm.DB, rels *RelationshipService) *RatingService {
	return &RatingService{db: db, rels: rels}
}

// ListCandidates returns users the rater has not yet rated, excluding self
// and anyone they already have a relationship with. An empty result is a
// normal terminal state for the queue.
func (s *RatingService) ListCandidates(raterID string) ([]entity.CandidateCard, error) {
	var rated []string
	if err := s.db.Model(&entity.Rating{}).Where("rater_id = ?", raterID).
		Pluck("rated_user_id", &rated).Error; err != nil {
		return nil, err
	}
	var rels []entity.Relationship
	if err := s.db.Where("user_a_id = ? OR user_b_id = ?", raterID, raterID).Find(&rels).Error; err != nil {
		return nil, err
	}
	excluded := map[string]bool{raterID: true}
	for _, id := range rated {
		excluded[id] = true
	}
	for _, r := range rels {
		excluded[r.CounterpartID(raterID)] = true
	}

	var users []entity.User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	cards := make([]entity.CandidateCard, 0, len(users))
	for _, u := range users {
		if excluded[u.ID] {
			continue
		}
		cards = append(cards, u.Candidate())
	}
	return cards, nil
}

// Submit records a rating. Ratings are write-once per (rater, rated) pair.
// If the reverse rating exists and both values reach MatchThreshold, a new
// relationship is created and returned; otherwise the relationship is nil.
func (s *RatingService) Submit(ctx context.Context, raterID, ratedUserID string, value int) (*entity.Rating, *entity.Relationship, error) {
	if value < 1 || value > 10 {
		return nil, nil, ErrRatingOutOfRange
	}
	if raterID == ratedUserID {
		return nil, nil, ErrSelfRating
	}
	var cnt int64
	if err := s.db.Model(&entity.Rating{}).
		Where("rater_id = ? AND rated_user_id = ?", raterID, ratedUserID).
		Count(&cnt).Error; err != nil {
		return nil, nil, err
	}
	if cnt > 0 {
		return nil, nil, ErrAlreadyRated
	}
	rating := &entity.Rating{RaterID: raterID, RatedUserID: ratedUserID, Value: value}
	if err := s.db.Create(rating).Error; err != nil {
		return nil, nil, err
	}
	if value < MatchThreshold {
		return rating, nil, nil
	}
	var reverse entity.Rating
	err := s.db.Where("rater_id = ? AND rated_user_id = ?", ratedUserID, raterID).First(&reverse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rating, nil, nil
		}
		return nil, nil, err
	}
	if reverse.Value < MatchThreshold {
		return rating, nil, nil
	}
	rel, err := s.rels.Create(ctx, raterID, ratedUserID)
	if err != nil {
		return nil, nil, err
	}
	return rating, rel, nil
}
