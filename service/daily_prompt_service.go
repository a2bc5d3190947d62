package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
)

var (
	ErrNoPrompt        = errors.New("no daily prompt available")
	ErrAlreadyAnswered = errors.New("prompt already answered today")
)

var seedPrompts = []string{
	"What does a perfect lazy Sunday look like for you?",
	"What's a small thing that instantly makes your day better?",
	"Which song would you put on to introduce yourself?",
	"What's something you changed your mind about in the last year?",
	"City lights or open sky - and why?",
}

// DailyPromptService serves the question of the day and records answers.
// The day's pick is cached in Redis so all instances agree.
type DailyPromptService struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewDailyPromptService(db *gorm.DB, rdb *redis.Client) *DailyPromptService {
	return &DailyPromptService{db: db, rdb: rdb}
}

// Seed inserts the built-in prompts if the table is empty.
func (s *DailyPromptService) Seed() error {
	var cnt int64
	if err := s.db.Model(&entity.DailyPrompt{}).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt > 0 {
		return nil
	}
	for _, q := range seedPrompts {
		if err := s.db.Create(&entity.DailyPrompt{Question: q}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Today returns the prompt of the day. The pick rotates by day ordinal and
// is pinned in Redis under the current date so it stays stable cross-instance.
func (s *DailyPromptService) Today(ctx context.Context) (*entity.DailyPrompt, error) {
	key := "daily_prompt:" + time.Now().Format("2006-01-02")
	if s.rdb != nil {
		if idStr, err := s.rdb.Get(ctx, key).Result(); err == nil {
			if id, err := strconv.ParseUint(idStr, 10, 64); err == nil {
				var p entity.DailyPrompt
				if err := s.db.Where("id = ?", uint(id)).First(&p).Error; err == nil {
					return &p, nil
				}
			}
		}
	}
	var prompts []entity.DailyPrompt
	if err := s.db.Order("id").Find(&prompts).Error; err != nil {
		return nil, err
	}
	if len(prompts) == 0 {
		return nil, ErrNoPrompt
	}
	day := time.Now().UTC().Truncate(24*time.Hour).Unix() / 86400
	p := prompts[int(day)%len(prompts)]
	if s.rdb != nil {
		_ = s.rdb.Set(ctx, key, strconv.FormatUint(uint64(p.ID), 10), 24*time.Hour).Err()
	}
	return &p, nil
}

// Answer records a user's answer once per prompt.
func (s *DailyPromptService) Answer(userID string, promptID uint, answer string) (*entity.DailyPromptAnswer, error) {
	var cnt int64
	if err := s.db.Model(&entity.DailyPromptAnswer{}).
		Where("prompt_id = ? AND user_id = ?", promptID, userID).
		Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrAlreadyAnswered
	}
	a := &entity.DailyPromptAnswer{PromptID: promptID, UserID: userID, Answer: answer}
	if err := s.db.Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}
