package entity

import "time"

// DailyPrompt is the rotating question of the day.
type DailyPrompt struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Question  string    `json:"question" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyPromptAnswer records one user's answer to a prompt; one per
// (prompt, user).
type DailyPromptAnswer struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PromptID  uint      `json:"prompt_id" gorm:"uniqueIndex:idx_prompt_user"`
	UserID    string    `json:"user_id" gorm:"size:64;uniqueIndex:idx_prompt_user"`
	Answer    string    `json:"answer" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
}

type AnswerPromptRequest struct {
	PromptID uint   `json:"prompt_id" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}
