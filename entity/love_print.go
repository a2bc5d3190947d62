package entity

import "time"

// LovePrint stores a completed preference questionnaire. Answers and the
// derived profile are kept as JSON blobs; the shape is owned by the quiz.
type LovePrint struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	OwnerID     string    `json:"owner_id" gorm:"size:64;uniqueIndex:idx_loveprint_owner_version"`
	Version     int       `json:"version" gorm:"uniqueIndex:idx_loveprint_owner_version"`
	AnswersJSON string    `json:"-" gorm:"type:text"`
	ProfileJSON string    `json:"-" gorm:"type:text"`
	CompletedAt time.Time `json:"completed_at"`
}

// SubmitLovePrintRequest carries the finalized quiz output. Answer values are
// strings, string lists, or integers depending on the question type.
type SubmitLovePrintRequest struct {
	Version        int                    `json:"version" binding:"required"`
	Answers        map[string]interface{} `json:"answers" binding:"required"`
	DerivedProfile map[string]interface{} `json:"derived_profile" binding:"required"`
}
