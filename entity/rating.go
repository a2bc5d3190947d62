package entity

import "time"

// Rating is a write-once attraction rating. One row per (rater, rated) pair;
// the rated user never sees it through any endpoint.
type Rating struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RaterID     string    `json:"rater_id" gorm:"index;size:64;uniqueIndex:idx_rater_rated"`
	RatedUserID string    `json:"rated_user_id" gorm:"index;size:64;uniqueIndex:idx_rater_rated"`
	Value       int       `json:"value"`
	CreatedAt   time.Time `json:"created_at"`
}

type SubmitRatingRequest struct {
	RatedUserID string `json:"rated_user_id" binding:"required"`
	Value       int    `json:"value" binding:"required,gte=1,lte=10"`
}
