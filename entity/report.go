package entity

import "time"

// CompatibilityReport is computed server-side when a relationship reveals.
// All scores are 0-100.
type CompatibilityReport struct {
	ID             uint      `json:"-" gorm:"primaryKey"`
	RelationshipID string    `json:"relationship_id" gorm:"uniqueIndex;size:64"`
	Overall        int       `json:"overall"`
	Emotional      int       `json:"emotional"`
	Communication  int       `json:"communication"`
	Values         int       `json:"values"`
	Attachment     int       `json:"attachment"`
	CreatedAt      time.Time `json:"created_at"`
}
