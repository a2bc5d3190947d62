package service

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/abeme/go_bm_api/entity"
)

var (
	ErrLovePrintExists   = errors.New("love print already submitted for this version")
	ErrLovePrintNotFound = errors.New("love print not found")
)

// LovePrintService stores submitted preference questionnaires. A love print
// is immutable once submitted; re-takes are a new version.
type LovePrintService struct {
	db *gorm.DB
}

func NewLovePrintService(db *gorm.DB) *LovePrintService {
	return &LovePrintService{db: db}
}

func (s *LovePrintService) Submit(ownerID string, req entity.SubmitLovePrintRequest) (*entity.LovePrint, error) {
	var cnt int64
	if err := s.db.Model(&entity.LovePrint{}).
		Where("owner_id = ? AND version = ?", ownerID, req.Version).
		Count(&cnt).Error; err != nil {
		return nil, err
	}
	if cnt > 0 {
		return nil, ErrLovePrintExists
	}
	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, err
	}
	profile, err := json.Marshal(req.DerivedProfile)
	if err != nil {
		return nil, err
	}
	lp := &entity.LovePrint{
		OwnerID:     ownerID,
		Version:     req.Version,
		AnswersJSON: string(answers),
		ProfileJSON: string(profile),
		CompletedAt: time.Now(),
	}
	if err := s.db.Create(lp).Error; err != nil {
		return nil, err
	}
	return lp, nil
}

func (s *LovePrintService) Latest(ownerID string) (*entity.LovePrint, error) {
	var lp entity.LovePrint
	err := s.db.Where("owner_id = ?", ownerID).Order("version DESC").First(&lp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLovePrintNotFound
		}
		return nil, err
	}
	return &lp, nil
}
