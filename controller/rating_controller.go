package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/service"
)

type RatingController struct {
	svc *service.RatingService
}

func NewRatingController(svc *service.RatingService) *RatingController {
	return &RatingController{svc: svc}
}

// Candidates returns the caller's unrated candidate cards. An empty list is
// a normal response, not an error.
func (r *RatingController) Candidates(c *gin.Context) {
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	cards, err := r.svc.ListCandidates(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": cards})
}

// Submit records a rating; responds with whether a match was created (the
// matched relationship id is included, the rating value is never echoed to
// the rated side).
func (r *RatingController) Submit(c *gin.Context) {
	var req entity.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	_, rel, err := r.svc.Submit(c.Request.Context(), userID, req.RatedUserID, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyRated):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRatingOutOfRange), errors.Is(err, service.ErrSelfRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	resp := gin.H{"rated": true, "matched": rel != nil}
	if rel != nil {
		resp["relationship_id"] = rel.ID
	}
	c.JSON(http.StatusCreated, resp)
}
