package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/go_bm_api/service"
)

type RelationshipController struct {
	svc *service.RelationshipService
}

func NewRelationshipController(svc *service.RelationshipService) *RelationshipController {
	return &RelationshipController{svc: svc}
}

func (r *RelationshipController) List(c *gin.Context) {
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	views, err := r.svc.ListForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": views})
}

// RequestReveal records the caller's reveal consent and reports whether the
// relationship is now revealed or still waiting on the other side.
func (r *RelationshipController) RequestReveal(c *gin.Context) {
	relID := c.Param("id")
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	status, err := r.svc.RequestReveal(c.Request.Context(), relID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRelationshipNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRevealTooEarly):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

// Report serves the compatibility report of a revealed relationship.
func (r *RelationshipController) Report(c *gin.Context) {
	relID := c.Param("id")
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	report, err := r.svc.GetReport(relID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRelationshipNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotParticipant):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
