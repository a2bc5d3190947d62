package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/go_bm_api/service"
)

// ProfileController serves public profiles behind the reveal guard: a
// counterpart's identity is only released through a revealed relationship.
type ProfileController struct {
	users service.UserService
	rels  *service.RelationshipService
}

func NewProfileController(users service.UserService, rels *service.RelationshipService) *ProfileController {
	return &ProfileController{users: users, rels: rels}
}

func (p *ProfileController) Get(c *gin.Context) {
	targetID := c.Param("id")
	uidVal, _ := c.Get("user_id")
	viewerID, _ := uidVal.(string)
	ok, err := p.rels.CanViewProfile(viewerID, targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "profile not revealed to you"})
		return
	}
	u, err := p.users.GetByID(targetID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": u.Public()})
}
