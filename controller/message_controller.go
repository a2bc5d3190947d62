package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/service"
)

type MessageController struct {
	svc *service.MessageService
}

func NewMessageController(svc *service.MessageService) *MessageController {
	return &MessageController{svc: svc}
}

func messageStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrRelationshipNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, service.ErrEmptyMessage):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// List returns the conversation plus an embedded relationship snapshot; the
// client polls this endpoint.
func (m *MessageController) List(c *gin.Context) {
	relID := c.Param("id")
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	resp, err := m.svc.List(relID, userID)
	if err != nil {
		c.JSON(messageStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (m *MessageController) Send(c *gin.Context) {
	var req entity.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	relID := c.Param("id")
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	resp, err := m.svc.Send(c.Request.Context(), relID, userID, req.Body)
	if err != nil {
		c.JSON(messageStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, resp)
}
