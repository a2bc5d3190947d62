package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/service"
)

type PromptController struct {
	svc *service.DailyPromptService
}

func NewPromptController(svc *service.DailyPromptService) *PromptController {
	return &PromptController{svc: svc}
}

func (p *PromptController) Today(c *gin.Context) {
	prompt, err := p.svc.Today(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoPrompt) {
			// No prompt is a first-class empty state.
			c.JSON(http.StatusOK, gin.H{"prompt": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"prompt": prompt})
}

func (p *PromptController) Answer(c *gin.Context) {
	var req entity.AnswerPromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	a, err := p.svc.Answer(userID, req.PromptID, req.Answer)
	if err != nil {
		if errors.Is(err, service.ErrAlreadyAnswered) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": a.ID, "prompt_id": a.PromptID})
}
