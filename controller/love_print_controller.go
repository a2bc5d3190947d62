package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/service"
)

type LovePrintController struct {
	svc *service.LovePrintService
}

func NewLovePrintController(svc *service.LovePrintService) *LovePrintController {
	return &LovePrintController{svc: svc}
}

func (l *LovePrintController) Submit(c *gin.Context) {
	var req entity.SubmitLovePrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uidVal, _ := c.Get("user_id")
	userID, _ := uidVal.(string)
	lp, err := l.svc.Submit(userID, req)
	if err != nil {
		if errors.Is(err, service.ErrLovePrintExists) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": lp.ID, "version": lp.Version, "completed_at": lp.CompletedAt})
}
