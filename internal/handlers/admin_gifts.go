package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/service"
)

type adminCreateGiftBody struct {
	UserID     string             `json:"userId" binding:"required"`
	TemplateID string             `json:"templateId"`
	Occasion   string             `json:"occasion" binding:"required"`
	Plan       string             `json:"plan" binding:"required"`
	Scenarios  []string           `json:"scenarios"`
	Photos     []models.UploadRef `json:"photos"`
	Audio      *models.UploadRef  `json:"audio"`
	Lyrics     string             `json:"lyrics"`
	Message    string             `json:"message"`
}

func (h HandlerSet) AdminCreateGift(c *gin.Context) {
	var body adminCreateGiftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gift, err := h.giftService.AdminCreate(c.Request.Context(), service.AdminCreateInput{
		UserRef:    body.UserID,
		TemplateID: models.TemplateID(body.TemplateID),
		Occasion:   models.Occasion(body.Occasion),
		Plan:       models.Plan(body.Plan),
		Scenarios:  body.Scenarios,
		Photos:     body.Photos,
		Audio:      body.Audio,
		Lyrics:     body.Lyrics,
		Message:    body.Message,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"gift": toGiftResponse(gift, time.Now())})
}

type setAccessBody struct {
	Enabled     *bool `json:"accessEnabled" binding:"required"`
	ResetExpiry bool  `json:"resetExpiry"`
}

func (h HandlerSet) AdminSetGiftAccess(c *gin.Context) {
	var body setAccessBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gift, err := h.giftService.SetAccess(c.Request.Context(), c.Param("id"), *body.Enabled, body.ResetExpiry)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gift": toGiftResponse(gift, time.Now())})
}

func (h HandlerSet) AdminDeleteGift(c *gin.Context) {
	if err := h.giftService.PermanentDelete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "gift permanently deleted"})
}
