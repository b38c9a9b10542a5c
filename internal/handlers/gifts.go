package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memoryhaze/memoryhaze/internal/middleware"
	"github.com/memoryhaze/memoryhaze/internal/models"
)

type giftResponse struct {
	ID              string             `json:"id"`
	UserRef         string             `json:"userRef,omitempty"`
	RequestRef      string             `json:"requestRef,omitempty"`
	TemplateID      models.TemplateID  `json:"templateId"`
	Occasion        models.Occasion    `json:"occasion"`
	Plan            models.Plan        `json:"plan"`
	Scenarios       []string           `json:"scenarios,omitempty"`
	Photos          []models.UploadRef `json:"photos"`
	Audio           *models.UploadRef  `json:"audio,omitempty"`
	Lyrics          string             `json:"lyrics,omitempty"`
	Message         string             `json:"message,omitempty"`
	AccessEnabled   bool               `json:"accessEnabled"`
	ExpiresAt       *time.Time         `json:"expiresAt,omitempty"`
	EffectiveAccess bool               `json:"effectiveAccess"`
	RemainingAccess string             `json:"remainingAccess"`
	AssignedAt      time.Time          `json:"assignedAt"`
}

func toGiftResponse(gift models.Gift, now time.Time) giftResponse {
	return giftResponse{
		ID:              gift.ID,
		UserRef:         gift.UserRef,
		RequestRef:      gift.RequestRef,
		TemplateID:      gift.TemplateID,
		Occasion:        gift.Occasion,
		Plan:            gift.Plan,
		Scenarios:       gift.Scenarios,
		Photos:          gift.Photos,
		Audio:           gift.Audio,
		Lyrics:          gift.Lyrics,
		Message:         gift.Message,
		AccessEnabled:   gift.AccessEnabled,
		ExpiresAt:       gift.ExpiresAt,
		EffectiveAccess: gift.EffectiveAccess(now),
		RemainingAccess: gift.RemainingAccess(now),
		AssignedAt:      gift.AssignedAt,
	}
}

func toGiftResponses(gifts []models.Gift, now time.Time) []giftResponse {
	out := make([]giftResponse, 0, len(gifts))
	for _, gift := range gifts {
		out = append(out, toGiftResponse(gift, now))
	}
	return out
}

func (h HandlerSet) ListMyGifts(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gifts, err := h.giftService.ListMine(c.Request.Context(), user)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gifts": toGiftResponses(gifts, time.Now())})
}

// ViewGift serves both the owner route /api/gifts/:id and the shared
// recipient link /api/gifts/:id/:recipientToken.
func (h HandlerSet) ViewGift(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	gift, err := h.giftService.View(c.Request.Context(), user, c.Param("id"), c.Param("recipientToken"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gift": toGiftResponse(gift, time.Now())})
}
