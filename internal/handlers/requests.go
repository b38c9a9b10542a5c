package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/memoryhaze/memoryhaze/internal/middleware"
	"github.com/memoryhaze/memoryhaze/internal/models"
	"github.com/memoryhaze/memoryhaze/internal/service"
)

type requestResponse struct {
	ID              string               `json:"id"`
	UserRef         string               `json:"userRef,omitempty"`
	RecipientName   string               `json:"recipientName"`
	Occasion        models.Occasion      `json:"occasion"`
	OccasionDate    time.Time            `json:"occasionDate"`
	Scenarios       []string             `json:"scenarios"`
	SongGenre       string               `json:"songGenre"`
	Photos          []models.UploadRef   `json:"photos"`
	Plan            models.Plan          `json:"plan"`
	Message         string               `json:"message,omitempty"`
	Status          models.RequestStatus `json:"status"`
	RejectionReason string               `json:"rejectionReason,omitempty"`
	Audio           *models.UploadRef    `json:"audio,omitempty"`
	Lyrics          string               `json:"lyrics,omitempty"`
	SubmittedAt     time.Time            `json:"submittedAt"`
	VerifiedAt      *time.Time           `json:"verifiedAt,omitempty"`
	RejectedAt      *time.Time           `json:"rejectedAt,omitempty"`
	CompletedAt     *time.Time           `json:"completedAt,omitempty"`
}

func toRequestResponse(req models.GiftRequest) requestResponse {
	return requestResponse{
		ID:              req.ID,
		UserRef:         req.UserRef,
		RecipientName:   req.RecipientName,
		Occasion:        req.Occasion,
		OccasionDate:    req.OccasionDate,
		Scenarios:       req.Scenarios,
		SongGenre:       req.SongGenre,
		Photos:          req.Photos,
		Plan:            req.Plan,
		Message:         req.Message,
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		Audio:           req.Audio,
		Lyrics:          req.Lyrics,
		SubmittedAt:     req.SubmittedAt,
		VerifiedAt:      req.VerifiedAt,
		RejectedAt:      req.RejectedAt,
		CompletedAt:     req.CompletedAt,
	}
}

type submitRequestBody struct {
	RecipientName string             `json:"recipientName" binding:"required"`
	Occasion      string             `json:"occasion" binding:"required"`
	OccasionDate  time.Time          `json:"occasionDate" binding:"required"`
	Scenarios     []string           `json:"scenarios" binding:"required"`
	SongGenre     string             `json:"songGenre" binding:"required"`
	Photos        []models.UploadRef `json:"photos" binding:"required"`
	Plan          string             `json:"plan" binding:"required"`
	Message       string             `json:"message"`
}

func (h HandlerSet) SubmitRequest(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body submitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.requestService.Submit(c.Request.Context(), user, service.SubmitInput{
		RecipientName: body.RecipientName,
		Occasion:      models.Occasion(body.Occasion),
		OccasionDate:  body.OccasionDate,
		Scenarios:     body.Scenarios,
		SongGenre:     body.SongGenre,
		Photos:        body.Photos,
		Plan:          models.Plan(body.Plan),
		Message:       body.Message,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": toRequestResponse(req)})
}
