package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/memoryhaze/memoryhaze/internal/models"
)

func (h HandlerSet) AdminListRequests(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	result, err := h.requestService.List(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	requests := make([]requestResponse, 0, len(result.Requests))
	for _, req := range result.Requests {
		requests = append(requests, toRequestResponse(req))
	}

	c.JSON(http.StatusOK, gin.H{
		"requests": requests,
		"total":    result.Total,
		"page":     result.Page,
		"limit":    result.Limit,
	})
}

func (h HandlerSet) AdminRequestStats(c *gin.Context) {
	stats, err := h.requestService.Stats(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h HandlerSet) AdminVerifyRequest(c *gin.Context) {
	req, err := h.requestService.Verify(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(req)})
}

type rejectRequestBody struct {
	Reason string `json:"reason"`
}

func (h HandlerSet) AdminRejectRequest(c *gin.Context) {
	var body rejectRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.requestService.Reject(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(req)})
}

type completeRequestBody struct {
	Audio  models.UploadRef `json:"audio" binding:"required"`
	Lyrics string           `json:"lyrics" binding:"required"`
}

func (h HandlerSet) AdminCompleteRequest(c *gin.Context) {
	var body completeRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.requestService.Complete(c.Request.Context(), c.Param("id"), body.Audio, body.Lyrics)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(req)})
}
