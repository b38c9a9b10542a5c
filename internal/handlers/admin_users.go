package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) AdminListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.authService.SearchUsers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	users := make([]userResponse, 0, len(result.Users))
	for _, user := range result.Users {
		users = append(users, toUserResponse(user))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": result.Total,
		"page":  result.Page,
		"limit": result.Limit,
	})
}

type createUserBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

func (h HandlerSet) AdminCreateUser(c *gin.Context) {
	var body createUserBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.AdminCreateUser(c.Request.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": toUserResponse(user)})
}

func (h HandlerSet) AdminListUserGifts(c *gin.Context) {
	gifts, err := h.giftService.ListForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"gifts": toGiftResponses(gifts, time.Now())})
}
