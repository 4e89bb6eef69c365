package handlers

import (
	"net/http"

	"marketplace-chat/internal/models"
	"marketplace-chat/internal/services"
	"marketplace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
	presence    *services.PresenceService
}

func NewUserHandler(userService services.UserService, presence *services.PresenceService) *UserHandler {
	return &UserHandler{userService: userService, presence: presence}
}

// GetProfile returns the profile of the authenticated user, or of the user
// in the :id parameter when present.
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	if id := c.Param("id"); id != "" {
		userID = id
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetOnlineStatus reports whether the given user currently has a live
// connection.
func (h *UserHandler) GetOnlineStatus(c *gin.Context) {
	targetID := c.Param("id")
	online, err := h.presence.IsUserOnline(c.Request.Context(), targetID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "presence lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": targetID, "online": online})
}
