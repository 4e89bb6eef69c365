package handlers

import (
	"net/http"

	"marketplace-chat/internal/models"
	"marketplace-chat/internal/services"
	"marketplace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService services.UserService
}

func NewAuthHandler(userService services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// Register creates a new account and returns the public profile.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	profile, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusCreated, profile)
}

// Login exchanges credentials for a signed JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, result)
}
