package handlers

import (
	"net/http"
	"strconv"

	"marketplace-chat/internal/models"
	"marketplace-chat/internal/services"
	"marketplace-chat/pkg/response"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// CheckChatExists reports whether a chat between the caller and the other
// user already exists, regardless of who created it.
func (h *ChatHandler) CheckChatExists(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	otherID := c.Query("userId")
	if otherID == "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "userId parameter is required"})
		return
	}

	result, err := h.chatService.CheckChatExists(c.Request.Context(), userID, otherID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateChat starts a chat between a client and a freelancer, returning the
// existing one when the pair already talked.
func (h *ChatHandler) CreateChat(c *gin.Context) {
	var req models.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	chat, err := h.chatService.CreateChat(c.Request.Context(), &req)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, chat)
}

// GetUserChats lists the caller's chats, newest first, with a preview of the
// last message in each.
func (h *ChatHandler) GetUserChats(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	chats, err := h.chatService.GetUserChats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, chats)
}

// GetChatMessages returns the full history of one chat, oldest first. Only
// participants may read it.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid chat id"})
		return
	}

	messages, err := h.chatService.GetChatMessages(c.Request.Context(), uint(chatID), userID)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage persists a message and fans it out to the chat room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	chatID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid chat id"})
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), uint(chatID), userID, req.Content)
	if err != nil {
		c.JSON(response.StatusFor(err), response.ErrorResponse{Error: response.Message(err)})
		return
	}
	c.JSON(http.StatusCreated, message)
}
