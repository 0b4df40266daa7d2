package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gifchat/backend/chat"
	"github.com/gifchat/backend/middleware"
	"github.com/gifchat/backend/upload"
)

type PostChatInput struct {
	Chat string `form:"chat" json:"chat" binding:"required" example:"Hello, everyone!"`
	SID  string `form:"sid" json:"sid" example:"4f2b1c"`
}

type PostSystemInput struct {
	Type string `form:"type" json:"type" binding:"required,oneof=join leave" example:"join"`
}

// ChatController handles message, attachment and system notice routes.
type ChatController struct {
	service *chat.Service
	uploads *upload.Store
}

func NewChatController(service *chat.Service, uploads *upload.Store) *ChatController {
	return &ChatController{service: service, uploads: uploads}
}

// PostChat godoc
// @Summary Post a text message
// @Description Appends a chat record and fans it out to the room's subscribers
// @Tags chat
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param id path int true "Room ID"
// @Param message formData PostChatInput true "Message"
// @Success 200 {string} string "ok"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /room/{id}/chat [post]
func (cc *ChatController) PostChat(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input PostChatInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := cc.service.PostMessage(roomID, middleware.Color(c), input.Chat, input.SID); err != nil {
		log.Error().Err(err).Uint("room", roomID).Msg("failed to post chat")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post chat"})
		return
	}

	c.String(http.StatusOK, "ok")
}

// PostGif godoc
// @Summary Post an animated-image attachment
// @Description Stores the uploaded file and fans the stored filename out to the room
// @Tags chat
// @Accept multipart/form-data
// @Produce plain
// @Param id path int true "Room ID"
// @Param gif formData file true "Attachment"
// @Param sid formData string false "Sender socket id"
// @Success 200 {string} string "ok"
// @Failure 400 {object} map[string]string "Missing file"
// @Failure 413 {object} map[string]string "Attachment too large"
// @Failure 500 {object} map[string]string "Server error"
// @Router /room/{id}/gif [post]
func (cc *ChatController) PostGif(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	file, err := c.FormFile("gif")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "gif file is required"})
		return
	}

	filename, err := cc.uploads.Save(file)
	if err != nil {
		if errors.Is(err, upload.ErrTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Attachment too large"})
			return
		}
		log.Error().Err(err).Uint("room", roomID).Msg("failed to store attachment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store attachment"})
		return
	}

	if _, err := cc.service.PostGif(roomID, middleware.Color(c), filename, c.PostForm("sid")); err != nil {
		log.Error().Err(err).Uint("room", roomID).Msg("failed to post gif")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post gif"})
		return
	}

	c.String(http.StatusOK, "ok")
}

// PostSystem godoc
// @Summary Post a join/leave system notice
// @Description Appends a system chat record and fans it out under the event kind
// @Tags chat
// @Accept json
// @Accept x-www-form-urlencoded
// @Produce plain
// @Param id path int true "Room ID"
// @Param notice formData PostSystemInput true "Notice kind"
// @Success 200 {string} string "ok"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /room/{id}/sys [post]
func (cc *ChatController) PostSystem(c *gin.Context) {
	roomID, ok := roomIDParam(c)
	if !ok {
		return
	}

	var input PostSystemInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := cc.service.PostNotice(roomID, input.Type, middleware.Color(c)); err != nil {
		if errors.Is(err, chat.ErrBadNoticeKind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Uint("room", roomID).Msg("failed to post notice")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post notice"})
		return
	}

	c.String(http.StatusOK, "ok")
}

func roomIDParam(c *gin.Context) (uint, bool) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return 0, false
	}
	return uint(roomID), true
}
