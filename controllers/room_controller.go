package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/gifchat/backend/chat"
	"github.com/gifchat/backend/middleware"
)

type CreateRoomInput struct {
	Title    string `form:"title" json:"title" binding:"required" example:"General Chat"`
	Max      int    `form:"max" json:"max" binding:"required,min=1" example:"10"`
	Password string `form:"password" json:"password" example:""`
}

// RoomController handles the room list, creation, admission and deletion routes.
type RoomController struct {
	service *chat.Service
}

func NewRoomController(service *chat.Service) *RoomController {
	return &RoomController{service: service}
}

// ListRooms godoc
// @Summary List all rooms
// @Description Returns every chat room for the lobby view
// @Tags rooms
// @Produce json
// @Param error query string false "Error message from a failed join, echoed back"
// @Success 200 {object} map[string]interface{} "List of rooms"
// @Failure 500 {object} map[string]string "Server error"
// @Router / [get]
func (rc *RoomController) ListRooms(c *gin.Context) {
	rooms, err := rc.service.ListRooms()
	if err != nil {
		log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch rooms"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rooms": rooms,
		"error": c.Query("error"),
	})
}

// NewRoomForm godoc
// @Summary Room creation form data
// @Description Returns the data the room creation view needs; rendering is up to the client
// @Tags rooms
// @Produce json
// @Success 200 {object} map[string]string "Form data"
// @Router /room [get]
func (rc *RoomController) NewRoomForm(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"title": "Create a GIF chat room",
		"user":  middleware.Color(c),
	})
}

// CreateRoom godoc
// @Summary Create a new chat room
// @Description Creates a room owned by the session colour and redirects to its join URL
// @Tags rooms
// @Accept json
// @Accept x-www-form-urlencoded
// @Param room formData CreateRoomInput true "Room Creation"
// @Success 302 {string} string "Redirect to the new room"
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 500 {object} map[string]string "Server error"
// @Router /room [post]
func (rc *RoomController) CreateRoom(c *gin.Context) {
	var input CreateRoomInput
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := rc.service.CreateRoom(input.Title, input.Max, input.Password, middleware.Color(c))
	if err != nil {
		log.Error().Err(err).Msg("failed to create room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
		return
	}

	// The password rides along as the join credential for the redirect.
	c.Redirect(http.StatusFound,
		fmt.Sprintf("/room/%d?password=%s", room.ID, url.QueryEscape(input.Password)))
}

// JoinRoom godoc
// @Summary Join a room
// @Description Runs the admission check and returns the room with its chat history
// @Tags rooms
// @Produce json
// @Param id path int true "Room ID"
// @Param password query string false "Room password"
// @Success 200 {object} map[string]interface{} "Room, history and occupancy slot"
// @Failure 302 {string} string "Redirect to the lobby with an error message"
// @Router /room/{id} [get]
func (rc *RoomController) JoinRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		redirectWithError(c, "room does not exist")
		return
	}

	room, chats, number, err := rc.service.Join(uint(roomID), c.Query("password"))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrRoomNotFound):
			redirectWithError(c, "room does not exist")
		case errors.Is(err, chat.ErrUnauthorized):
			redirectWithError(c, "wrong password")
		case errors.Is(err, chat.ErrRoomFull):
			redirectWithError(c, "the room is full")
		default:
			log.Error().Err(err).Uint64("room", roomID).Msg("failed to join room")
			redirectWithError(c, "server error")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room":   room,
		"title":  room.Title,
		"chats":  chats,
		"number": number,
		"user":   middleware.Color(c),
		"owner":  room.Owner,
	})
}

// DeleteRoom godoc
// @Summary Delete a room
// @Description Deletes a room and all its chats; the removeRoom broadcast follows after a delay
// @Tags rooms
// @Produce plain
// @Param id path int true "Room ID"
// @Success 200 {string} string "ok"
// @Failure 400 {object} map[string]string "Invalid room ID"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Room not found"
// @Failure 500 {object} map[string]string "Server error"
// @Router /room/{id} [delete]
func (rc *RoomController) DeleteRoom(c *gin.Context) {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID"})
		return
	}

	if err := rc.service.DeleteRoom(uint(roomID), middleware.Color(c)); err != nil {
		switch {
		case errors.Is(err, chat.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		case errors.Is(err, chat.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Only the room owner can delete the room"})
		default:
			log.Error().Err(err).Uint64("room", roomID).Msg("failed to delete room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete room"})
		}
		return
	}

	// Ack before the delayed broadcast fires; a lost broadcast is silent
	// to the deleter.
	c.String(http.StatusOK, "ok")
}

// redirectWithError sends navigational failures back to the lobby with a
// short human-readable message in the query string.
func redirectWithError(c *gin.Context, msg string) {
	c.Redirect(http.StatusFound, "/?error="+url.QueryEscape(msg))
}
