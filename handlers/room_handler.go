package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnderssonProgramming/code-arena-rt/services"
)

type RoomHandler struct {
	rooms *services.RoomService
}

func NewRoomHandler(rooms *services.RoomService) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req services.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.rooms.CreateRoom(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

type joinRoomRequest struct {
	Password string `json:"password"`
}

func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	// body is optional for public rooms
	_ = c.ShouldBindJSON(&req)

	room, err := h.rooms.JoinRoom(c.Request.Context(), currentUserID(c), c.Param("code"), req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	room, deleted, err := h.rooms.LeaveRoom(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if deleted {
		c.JSON(http.StatusOK, gin.H{"message": "room closed"})
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) ToggleReady(c *gin.Context) {
	room, err := h.rooms.ToggleReady(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) StartGame(c *gin.Context) {
	game, err := h.rooms.StartGame(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.rooms.GetRoomByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) GetRoomByCode(c *gin.Context) {
	room, err := h.rooms.GetRoomByCode(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) ListPublicRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.ListPublicRooms()})
}

func (h *RoomHandler) ListMyRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.rooms.ListUserRooms(currentUserID(c))})
}
