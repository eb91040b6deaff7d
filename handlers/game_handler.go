package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AnderssonProgramming/code-arena-rt/services"
)

type GameHandler struct {
	games *services.GameService
}

func NewGameHandler(games *services.GameService) *GameHandler {
	return &GameHandler{games: games}
}

func (h *GameHandler) GetGame(c *gin.Context) {
	game, err := h.games.GetGameByID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}

func (h *GameHandler) CurrentChallenge(c *gin.Context) {
	challenge, err := h.games.CurrentChallenge(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

type submitAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

func (h *GameHandler) SubmitAnswer(c *gin.Context) {
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := h.games.SubmitAnswer(c.Request.Context(), c.Param("id"), currentUserID(c), req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, answer)
}

func (h *GameHandler) EndGame(c *gin.Context) {
	game, err := h.games.EndGame(c.Request.Context(), c.Param("id"), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, game)
}
