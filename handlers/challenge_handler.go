package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AnderssonProgramming/code-arena-rt/models"
	"github.com/AnderssonProgramming/code-arena-rt/services"
)

type ChallengeHandler struct {
	challenges *services.ChallengeService
}

func NewChallengeHandler(challenges *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{challenges: challenges}
}

func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	var req services.CreateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.challenges.CreateChallenge(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, challenge)
}

func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	challenge, err := h.challenges.GetChallengeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	if difficulty := c.Query("difficulty"); difficulty != "" {
		challenges, err := h.challenges.GetChallengesByDifficulty(c.Request.Context(), models.Difficulty(difficulty))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"challenges": challenges})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	challenges, err := h.challenges.ListChallenges(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) SearchChallenges(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	challenges, err := h.challenges.SearchChallenges(c.Request.Context(), query, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"challenges": challenges})
}

func (h *ChallengeHandler) GetRandomChallenge(c *gin.Context) {
	difficulty := models.Difficulty(c.DefaultQuery("difficulty", string(models.DifficultyMedium)))
	challenge, err := h.challenges.GetRandomChallenge(c.Request.Context(), difficulty)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge.Sanitized())
}

func (h *ChallengeHandler) UpdateChallenge(c *gin.Context) {
	var req services.UpdateChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.challenges.UpdateChallenge(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (h *ChallengeHandler) DeleteChallenge(c *gin.Context) {
	if err := h.challenges.DeleteChallenge(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "challenge deleted"})
}
