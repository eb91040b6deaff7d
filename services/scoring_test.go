package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

func TestScoreIncorrectAlwaysZero(t *testing.T) {
	challenge := &models.Challenge{BaseScore: 100, TimeLimit: 30}

	for _, mode := range []models.ScoringMode{
		models.ScoringStandard,
		models.ScoringTimeBased,
		models.ScoringStreakBonus,
		models.ScoringElimination,
	} {
		assert.Equal(t, 0, Score(challenge, false, time.Second, mode), "mode %s", mode)
	}
}

func TestScoreStandard(t *testing.T) {
	challenge := &models.Challenge{BaseScore: 250, TimeLimit: 30}

	// elapsed time is irrelevant under standard scoring
	assert.Equal(t, 250, Score(challenge, true, time.Second, models.ScoringStandard))
	assert.Equal(t, 250, Score(challenge, true, 29*time.Second, models.ScoringStandard))
}

func TestScoreTimeBased(t *testing.T) {
	challenge := &models.Challenge{BaseScore: 100, TimeLimit: 30}

	assert.Equal(t, 125, Score(challenge, true, 5*time.Second, models.ScoringTimeBased))
	assert.Equal(t, 101, Score(challenge, true, 29*time.Second, models.ScoringTimeBased))

	// a time-based answer is never worth less than the base score
	assert.Equal(t, 100, Score(challenge, true, 30*time.Second, models.ScoringTimeBased))
	assert.Equal(t, 100, Score(challenge, true, 45*time.Second, models.ScoringTimeBased))
}

func TestScoreTimeBasedNeverBelowStandard(t *testing.T) {
	challenge := &models.Challenge{BaseScore: 100, TimeLimit: 60}

	for elapsed := 0; elapsed <= 90; elapsed += 15 {
		timeBased := Score(challenge, true, time.Duration(elapsed)*time.Second, models.ScoringTimeBased)
		standard := Score(challenge, true, time.Duration(elapsed)*time.Second, models.ScoringStandard)
		assert.GreaterOrEqual(t, timeBased, standard, "elapsed %ds", elapsed)
	}
}

func TestStreakBonus(t *testing.T) {
	assert.Equal(t, 0, StreakBonus(0))
	assert.Equal(t, 0, StreakBonus(1))
	assert.Equal(t, 25, StreakBonus(2))
	assert.Equal(t, 50, StreakBonus(3))
	assert.Equal(t, 125, StreakBonus(6))

	// capped beyond six in a row
	assert.Equal(t, 125, StreakBonus(7))
	assert.Equal(t, 125, StreakBonus(50))
}
