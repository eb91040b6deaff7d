package services

import (
	"time"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

const (
	streakBonusStep = 25
	streakBonusCap  = 125
)

// Score computes the points awarded for one answer. It is a pure
// function: streak and elimination state live in the game session, so
// STREAK_BONUS and ELIMINATION resolve to the base score here and the
// session applies the streak multiplier or penalty on top.
func Score(challenge *models.Challenge, isCorrect bool, elapsed time.Duration, mode models.ScoringMode) int {
	if !isCorrect {
		return 0
	}

	base := challenge.BaseScore

	switch mode {
	case models.ScoringTimeBased:
		limit := time.Duration(challenge.TimeLimit) * time.Second
		bonus := int((limit - elapsed) / time.Second)
		if bonus < 0 {
			bonus = 0
		}
		return base + bonus
	default:
		return base
	}
}

// StreakBonus is the extra awarded under STREAK_BONUS scoring. The
// streak counts the current correct answer, so the first correct answer
// in a run earns no bonus.
func StreakBonus(streak int) int {
	if streak <= 1 {
		return 0
	}
	bonus := (streak - 1) * streakBonusStep
	if bonus > streakBonusCap {
		bonus = streakBonusCap
	}
	return bonus
}
