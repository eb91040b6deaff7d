package models

import (
	"time"
)

type ChallengeType string

const (
	ChallengeLogic          ChallengeType = "LOGIC"
	ChallengeMath           ChallengeType = "MATH"
	ChallengePattern        ChallengeType = "PATTERN"
	ChallengeCode           ChallengeType = "CODE"
	ChallengeTrivia         ChallengeType = "TRIVIA"
	ChallengeSequence       ChallengeType = "SEQUENCE"
	ChallengeMultipleChoice ChallengeType = "MULTIPLE_CHOICE"
	ChallengeOpenAnswer     ChallengeType = "OPEN_ANSWER"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
	DifficultyExpert Difficulty = "EXPERT"
)

// Challenge is a single question in the bank. Content is immutable once
// created; only Stats change as games use it.
type Challenge struct {
	ID            string         `json:"id" gorm:"primaryKey"`
	Title         string         `json:"title" gorm:"not null"`
	Description   string         `json:"description"`
	Type          ChallengeType  `json:"type" gorm:"index;not null"`
	Difficulty    Difficulty     `json:"difficulty" gorm:"index;not null"`
	Question      string         `json:"question" gorm:"not null"`
	Options       []string       `json:"options" gorm:"serializer:json"`
	CorrectAnswer string         `json:"-" gorm:"not null"`
	Explanation   string         `json:"explanation"`
	TimeLimit     int            `json:"time_limit" gorm:"default:60"` // seconds
	BaseScore     int            `json:"base_score" gorm:"default:100"`
	Hints         []string       `json:"hints" gorm:"serializer:json"`
	Tags          []string       `json:"tags" gorm:"serializer:json"`
	CreatedBy     string         `json:"created_by"`
	Stats         ChallengeStats `json:"stats" gorm:"embedded;embeddedPrefix:stats_"`
	CreatedAt     time.Time      `json:"created_at"`
	IsActive      bool           `json:"is_active" gorm:"default:true"`
}

type ChallengeStats struct {
	TimesUsed       int     `json:"times_used"`
	AverageTime     float64 `json:"average_time"` // seconds
	SuccessRate     float64 `json:"success_rate"` // 0..1
	TotalAttempts   int     `json:"total_attempts"`
	CorrectAttempts int     `json:"correct_attempts"`
}

// RecordAttempt folds one answer into the usage statistics using an
// incremental mean for the response time.
func (s *ChallengeStats) RecordAttempt(correct bool, responseSeconds float64) {
	s.AverageTime = (s.AverageTime*float64(s.TotalAttempts) + responseSeconds) / float64(s.TotalAttempts+1)
	s.TotalAttempts++
	if correct {
		s.CorrectAttempts++
	}
	s.SuccessRate = float64(s.CorrectAttempts) / float64(s.TotalAttempts)
}

// Sanitized returns a copy safe to send to players while the question
// is live: the correct answer and explanation are stripped.
func (c Challenge) Sanitized() Challenge {
	c.CorrectAnswer = ""
	c.Explanation = ""
	return c
}
