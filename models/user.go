package models

import (
	"time"
)

type User struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	Username     string       `json:"username" gorm:"uniqueIndex;not null"`
	Email        string       `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string       `json:"-" gorm:"not null"`
	Profile      UserProfile  `json:"profile" gorm:"embedded;embeddedPrefix:profile_"`
	Stats        UserStats    `json:"stats" gorm:"embedded;embeddedPrefix:stats_"`
	Settings     UserSettings `json:"settings" gorm:"embedded;embeddedPrefix:settings_"`
	CreatedAt    time.Time    `json:"created_at"`
	LastLoginAt  *time.Time   `json:"last_login_at"`
	IsActive     bool         `json:"is_active" gorm:"default:true"`
}

type UserProfile struct {
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Level       int    `json:"level" gorm:"default:1"`
	Experience  int    `json:"experience"`
}

type UserStats struct {
	GamesPlayed   int     `json:"games_played"`
	GamesWon      int     `json:"games_won"`
	AverageScore  float64 `json:"average_score"`
	TotalPlayTime int64   `json:"total_play_time"` // seconds
	CurrentStreak int     `json:"current_streak"`
	BestStreak    int     `json:"best_streak"`
}

// WinRate is derived, never stored.
func (s UserStats) WinRate() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.GamesWon) / float64(s.GamesPlayed)
}

type UserSettings struct {
	Notifications bool   `json:"notifications" gorm:"default:true"`
	SoundEnabled  bool   `json:"sound_enabled" gorm:"default:true"`
	Theme         string `json:"theme" gorm:"default:light"`
}
