package services

import (
	"context"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// UserService handles registration, login, profiles and aggregate
// stats. It implements StatsRecorder so the game session can write back
// results after finalization.
type UserService struct {
	store     UserStore
	jwtSecret string
	tokenTTL  time.Duration
	log       *zap.SugaredLogger
	now       func() time.Time
}

func NewUserService(store UserStore, jwtSecret string, log *zap.SugaredLogger) *UserService {
	return &UserService{
		store:     store,
		jwtSecret: jwtSecret,
		tokenTTL:  24 * time.Hour,
		log:       log,
		now:       time.Now,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	// Identifier accepts either username or email.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if taken, err := s.store.ExistsByEmail(ctx, req.Email); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to check email: %v", err)
	} else if taken {
		return nil, models.NewError(models.KindConflict, "email already exists")
	}
	if taken, err := s.store.ExistsByUsername(ctx, req.Username); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to check username: %v", err)
	} else if taken {
		return nil, models.NewError(models.KindConflict, "username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewError(models.KindInternal, "failed to hash password: %v", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Profile:      models.UserProfile{Level: 1},
		Settings:     models.UserSettings{Notifications: true, SoundEnabled: true, Theme: "light"},
		CreatedAt:    s.now(),
		IsActive:     true,
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to save user: %v", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	s.log.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.store.FindByEmail(ctx, req.Identifier)
	if err != nil {
		if !models.IsKind(err, models.KindNotFound) {
			return nil, err
		}
		user, err = s.store.FindByUsername(ctx, req.Identifier)
		if err != nil {
			if models.IsKind(err, models.KindNotFound) {
				return nil, models.NewError(models.KindUnauthorized, "invalid credentials")
			}
			return nil, err
		}
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, models.NewError(models.KindUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, models.NewError(models.KindForbidden, "account is deactivated")
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.store.Save(ctx, user); err != nil {
		s.log.Warnw("failed to record last login", "user_id", user.ID, "error", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return s.store.FindByID(ctx, userID)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.store.FindByUsername(ctx, username)
}

type UpdateProfileRequest struct {
	DisplayName   *string `json:"display_name"`
	Avatar        *string `json:"avatar"`
	Notifications *bool   `json:"notifications"`
	SoundEnabled  *bool   `json:"sound_enabled"`
	Theme         *string `json:"theme"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.Profile.DisplayName = *req.DisplayName
	}
	if req.Avatar != nil {
		user.Profile.Avatar = *req.Avatar
	}
	if req.Notifications != nil {
		user.Settings.Notifications = *req.Notifications
	}
	if req.SoundEnabled != nil {
		user.Settings.SoundEnabled = *req.SoundEnabled
	}
	if req.Theme != nil {
		user.Settings.Theme = *req.Theme
	}

	if err := s.store.Save(ctx, user); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to update profile: %v", err)
	}
	return user, nil
}

// Deactivate soft-disables the account. Users are never deleted.
func (s *UserService) Deactivate(ctx context.Context, userID string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	user.IsActive = false
	if err := s.store.Save(ctx, user); err != nil {
		return models.NewError(models.KindInternal, "failed to deactivate user: %v", err)
	}
	return nil
}

// RecordGameResult folds one finished game into the user's aggregate
// stats. The average uses an incremental mean.
func (s *UserService) RecordGameResult(ctx context.Context, userID string, won bool, score int, playSeconds int64) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	stats := user.Stats
	stats.AverageScore = (stats.AverageScore*float64(stats.GamesPlayed) + float64(score)) / float64(stats.GamesPlayed+1)
	stats.GamesPlayed++
	stats.TotalPlayTime += playSeconds
	if won {
		stats.GamesWon++
		stats.CurrentStreak++
		if stats.CurrentStreak > stats.BestStreak {
			stats.BestStreak = stats.CurrentStreak
		}
	} else {
		stats.CurrentStreak = 0
	}
	user.Stats = stats

	if err := s.store.Save(ctx, user); err != nil {
		return models.NewError(models.KindInternal, "failed to update user stats: %v", err)
	}
	return nil
}

// GetRankings returns the top players by win rate, then games won,
// then average score. Players without finished games are excluded.
func (s *UserService) GetRankings(ctx context.Context, limit int) ([]models.User, error) {
	users, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	ranked := users[:0]
	for _, u := range users {
		if u.Stats.GamesPlayed > 0 {
			ranked = append(ranked, u)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Stats.WinRate() != ranked[j].Stats.WinRate() {
			return ranked[i].Stats.WinRate() > ranked[j].Stats.WinRate()
		}
		if ranked[i].Stats.GamesWon != ranked[j].Stats.GamesWon {
			return ranked[i].Stats.GamesWon > ranked[j].Stats.GamesWon
		}
		return ranked[i].Stats.AverageScore > ranked[j].Stats.AverageScore
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

func (s *UserService) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	return s.store.SearchByUsername(ctx, query, limit)
}

func (s *UserService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.store.ExistsByUsername(ctx, username)
	return !taken, err
}

func (s *UserService) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	taken, err := s.store.ExistsByEmail(ctx, email)
	return !taken, err
}

func (s *UserService) generateToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      s.now().Add(s.tokenTTL).Unix(),
		"iat":      s.now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", models.NewError(models.KindInternal, "failed to sign token: %v", err)
	}
	return signed, nil
}
