package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// ChallengeService owns the question bank: CRUD for admins, the seed
// set, and the selection draw used when games are created.
type ChallengeService struct {
	store ChallengeStore
	log   *zap.SugaredLogger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewChallengeService(store ChallengeStore, log *zap.SugaredLogger) *ChallengeService {
	return &ChallengeService{
		store: store,
		log:   log,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type CreateChallengeRequest struct {
	Title         string               `json:"title" binding:"required"`
	Description   string               `json:"description"`
	Type          models.ChallengeType `json:"type" binding:"required"`
	Difficulty    models.Difficulty    `json:"difficulty" binding:"required"`
	Question      string               `json:"question" binding:"required"`
	Options       []string             `json:"options"`
	CorrectAnswer string               `json:"correct_answer" binding:"required"`
	Explanation   string               `json:"explanation"`
	TimeLimit     int                  `json:"time_limit" binding:"min=0,max=300"`
	BaseScore     int                  `json:"base_score" binding:"min=0"`
	Hints         []string             `json:"hints"`
	Tags          []string             `json:"tags"`
}

func (s *ChallengeService) CreateChallenge(ctx context.Context, creatorID string, req *CreateChallengeRequest) (*models.Challenge, error) {
	challenge := &models.Challenge{
		ID:            uuid.New().String(),
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Difficulty:    req.Difficulty,
		Question:      req.Question,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		Explanation:   req.Explanation,
		TimeLimit:     req.TimeLimit,
		BaseScore:     req.BaseScore,
		Hints:         req.Hints,
		Tags:          req.Tags,
		CreatedBy:     creatorID,
		CreatedAt:     time.Now(),
		IsActive:      true,
	}
	if challenge.TimeLimit == 0 {
		challenge.TimeLimit = 60
	}
	if challenge.BaseScore == 0 {
		challenge.BaseScore = 100
	}

	if err := s.store.Save(ctx, challenge); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to save challenge: %v", err)
	}
	s.log.Infow("challenge created", "id", challenge.ID, "difficulty", challenge.Difficulty)
	return challenge, nil
}

func (s *ChallengeService) GetChallengeByID(ctx context.Context, id string) (*models.Challenge, error) {
	return s.store.FindByID(ctx, id)
}

func (s *ChallengeService) GetChallengesByDifficulty(ctx context.Context, difficulty models.Difficulty) ([]models.Challenge, error) {
	return s.store.FindByDifficultyActive(ctx, difficulty)
}

// ListChallenges returns a page of active challenges.
func (s *ChallengeService) ListChallenges(ctx context.Context, page, size int) ([]models.Challenge, error) {
	all, err := s.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	start := page * size
	if start >= len(all) {
		return []models.Challenge{}, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (s *ChallengeService) SearchChallenges(ctx context.Context, query string, limit int) ([]models.Challenge, error) {
	return s.store.Search(ctx, query, limit)
}

// GetRandomChallenge picks one active challenge of the difficulty.
func (s *ChallengeService) GetRandomChallenge(ctx context.Context, difficulty models.Difficulty) (*models.Challenge, error) {
	pool, err := s.store.FindByDifficultyActive(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, models.NewError(models.KindInsufficientData, "no active challenges for difficulty %s", difficulty)
	}
	s.rngMu.Lock()
	idx := s.rng.Intn(len(pool))
	s.rngMu.Unlock()
	return &pool[idx], nil
}

type UpdateChallengeRequest struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	TimeLimit     int      `json:"time_limit"`
	BaseScore     int      `json:"base_score"`
	Hints         []string `json:"hints"`
	Tags          []string `json:"tags"`
}

func (s *ChallengeService) UpdateChallenge(ctx context.Context, id string, req *UpdateChallengeRequest) (*models.Challenge, error) {
	challenge, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		challenge.Title = req.Title
	}
	if req.Description != "" {
		challenge.Description = req.Description
	}
	if req.Question != "" {
		challenge.Question = req.Question
	}
	if len(req.Options) > 0 {
		challenge.Options = req.Options
	}
	if req.CorrectAnswer != "" {
		challenge.CorrectAnswer = req.CorrectAnswer
	}
	if req.Explanation != "" {
		challenge.Explanation = req.Explanation
	}
	if req.TimeLimit > 0 {
		challenge.TimeLimit = req.TimeLimit
	}
	if req.BaseScore > 0 {
		challenge.BaseScore = req.BaseScore
	}
	if len(req.Hints) > 0 {
		challenge.Hints = req.Hints
	}
	if len(req.Tags) > 0 {
		challenge.Tags = req.Tags
	}

	if err := s.store.Save(ctx, challenge); err != nil {
		return nil, models.NewError(models.KindInternal, "failed to update challenge: %v", err)
	}
	return challenge, nil
}

// DeleteChallenge soft-deletes: the challenge leaves the active pool
// but stays referenced by finished games.
func (s *ChallengeService) DeleteChallenge(ctx context.Context, id string) error {
	challenge, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	challenge.IsActive = false
	if err := s.store.Save(ctx, challenge); err != nil {
		return models.NewError(models.KindInternal, "failed to deactivate challenge: %v", err)
	}
	return nil
}

// SelectForGame draws count challenges of the difficulty without
// repetition, in random order. The draw is a single shuffle over the
// eligible pool so no candidate is favoured by re-draws.
func (s *ChallengeService) SelectForGame(ctx context.Context, difficulty models.Difficulty, count int) ([]models.Challenge, error) {
	pool, err := s.store.FindByDifficultyActive(ctx, difficulty)
	if err != nil {
		return nil, models.NewError(models.KindInternal, "failed to load challenge pool: %v", err)
	}
	if len(pool) < count {
		return nil, models.NewError(models.KindInsufficientData,
			"not enough challenges for difficulty %s: have %d, need %d", difficulty, len(pool), count)
	}

	drawn := make([]models.Challenge, len(pool))
	copy(drawn, pool)
	s.rngMu.Lock()
	s.rng.Shuffle(len(drawn), func(i, j int) {
		drawn[i], drawn[j] = drawn[j], drawn[i]
	})
	s.rngMu.Unlock()

	return drawn[:count], nil
}

// SeedDefaults loads the starter question set when the bank is empty.
func (s *ChallengeService) SeedDefaults(ctx context.Context) error {
	n, err := s.store.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for _, c := range defaultChallenges() {
		challenge := c
		if err := s.store.Save(ctx, &challenge); err != nil {
			return models.NewError(models.KindInternal, "failed to seed challenges: %v", err)
		}
	}
	s.log.Infow("seeded default challenges", "count", len(defaultChallenges()))
	return nil
}

func defaultChallenges() []models.Challenge {
	now := time.Now()
	return []models.Challenge{
		{
			ID:            uuid.New().String(),
			Title:         "Basic Addition",
			Description:   "Simple arithmetic",
			Type:          models.ChallengeMultipleChoice,
			Difficulty:    models.DifficultyEasy,
			Question:      "What is 15 + 27?",
			Options:       []string{"40", "42", "44", "46"},
			CorrectAnswer: "42",
			Explanation:   "15 + 27 = 42",
			TimeLimit:     30,
			BaseScore:     100,
			Tags:          []string{"math", "addition"},
			CreatedAt:     now,
			IsActive:      true,
		},
		{
			ID:            uuid.New().String(),
			Title:         "Logical Sequence",
			Description:   "Find the next number in the sequence",
			Type:          models.ChallengeMultipleChoice,
			Difficulty:    models.DifficultyEasy,
			Question:      "2, 4, 6, 8, ?",
			Options:       []string{"9", "10", "11", "12"},
			CorrectAnswer: "10",
			Explanation:   "Consecutive even numbers",
			TimeLimit:     45,
			BaseScore:     120,
			Tags:          []string{"logic", "sequence"},
			CreatedAt:     now,
			IsActive:      true,
		},
		{
			ID:            uuid.New().String(),
			Title:         "Factorial",
			Description:   "Compute the factorial of a number",
			Type:          models.ChallengeMultipleChoice,
			Difficulty:    models.DifficultyMedium,
			Question:      "What is 5! ?",
			Options:       []string{"60", "120", "125", "150"},
			CorrectAnswer: "120",
			Explanation:   "5! = 5 x 4 x 3 x 2 x 1 = 120",
			TimeLimit:     60,
			BaseScore:     200,
			Tags:          []string{"math", "factorial"},
			CreatedAt:     now,
			IsActive:      true,
		},
		{
			ID:            uuid.New().String(),
			Title:         "Sorting Complexity",
			Description:   "Average-case complexity of sorting algorithms",
			Type:          models.ChallengeMultipleChoice,
			Difficulty:    models.DifficultyMedium,
			Question:      "What is the average time complexity of QuickSort?",
			Options:       []string{"O(n)", "O(n log n)", "O(n^2)", "O(log n)"},
			CorrectAnswer: "O(n log n)",
			Explanation:   "QuickSort averages O(n log n)",
			TimeLimit:     90,
			BaseScore:     250,
			Tags:          []string{"algorithms", "complexity"},
			CreatedAt:     now,
			IsActive:      true,
		},
		{
			ID:            uuid.New().String(),
			Title:         "Towers of Hanoi",
			Description:   "Minimum moves",
			Type:          models.ChallengeOpenAnswer,
			Difficulty:    models.DifficultyHard,
			Question:      "How many moves are needed to solve Towers of Hanoi with 4 disks?",
			CorrectAnswer: "15",
			Explanation:   "2^n - 1 with n=4 gives 15",
			TimeLimit:     120,
			BaseScore:     400,
			Hints:         []string{"Use the formula 2^n - 1", "n is the number of disks"},
			Tags:          []string{"recursion", "hanoi"},
			CreatedAt:     now,
			IsActive:      true,
		},
		{
			ID:            uuid.New().String(),
			Title:         "Fibonacci",
			Description:   "Fibonacci numbers",
			Type:          models.ChallengeOpenAnswer,
			Difficulty:    models.DifficultyHard,
			Question:      "What is the 10th Fibonacci number? (F(0)=0, F(1)=1)",
			CorrectAnswer: "55",
			Explanation:   "0,1,1,2,3,5,8,13,21,34,55",
			TimeLimit:     150,
			BaseScore:     450,
			Tags:          []string{"fibonacci", "sequences"},
			CreatedAt:     now,
			IsActive:      true,
		},
	}
}
