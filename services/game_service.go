package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AnderssonProgramming/code-arena-rt/models"
)

// GameService owns the game session state machine. Every mutating
// operation on a game serializes on that game's mutex, so concurrent
// submissions observe each other's state and a round can neither close
// twice nor be skipped. Round expiry is enforced both lazily (checked
// on every mutating call) and by an active per-round timer.
type GameService struct {
	mu    sync.RWMutex
	games map[string]*gameEntry

	store      GameStore
	challenges ChallengeStore
	selector   ChallengeSelector
	bc         Broadcaster
	stats      StatsRecorder
	log        *zap.SugaredLogger

	now         func() time.Time
	roundTimers bool
}

type gameEntry struct {
	mu   sync.Mutex
	game *models.Game
}

func NewGameService(store GameStore, challenges ChallengeStore, selector ChallengeSelector, bc Broadcaster, stats StatsRecorder, log *zap.SugaredLogger) *GameService {
	return &GameService{
		games:       make(map[string]*gameEntry),
		store:       store,
		challenges:  challenges,
		selector:    selector,
		bc:          bc,
		stats:       stats,
		log:         log,
		now:         time.Now,
		roundTimers: true,
	}
}

// CreateGame snapshots room membership and config into a new game in
// STARTING state, with one round per drawn challenge.
func (s *GameService) CreateGame(ctx context.Context, room *models.Room) (*models.Game, error) {
	challenges, err := s.selector.SelectForGame(ctx, room.Config.Difficulty, room.Config.TotalChallenges)
	if err != nil {
		return nil, err
	}

	now := s.now()
	players := make([]models.GamePlayer, len(room.Players))
	for i, rp := range room.Players {
		players[i] = models.GamePlayer{
			UserID:    rp.UserID,
			Username:  rp.Username,
			Connected: rp.Connected,
			JoinedAt:  rp.JoinedAt,
		}
	}

	rounds := make([]models.Round, len(challenges))
	for i, c := range challenges {
		rounds[i] = models.Round{
			ChallengeID: c.ID,
			Duration:    room.Config.TimePerChallenge,
		}
	}

	game := &models.Game{
		ID:        uuid.New().String(),
		RoomID:    room.ID,
		HostID:    room.HostID,
		Players:   players,
		Rounds:    rounds,
		Config:    room.Config,
		Status:    models.GameStarting,
		CreatedAt: now,
	}

	s.mu.Lock()
	s.games[game.ID] = &gameEntry{game: game}
	s.mu.Unlock()

	s.saveSnapshot(ctx, game)
	s.log.Infow("game created", "game_id", game.ID, "room_id", room.ID, "rounds", len(rounds))
	return game.Clone(), nil
}

// Start moves the game to IN_PROGRESS and opens round 0.
func (s *GameService) Start(ctx context.Context, gameID string) (*models.Game, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	game := entry.game
	if game.Status != models.GameWaiting && game.Status != models.GameStarting {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindInvalidState, "game cannot be started from status %s", game.Status)
	}
	if len(game.Rounds) == 0 {
		entry.mu.Unlock()
		return nil, models.NewError(models.KindInvalidState, "game has no rounds")
	}

	now := s.now()
	game.Status = models.GameInProgress
	game.StartedAt = &now
	game.CurrentRound = 0
	game.Rounds[0].StartedAt = now

	first, cerr := s.challenges.FindByID(ctx, game.Rounds[0].ChallengeID)
	s.saveSnapshot(ctx, game)
	s.scheduleRoundTimer(game.ID, 0, game.Rounds[0].Duration)
	snapshot := game.Clone()
	entry.mu.Unlock()

	if cerr != nil {
		s.log.Errorw("failed to load first challenge", "game_id", gameID, "error", cerr)
	} else {
		sanitized := first.Sanitized()
		s.bc.GameStarted(gameID, &sanitized)
	}
	s.log.Infow("game started", "game_id", gameID)
	return snapshot, nil
}

// SubmitAnswer records one player's answer against the open round. It
// returns the recorded answer synchronously; round completion and game
// finalization are notification-only side effects.
func (s *GameService) SubmitAnswer(ctx context.Context, gameID, userID, answer string) (*models.PlayerAnswer, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	var events []func()
	defer func() {
		for _, fire := range events {
			fire()
		}
	}()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	game := entry.game

	// Lazy expiry: a round past its budget closes on the next
	// observation. The triggering submission is then too late for it.
	if game.Status == models.GameInProgress {
		if round := game.OpenRound(); round != nil && round.Expired(s.now()) {
			s.closeRoundLocked(ctx, game, &events)
			s.saveSnapshot(ctx, game)
			events = append(events, func() {
				s.bc.ErrorTo(userID, "ROUND_EXPIRED", "round time is up")
			})
			return nil, models.NewError(models.KindInvalidState, "round time is up")
		}
	}

	if game.Status != models.GameInProgress {
		return nil, models.NewError(models.KindInvalidState, "game is not in progress")
	}
	round := game.OpenRound()
	if round == nil {
		return nil, models.NewError(models.KindInvalidState, "no open round")
	}

	idx := game.PlayerIndex(userID)
	if idx == -1 {
		return nil, models.NewError(models.KindNotFound, "player not in game")
	}
	player := &game.Players[idx]
	if player.Eliminated {
		return nil, models.NewError(models.KindInvalidState, "player has been eliminated")
	}
	if player.HasAnswered || round.HasAnswerFrom(userID) {
		return nil, models.NewError(models.KindDuplicateSubmission, "already answered this round")
	}

	challenge, err := s.challenges.FindByID(ctx, round.ChallengeID)
	if err != nil {
		return nil, models.NewError(models.KindInternal, "failed to load challenge: %v", err)
	}

	now := s.now()
	isCorrect := strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(challenge.CorrectAnswer))
	elapsed := now.Sub(round.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	points := Score(challenge, isCorrect, elapsed, game.Config.ScoringMode)

	// Streak accounting happens here, not in the scoring engine.
	if isCorrect {
		player.CurrentStreak++
		if player.CurrentStreak > player.BestStreak {
			player.BestStreak = player.CurrentStreak
		}
		if game.Config.ScoringMode == models.ScoringStreakBonus {
			points += StreakBonus(player.CurrentStreak)
		}
	} else {
		player.CurrentStreak = 0
		if game.Config.ScoringMode == models.ScoringElimination {
			player.Eliminated = true
			events = append(events, func() {
				s.bc.GameUpdated("PLAYER_ELIMINATED", gameID, player.Username, player.Username+" has been eliminated")
			})
		}
	}

	record := models.PlayerAnswer{
		UserID:      userID,
		ChallengeID: challenge.ID,
		Answer:      answer,
		IsCorrect:   isCorrect,
		ResponseMs:  elapsed.Milliseconds(),
		Points:      points,
		SubmittedAt: now,
	}

	player.Score += points
	player.AvgResponseMs = (player.AvgResponseMs*float64(player.TotalAnswers) + float64(record.ResponseMs)) / float64(player.TotalAnswers+1)
	player.TotalAnswers++
	if isCorrect {
		player.CorrectAnswers++
	}
	player.HasAnswered = true
	player.LastAnswerAt = &now

	round.Answers = append(round.Answers, record)

	stats := challenge.Stats
	stats.RecordAttempt(isCorrect, elapsed.Seconds())
	challenge.Stats = stats
	if err := s.challenges.Save(ctx, challenge); err != nil {
		s.log.Warnw("failed to persist challenge stats", "challenge_id", challenge.ID, "error", err)
	}

	username := player.Username
	events = append(events, func() {
		s.bc.AnswerResult(userID, record)
		// Broadcast never reveals correctness to the other players.
		s.bc.GameUpdated("ANSWER_SUBMITTED", gameID, username, username+" submitted an answer")
	})

	if s.roundCompleteLocked(game, round) {
		s.closeRoundLocked(ctx, game, &events)
	}

	s.saveSnapshot(ctx, game)
	return &record, nil
}

// EndGame forcibly finalizes. Only the host may call it; it is safe to
// run concurrently with in-flight submissions for the same game.
func (s *GameService) EndGame(ctx context.Context, gameID, userID string) (*models.Game, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	var events []func()
	defer func() {
		for _, fire := range events {
			fire()
		}
	}()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	game := entry.game

	if userID != "" && game.HostID != userID {
		return nil, models.NewError(models.KindForbidden, "only the host can end the game")
	}
	if !game.Status.CanTransition(models.GameFinished) {
		return nil, models.NewError(models.KindInvalidState, "game is already finished")
	}

	s.finalizeLocked(ctx, game, &events)
	s.saveSnapshot(ctx, game)
	return game.Clone(), nil
}

func (s *GameService) GetGameByID(gameID string) (*models.Game, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.game.Clone(), nil
}

// CurrentChallenge returns the open round's challenge with the correct
// answer stripped, or nil when no round is open.
func (s *GameService) CurrentChallenge(ctx context.Context, gameID string) (*models.Challenge, error) {
	entry, err := s.entry(gameID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	round := entry.game.OpenRound()
	var challengeID string
	if round != nil && entry.game.Status == models.GameInProgress {
		challengeID = round.ChallengeID
	}
	entry.mu.Unlock()

	if challengeID == "" {
		return nil, nil
	}
	challenge, err := s.challenges.FindByID(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	sanitized := challenge.Sanitized()
	return &sanitized, nil
}

// SetConnected flags a player's transport liveness. Disconnected
// players stop counting toward round completion.
func (s *GameService) SetConnected(ctx context.Context, gameID, userID string, connected bool) error {
	entry, err := s.entry(gameID)
	if err != nil {
		return err
	}

	var events []func()
	defer func() {
		for _, fire := range events {
			fire()
		}
	}()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	game := entry.game

	idx := game.PlayerIndex(userID)
	if idx == -1 {
		return models.NewError(models.KindNotFound, "player not in game")
	}
	game.Players[idx].Connected = connected

	// A disconnect can leave the open round waiting on nobody.
	if game.Status == models.GameInProgress {
		if round := game.OpenRound(); round != nil && s.roundCompleteLocked(game, round) {
			s.closeRoundLocked(ctx, game, &events)
		}
	}
	s.saveSnapshot(ctx, game)
	return nil
}

// roundCompleteLocked holds the game mutex. A round is complete when
// every connected, non-eliminated player has answered, or its time
// budget has elapsed (boundary inclusive).
func (s *GameService) roundCompleteLocked(game *models.Game, round *models.Round) bool {
	if round.Expired(s.now()) {
		return true
	}
	active := 0
	for _, p := range game.Players {
		if !p.Connected || p.Eliminated {
			continue
		}
		active++
		if !round.HasAnswerFrom(p.UserID) {
			return false
		}
	}
	return active > 0
}

// closeRoundLocked marks the current round closed and either opens the
// next round or finalizes the game. Holds the game mutex; broadcast
// work is deferred into events and fired after the lock is released.
func (s *GameService) closeRoundLocked(ctx context.Context, game *models.Game, events *[]func()) {
	round := &game.Rounds[game.CurrentRound]
	if round.Completed {
		return
	}
	round.Completed = true
	for i := range game.Players {
		game.Players[i].HasAnswered = false
	}

	if challenge, err := s.challenges.FindByID(ctx, round.ChallengeID); err == nil {
		challenge.Stats.TimesUsed++
		if err := s.challenges.Save(ctx, challenge); err != nil {
			s.log.Warnw("failed to persist challenge usage", "challenge_id", challenge.ID, "error", err)
		}
	}

	gameID := game.ID
	closedIndex := game.CurrentRound
	*events = append(*events, func() {
		s.bc.GameUpdated("ROUND_COMPLETED", gameID, "", "round completed")
	})
	s.log.Infow("round closed", "game_id", gameID, "round", closedIndex)

	if game.CurrentRound >= len(game.Rounds)-1 {
		s.finalizeLocked(ctx, game, events)
		return
	}

	game.CurrentRound++
	next := &game.Rounds[game.CurrentRound]
	next.StartedAt = s.now()
	s.scheduleRoundTimer(gameID, game.CurrentRound, next.Duration)

	nextIndex := game.CurrentRound
	if challenge, err := s.challenges.FindByID(ctx, next.ChallengeID); err == nil {
		sanitized := challenge.Sanitized()
		*events = append(*events, func() {
			s.bc.RoundStarted(gameID, nextIndex, &sanitized)
		})
	} else {
		s.log.Errorw("failed to load next challenge", "game_id", gameID, "round", nextIndex, "error", err)
	}
}

// finalizeLocked computes results and moves the game to FINISHED.
// Ranking is score descending with ties broken by join time (earliest
// first), so the final order is total and deterministic.
func (s *GameService) finalizeLocked(ctx context.Context, game *models.Game, events *[]func()) {
	if !game.Status.CanTransition(models.GameFinished) {
		return
	}
	now := s.now()
	game.Status = models.GameFinished
	game.FinishedAt = &now

	ordered := make([]models.GamePlayer, len(game.Players))
	copy(ordered, game.Players)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Score != ordered[j].Score {
			return ordered[i].Score > ordered[j].Score
		}
		if !ordered[i].JoinedAt.Equal(ordered[j].JoinedAt) {
			return ordered[i].JoinedAt.Before(ordered[j].JoinedAt)
		}
		return ordered[i].UserID < ordered[j].UserID
	})

	results := &models.GameResults{
		PlayerResults: make([]models.PlayerResult, len(ordered)),
		TotalRounds:   len(game.Rounds),
	}
	var scoreSum int
	var fastest int64 = -1
	for i, p := range ordered {
		results.PlayerResults[i] = models.PlayerResult{
			UserID:         p.UserID,
			Username:       p.Username,
			Rank:           i + 1,
			Score:          p.Score,
			CorrectAnswers: p.CorrectAnswers,
			TotalAnswers:   p.TotalAnswers,
			AvgResponseMs:  p.AvgResponseMs,
		}
		scoreSum += p.Score
	}
	for _, r := range game.Rounds {
		for _, a := range r.Answers {
			if fastest == -1 || a.ResponseMs < fastest {
				fastest = a.ResponseMs
			}
		}
	}
	if fastest == -1 {
		fastest = 0
	}
	if len(ordered) > 0 {
		results.WinnerID = ordered[0].UserID
		results.Stats.AverageScore = float64(scoreSum) / float64(len(ordered))
	}
	results.Stats.FastestAnswerMs = fastest
	game.Results = results

	var playSeconds int64
	if game.StartedAt != nil {
		playSeconds = int64(now.Sub(*game.StartedAt).Seconds())
	}

	gameID := game.ID
	finalPlayers := make([]models.PlayerResult, len(results.PlayerResults))
	copy(finalPlayers, results.PlayerResults)
	*events = append(*events, func() {
		s.bc.GameFinished(gameID, game.Results)
		for _, pr := range finalPlayers {
			won := pr.Rank == 1
			if err := s.stats.RecordGameResult(context.Background(), pr.UserID, won, pr.Score, playSeconds); err != nil {
				s.log.Warnw("failed to update user stats", "user_id", pr.UserID, "error", err)
			}
		}
	})
	s.log.Infow("game finished", "game_id", gameID, "winner", results.WinnerID)
}

// scheduleRoundTimer forces a round close at expiry even when no
// further submissions arrive. Stale timers no-op: every check re-runs
// under the game mutex.
func (s *GameService) scheduleRoundTimer(gameID string, roundIndex, durationSeconds int) {
	if !s.roundTimers {
		return
	}
	time.AfterFunc(time.Duration(durationSeconds)*time.Second, func() {
		s.expireRound(gameID, roundIndex)
	})
}

func (s *GameService) expireRound(gameID string, roundIndex int) {
	entry, err := s.entry(gameID)
	if err != nil {
		return
	}

	var events []func()
	defer func() {
		for _, fire := range events {
			fire()
		}
	}()

	entry.mu.Lock()
	defer entry.mu.Unlock()
	game := entry.game

	if game.Status != models.GameInProgress || game.CurrentRound != roundIndex {
		return
	}
	round := game.OpenRound()
	if round == nil || !round.Expired(s.now()) {
		return
	}

	ctx := context.Background()
	s.closeRoundLocked(ctx, game, &events)
	s.saveSnapshot(ctx, game)
}

func (s *GameService) entry(gameID string) (*gameEntry, error) {
	s.mu.RLock()
	entry, ok := s.games[gameID]
	s.mu.RUnlock()
	if !ok {
		return nil, models.NewError(models.KindNotFound, "game not found")
	}
	return entry, nil
}

func (s *GameService) saveSnapshot(ctx context.Context, game *models.Game) {
	if err := s.store.Save(ctx, game.Clone()); err != nil {
		s.log.Warnw("failed to persist game snapshot", "game_id", game.ID, "error", err)
	}
}
