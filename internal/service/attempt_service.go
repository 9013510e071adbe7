package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prepstack/mockexam-backend/internal/config"
	"github.com/prepstack/mockexam-backend/internal/engine"
	"github.com/prepstack/mockexam-backend/internal/model"
	"github.com/prepstack/mockexam-backend/internal/repository"
	ws "github.com/prepstack/mockexam-backend/internal/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Attempt service errors.
var (
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptCompleted = errors.New("attempt already completed")
)

// resultPayload is the queue message for final score persistence.
type resultPayload struct {
	AttemptID    string  `json:"attempt_id"`
	AssessmentID string  `json:"assessment_id"`
	CandidateID  int     `json:"candidate_id"`
	Score        float64 `json:"score"`
}

// snapshotPayload is the queue message for durable snapshot persistence.
type snapshotPayload struct {
	AttemptID string          `json:"attempt_id"`
	Snapshot  json.RawMessage `json:"snapshot"`
}

// AttemptService runs live attempts. Each in-progress attempt is backed by
// an in-memory engine session holding the authoritative clock and state;
// Redis holds the hot snapshot for resume, the workers persist results and
// snapshots to PostgreSQL off the request path.
type AttemptService struct {
	cfg            *config.Config
	contentService *ContentService
	attemptRepo    *repository.AttemptRepository
	snapshotRepo   *repository.SnapshotRepository
	rdb            *redis.Client
	hub            *ws.Hub
	log            zerolog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*engine.Session
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	cfg *config.Config,
	contentService *ContentService,
	attemptRepo *repository.AttemptRepository,
	snapshotRepo *repository.SnapshotRepository,
	rdb *redis.Client,
	hub *ws.Hub,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		cfg:            cfg,
		contentService: contentService,
		attemptRepo:    attemptRepo,
		snapshotRepo:   snapshotRepo,
		rdb:            rdb,
		hub:            hub,
		log:            log.With().Str("component", "attempt_service").Logger(),
		sessions:       make(map[uuid.UUID]*engine.Session),
	}
}

// Start begins or resumes a candidate's attempt on a published assessment.
// One attempt per candidate per assessment: a second start while in progress
// resumes, a start after completion is rejected.
func (s *AttemptService) Start(ctx context.Context, assessmentID uuid.UUID, candidateID int) (*model.Attempt, engine.Snapshot, error) {
	existing, err := s.attemptRepo.GetByAssessmentAndCandidate(ctx, assessmentID, candidateID)
	if err != nil && !errors.Is(err, repository.ErrNoAttempt) {
		return nil, engine.Snapshot{}, fmt.Errorf("get attempt: %w", err)
	}

	if existing != nil {
		if existing.Status == model.AttemptStatusCompleted {
			return nil, engine.Snapshot{}, ErrAttemptCompleted
		}
		snap, resumeErr := s.resumeSession(ctx, existing)
		if resumeErr != nil {
			return nil, engine.Snapshot{}, resumeErr
		}
		return existing, snap, nil
	}

	def, err := s.contentService.LoadDefinition(ctx, assessmentID)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}
	plan, err := engine.Compile(def)
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	attempt := &model.Attempt{
		AssessmentID: assessmentID,
		CandidateID:  candidateID,
		StartedAt:    time.Now(),
		Status:       model.AttemptStatusInProgress,
	}
	if err := s.attemptRepo.Create(ctx, attempt); err != nil {
		return nil, engine.Snapshot{}, fmt.Errorf("create attempt: %w", err)
	}

	sess := s.buildSession(plan, attempt)
	s.mu.Lock()
	s.sessions[attempt.ID] = sess
	s.mu.Unlock()

	s.rdb.Set(ctx, config.CacheKey.CandidateActiveAttemptKey(candidateID), attempt.ID.String(), 0)

	snap, err := sess.Start()
	if err != nil {
		return nil, engine.Snapshot{}, err
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Str("assessment_id", assessmentID.String()).
		Int("candidate_id", candidateID).
		Msg("Attempt started")
	return attempt, snap, nil
}

// Select focuses a question in the candidate's active attempt.
func (s *AttemptService) Select(ctx context.Context, assessmentID uuid.UUID, candidateID int, questionID string) (engine.Snapshot, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.Select(questionID)
}

// SubmitAnswer submits or overwrites an answer value.
func (s *AttemptService) SubmitAnswer(ctx context.Context, assessmentID uuid.UUID, candidateID int, questionID, value string) (engine.Snapshot, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.SubmitAnswer(questionID, value)
}

// ToggleMark flips the review flag on a question.
func (s *AttemptService) ToggleMark(ctx context.Context, assessmentID uuid.UUID, candidateID int, questionID string) (engine.Snapshot, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.ToggleMark(questionID)
}

// AdvanceSection moves from a locked section into the next one.
func (s *AttemptService) AdvanceSection(ctx context.Context, assessmentID uuid.UUID, candidateID int) (engine.Snapshot, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.AdvanceSection()
}

// SubmitExam finishes the attempt early.
func (s *AttemptService) SubmitExam(ctx context.Context, assessmentID uuid.UUID, candidateID int) (engine.Snapshot, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.SubmitExam()
}

// Snapshot returns the attempt's current read-only snapshot.
func (s *AttemptService) Snapshot(ctx context.Context, assessmentID uuid.UUID, candidateID int) (engine.Snapshot, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	return sess.Snapshot(), nil
}

// Palette returns the navigation palette for the active section.
func (s *AttemptService) Palette(ctx context.Context, assessmentID uuid.UUID, candidateID int) ([]engine.PaletteEntry, error) {
	sess, _, err := s.liveSession(ctx, assessmentID, candidateID)
	if err != nil {
		return nil, err
	}
	return sess.Palette(), nil
}

// Score returns the attempt's score. For an in-progress attempt this is a
// provisional preview; for a completed one the stored final result.
func (s *AttemptService) Score(ctx context.Context, assessmentID uuid.UUID, candidateID int) (engine.ScoreResult, error) {
	attempt, err := s.attemptRepo.GetByAssessmentAndCandidate(ctx, assessmentID, candidateID)
	if errors.Is(err, repository.ErrNoAttempt) {
		return engine.ScoreResult{}, ErrAttemptNotFound
	}
	if err != nil {
		return engine.ScoreResult{}, fmt.Errorf("get attempt: %w", err)
	}

	// Completed attempts score from the final snapshot without reviving a
	// live session.
	if attempt.Status == model.AttemptStatusCompleted {
		return s.scoreFromSnapshot(ctx, attempt)
	}

	sess, _, err := s.sessionFor(ctx, attempt)
	if err != nil {
		return engine.ScoreResult{}, err
	}
	return sess.Score(), nil
}

// scoreFromSnapshot recomputes the full score breakdown of a finished
// attempt from its persisted terminal snapshot.
func (s *AttemptService) scoreFromSnapshot(ctx context.Context, attempt *model.Attempt) (engine.ScoreResult, error) {
	def, err := s.contentService.LoadDefinition(ctx, attempt.AssessmentID)
	if err != nil {
		return engine.ScoreResult{}, err
	}
	plan, err := engine.Compile(def)
	if err != nil {
		return engine.ScoreResult{}, err
	}

	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptSnapshotKey(attempt.ID.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return engine.ScoreResult{}, fmt.Errorf("get snapshot: %w", err)
		}
		raw, err = s.snapshotRepo.Get(ctx, attempt.ID)
		if err != nil {
			return engine.ScoreResult{}, fmt.Errorf("load snapshot: %w", err)
		}
	}

	snap, err := engine.UnmarshalSnapshot(raw)
	if err != nil {
		return engine.ScoreResult{}, err
	}

	return engine.Score(plan, engine.RestoreState(snap), engine.DefaultMarkingScheme()), nil
}

// SnapshotByAttempt returns the live snapshot for an attempt id. Used by the
// WebSocket time sync path.
func (s *AttemptService) SnapshotByAttempt(attemptID uuid.UUID) (engine.Snapshot, error) {
	s.mu.RLock()
	sess, ok := s.sessions[attemptID]
	s.mu.RUnlock()
	if !ok {
		return engine.Snapshot{}, ErrAttemptNotFound
	}
	return sess.Snapshot(), nil
}

// AttemptFor returns the attempt row for a candidate on an assessment.
func (s *AttemptService) AttemptFor(ctx context.Context, assessmentID uuid.UUID, candidateID int) (*model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByAssessmentAndCandidate(ctx, assessmentID, candidateID)
	if errors.Is(err, repository.ErrNoAttempt) {
		return nil, ErrAttemptNotFound
	}
	return attempt, err
}

// CloseAll cancels every live countdown. Called on shutdown; state is safe
// because the latest snapshots are already in Redis and the snapshot worker
// drains its queue before exit.
func (s *AttemptService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		sess.Close()
		delete(s.sessions, id)
	}
}

// ─── Internal ───────────────────────────────────────────────────────

// liveSession resolves the candidate's in-progress attempt and its session,
// rebuilding the session from the last snapshot after a restart.
func (s *AttemptService) liveSession(ctx context.Context, assessmentID uuid.UUID, candidateID int) (*engine.Session, *model.Attempt, error) {
	attempt, err := s.attemptRepo.GetByAssessmentAndCandidate(ctx, assessmentID, candidateID)
	if errors.Is(err, repository.ErrNoAttempt) {
		return nil, nil, ErrAttemptNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status == model.AttemptStatusCompleted {
		return nil, nil, ErrAttemptCompleted
	}
	return s.sessionFor(ctx, attempt)
}

// sessionFor returns the in-memory session for an attempt, restoring it from
// the persisted snapshot if the process restarted since the attempt began.
func (s *AttemptService) sessionFor(ctx context.Context, attempt *model.Attempt) (*engine.Session, *model.Attempt, error) {
	s.mu.RLock()
	sess, ok := s.sessions[attempt.ID]
	s.mu.RUnlock()
	if ok {
		return sess, attempt, nil
	}

	if _, err := s.resumeSession(ctx, attempt); err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	sess = s.sessions[attempt.ID]
	s.mu.RUnlock()
	return sess, attempt, nil
}

// resumeSession rebuilds an attempt's session from its latest snapshot,
// Redis first with a PostgreSQL fallback. If a session already exists it is
// returned as-is.
func (s *AttemptService) resumeSession(ctx context.Context, attempt *model.Attempt) (engine.Snapshot, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[attempt.ID]; ok {
		s.mu.Unlock()
		return sess.Snapshot(), nil
	}
	s.mu.Unlock()

	def, err := s.contentService.LoadDefinition(ctx, attempt.AssessmentID)
	if err != nil {
		return engine.Snapshot{}, err
	}
	plan, err := engine.Compile(def)
	if err != nil {
		return engine.Snapshot{}, err
	}

	raw, err := s.rdb.Get(ctx, config.CacheKey.AttemptSnapshotKey(attempt.ID.String())).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return engine.Snapshot{}, fmt.Errorf("get snapshot: %w", err)
		}
		raw, err = s.snapshotRepo.Get(ctx, attempt.ID)
		if err != nil {
			return engine.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
		}
	}

	snap, err := engine.UnmarshalSnapshot(raw)
	if err != nil {
		return engine.Snapshot{}, err
	}

	sess := s.buildSession(plan, attempt)

	s.mu.Lock()
	// Another request may have resumed concurrently; keep the first winner.
	if existing, ok := s.sessions[attempt.ID]; ok {
		s.mu.Unlock()
		sess.Close()
		return existing.Snapshot(), nil
	}
	s.sessions[attempt.ID] = sess
	s.mu.Unlock()

	out, err := sess.Resume(snap)
	if err != nil {
		s.mu.Lock()
		delete(s.sessions, attempt.ID)
		s.mu.Unlock()
		sess.Close()
		return engine.Snapshot{}, err
	}

	s.log.Info().
		Str("attempt_id", attempt.ID.String()).
		Int("section_index", out.CurrentSectionIndex).
		Msg("Attempt resumed")
	return out, nil
}

// buildSession wires an engine session's hooks to the snapshot autosave, the
// persistence queues, and the WebSocket hub. Hooks run on the session's own
// goroutines, so they use a background context.
func (s *AttemptService) buildSession(plan *engine.Plan, attempt *model.Attempt) *engine.Session {
	attemptID := attempt.ID
	assessmentID := attempt.AssessmentID
	candidateID := attempt.CandidateID

	hooks := engine.Hooks{
		OnStateChanged: func(snap engine.Snapshot) {
			s.autosave(attemptID, snap)
		},
		OnSectionExpired: func(sectionID string) {
			s.hub.Publish(attemptID.String(), ws.SectionExpiredEvent{
				Event:     ws.EventSectionExpired,
				SectionID: sectionID,
			})
		},
		OnExamCompleted: func(result engine.ScoreResult) {
			s.finalize(attemptID, assessmentID, candidateID, result)
		},
	}

	return engine.NewSession(plan, s.cfg.TickInterval, engine.DefaultMarkingScheme(), hooks, s.log)
}

// autosave writes the hot snapshot to Redis and enqueues durable
// persistence. The Redis copy is what resume reads, so it is written
// synchronously in the hook; PostgreSQL lags behind via the worker.
func (s *AttemptService) autosave(attemptID uuid.UUID, snap engine.Snapshot) {
	ctx := context.Background()

	raw, err := engine.MarshalSnapshot(snap)
	if err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Marshal snapshot failed")
		return
	}

	if err := s.rdb.Set(ctx, config.CacheKey.AttemptSnapshotKey(attemptID.String()), raw, 0).Err(); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Autosave to Redis failed")
	}

	payload, _ := json.Marshal(snapshotPayload{AttemptID: attemptID.String(), Snapshot: raw})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSnapshotsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Enqueue snapshot failed")
	}
}

// finalize enqueues the final score for persistence, notifies the client,
// and retires the in-memory session.
func (s *AttemptService) finalize(attemptID, assessmentID uuid.UUID, candidateID int, result engine.ScoreResult) {
	ctx := context.Background()

	payload, _ := json.Marshal(resultPayload{
		AttemptID:    attemptID.String(),
		AssessmentID: assessmentID.String(),
		CandidateID:  candidateID,
		Score:        result.TotalScore,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("attempt_id", attemptID.String()).Msg("Enqueue result failed")
	}

	s.rdb.Del(ctx, config.CacheKey.CandidateActiveAttemptKey(candidateID))

	s.hub.Publish(attemptID.String(), ws.ExamCompletedEvent{
		Event:      ws.EventExamCompleted,
		TotalScore: result.TotalScore,
	})

	s.mu.Lock()
	if sess, ok := s.sessions[attemptID]; ok {
		sess.Close()
		delete(s.sessions, attemptID)
	}
	s.mu.Unlock()

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("total_score", result.TotalScore).
		Msg("Attempt finalized")
}
