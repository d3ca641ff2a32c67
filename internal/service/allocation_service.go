package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/tms-allocation-api/internal/dto"
	"github.com/noah-isme/tms-allocation-api/internal/models"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
)

// EventSink receives the result events emitted after every command.
type EventSink interface {
	Publish(event models.AllocationEvent)
}

// EventSinkFunc allows using plain functions as sinks.
type EventSinkFunc func(event models.AllocationEvent)

// Publish implements EventSink.
func (f EventSinkFunc) Publish(event models.AllocationEvent) { f(event) }

type institutionReader interface {
	FindByID(ctx context.Context, id string) (*models.InstitutionProfile, error)
}

// AllocationServiceConfig governs session behaviour.
type AllocationServiceConfig struct {
	SessionTTL       time.Duration
	DefaultExclusion ExclusionRule
	DefaultProfile   models.InstitutionProfile
}

// AllocationService hosts the allocation editing sessions. Each session
// owns one mutable table with a single writer; commands are applied
// under the session lock, and every applied command triggers a fresh
// validation against the feed snapshot of that moment.
type AllocationService struct {
	cfg          AllocationServiceConfig
	directory    TrainerDirectory
	feed         *FeedService
	institutions institutionReader
	validator    *validator.Validate
	logger       *zap.Logger
	events       EventSink
	metrics      *MetricsService
	store        *sessionStore
}

// NewAllocationService wires the session host.
func NewAllocationService(
	directory TrainerDirectory,
	feed *FeedService,
	institutions institutionReader,
	events EventSink,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationServiceConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 4 * time.Hour
	}
	if cfg.DefaultExclusion == "" {
		cfg.DefaultExclusion = ExcludeNone
	}
	return &AllocationService{
		cfg:          cfg,
		directory:    directory,
		feed:         feed,
		institutions: institutions,
		validator:    validate,
		logger:       logger,
		events:       events,
		metrics:      metrics,
		store:        newSessionStore(cfg.SessionTTL),
	}
}

// Open starts a session for one training at one college, loading the
// institution's workday profile.
func (s *AllocationService) Open(ctx context.Context, req dto.OpenSessionRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid open session payload")
	}
	rule := ExclusionRule(req.ExclusionRule)
	if req.ExclusionRule == "" {
		rule = s.cfg.DefaultExclusion
	}

	profile := s.cfg.DefaultProfile
	if s.institutions != nil {
		found, err := s.institutions.FindByID(ctx, req.CollegeID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load institution profile")
			}
		} else {
			profile = *found
		}
	}

	session := &allocationSession{
		id:          uuid.NewString(),
		trainingID:  req.TrainingID,
		collegeID:   req.CollegeID,
		collegeName: profile.Name,
		model: &AllocationModel{
			Rule:    rule,
			Profile: profile,
		},
		parked: make(map[string][]*models.SpecializationRow),
	}
	session.markUpdated()
	s.store.Save(session)
	return s.view(session), nil
}

// Get returns the current state of a session.
func (s *AllocationService) Get(sessionID string) (*dto.SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return s.view(session), nil
}

// SelectDomain adds a domain's courses to the table, restoring parked
// rows from an earlier deselection before auto-populating the rest.
func (s *AllocationService) SelectDomain(sessionID string, req dto.SelectDomainRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid select domain payload")
	}
	return s.apply(sessionID, "SelectDomain", func(session *allocationSession) error {
		if parked, ok := session.parked[req.Domain]; ok {
			session.model.Table = append(session.model.Table, parked...)
			delete(session.parked, req.Domain)
		}
		for _, course := range req.Courses {
			session.model.EnsureRow(req.Domain, course.Specialization, course.StudentCount, course.TotalHours)
		}
		return nil
	})
}

// DeselectDomain removes a domain's rows from the table but parks the
// data for possible re-selection.
func (s *AllocationService) DeselectDomain(sessionID string, req dto.DeselectDomainRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid deselect domain payload")
	}
	return s.apply(sessionID, "DeselectDomain", func(session *allocationSession) error {
		var kept models.AllocationTable
		var parked []*models.SpecializationRow
		for _, row := range session.model.Table {
			if row.Domain == req.Domain {
				parked = append(parked, row)
				continue
			}
			kept = append(kept, row)
		}
		session.model.Table = kept
		if len(parked) > 0 {
			session.parked[req.Domain] = parked
		}
		return nil
	})
}

// AddBatch appends a batch to a row.
func (s *AllocationService) AddBatch(sessionID string, req dto.RowRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "AddBatch", func(session *allocationSession) error {
		return session.model.AddBatch(req.Row)
	})
}

// RemoveBatch removes a batch from a row.
func (s *AllocationService) RemoveBatch(sessionID string, req dto.BatchRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "RemoveBatch", func(session *allocationSession) error {
		return session.model.RemoveBatch(req.Row, req.Batch)
	})
}

// SetStudentsAssigned updates a batch's student count.
func (s *AllocationService) SetStudentsAssigned(sessionID string, req dto.SetStudentsRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "SetStudentsAssigned", func(session *allocationSession) error {
		return session.model.SetStudentsAssigned(req.Row, req.Batch, req.Value)
	})
}

// SetHoursBudget updates a batch's hour budget.
func (s *AllocationService) SetHoursBudget(sessionID string, req dto.SetHoursBudgetRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "SetHoursBudget", func(session *allocationSession) error {
		return session.model.SetHoursBudget(req.Row, req.Batch, req.Value)
	})
}

// AddTrainer appends an empty assignment to a batch.
func (s *AllocationService) AddTrainer(sessionID string, req dto.BatchRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "AddTrainer", func(session *allocationSession) error {
		return session.model.AddTrainer(req.Row, req.Batch)
	})
}

// RemoveTrainer drops an assignment from a batch.
func (s *AllocationService) RemoveTrainer(sessionID string, req dto.TrainerKeyRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "RemoveTrainer", func(session *allocationSession) error {
		return session.model.RemoveTrainer(req.Row, req.Batch, req.Trainer)
	})
}

// SetTrainerField edits one assignment field, running the batch-local
// availability pre-check for slot and date changes.
func (s *AllocationService) SetTrainerField(ctx context.Context, sessionID string, req dto.TrainerFieldRequest) (*dto.SessionView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid trainer field payload")
	}
	key := models.AssignmentKey{Row: req.Row, Batch: req.Batch, Trainer: req.Trainer}
	return s.apply(sessionID, "SetTrainerField", func(session *allocationSession) error {
		return session.model.SetTrainerField(ctx, s.directory, key, req.Field, req.Value)
	})
}

// SetTrainerTotalHours redistributes a trainer's total hours.
func (s *AllocationService) SetTrainerTotalHours(sessionID string, req dto.SetTotalHoursRequest) (*dto.SessionView, error) {
	key := models.AssignmentKey{Row: req.Row, Batch: req.Batch, Trainer: req.Trainer}
	return s.apply(sessionID, "SetTrainerTotalHours", func(session *allocationSession) error {
		return session.model.SetTrainerTotalHours(key, req.Value)
	})
}

// SetTrainerDailyHours edits one day's hours for a trainer.
func (s *AllocationService) SetTrainerDailyHours(sessionID string, req dto.SetDailyHoursRequest) (*dto.SessionView, error) {
	key := models.AssignmentKey{Row: req.Row, Batch: req.Batch, Trainer: req.Trainer}
	return s.apply(sessionID, "SetTrainerDailyHours", func(session *allocationSession) error {
		return session.model.SetTrainerDailyHours(key, req.DayIndex, req.Value)
	})
}

// Merge collapses two rows into one, keeping a one-shot undo snapshot.
func (s *AllocationService) Merge(sessionID string, req dto.MergeRequest) (*dto.SessionView, error) {
	view, err := s.apply(sessionID, "Merge", func(session *allocationSession) error {
		return session.model.MergeRows(req.SourceIndex, req.TargetIndex)
	})
	if err == nil && s.metrics != nil {
		s.metrics.CountMerge()
	}
	return view, err
}

// UndoMerge restores the two rows of a previous merge.
func (s *AllocationService) UndoMerge(sessionID string, req dto.UndoMergeRequest) (*dto.SessionView, error) {
	return s.apply(sessionID, "UndoMerge", func(session *allocationSession) error {
		return session.model.UndoMerge(req.Row)
	})
}

// Swap performs the cross-batch trainer exchange.
func (s *AllocationService) Swap(sessionID string, req dto.SwapRequest) (*dto.SessionView, error) {
	view, err := s.apply(sessionID, "Swap", func(session *allocationSession) error {
		snapshot := s.feedSnapshot()
		return session.model.ProposeSwap(snapshot.Records, req.Source.Key(), req.Target.Key())
	})
	if err == nil && s.metrics != nil {
		s.metrics.CountSwap()
	}
	return view, err
}

// Validate re-runs the full conflict scan for a session on demand.
func (s *AllocationService) Validate(sessionID string) (*models.ValidationReport, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	report := s.revalidate(session)
	return report, nil
}

// CurrentReport returns the report stored by the last command without
// recomputing it. A report computed against a superseded feed version
// is refused so hosts never act on stale conflict data; Validate
// produces a fresh one.
func (s *AllocationService) CurrentReport(sessionID string) (*models.ValidationReport, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if session.report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no validation report computed for this session yet")
	}
	if s.feed != nil && session.report.FeedVersion != s.feed.Version() {
		return nil, appErrors.Clone(appErrors.ErrStaleFeed, "")
	}
	return session.report, nil
}

// SessionState exposes the locked table and report for collaborating
// services (submission, export). The callback runs under the session
// lock and must not retain references past its return.
func (s *AllocationService) SessionState(sessionID string, fn func(session SessionState) error) error {
	session, err := s.session(sessionID)
	if err != nil {
		return err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return fn(SessionState{
		ID:          session.id,
		TrainingID:  session.trainingID,
		CollegeID:   session.collegeID,
		CollegeName: session.collegeName,
		Rule:        session.model.Rule,
		Table:       session.model.Table,
		Report:      session.report,
	})
}

// Revalidate recomputes the report for a session, used by the host
// whenever the feed version changes.
func (s *AllocationService) Revalidate(sessionID string) (*models.ValidationReport, error) {
	return s.Validate(sessionID)
}

// SessionState is the read view handed to collaborating services.
type SessionState struct {
	ID          string
	TrainingID  string
	CollegeID   string
	CollegeName string
	Rule        ExclusionRule
	Table       models.AllocationTable
	Report      *models.ValidationReport
}

func (s *AllocationService) apply(sessionID, command string, fn func(*allocationSession) error) (*dto.SessionView, error) {
	session, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()

	if err := fn(session); err != nil {
		s.publish(models.AllocationEvent{
			Kind:      models.EventRejected,
			SessionID: session.id,
			Command:   command,
			Reason:    err.Error(),
		})
		if s.metrics != nil {
			s.metrics.CountRejectedEdit(command)
		}
		return nil, err
	}
	session.markUpdated()
	s.publish(models.AllocationEvent{
		Kind:      models.EventApplied,
		SessionID: session.id,
		Command:   command,
	})
	report := s.revalidate(session)
	s.publish(models.AllocationEvent{
		Kind:      models.EventValidationChanged,
		SessionID: session.id,
		Command:   command,
		Report:    report,
	})
	return s.view(session), nil
}

// revalidate recomputes the conflict report against the feed snapshot
// of this instant. Callers hold the session lock.
func (s *AllocationService) revalidate(session *allocationSession) *models.ValidationReport {
	snapshot := s.feedSnapshot()
	report := NewConflictValidator(session.model.Rule).Validate(session.model.Table, snapshot)
	session.report = report
	if s.metrics != nil {
		s.metrics.ObserveValidation(len(report.Errors))
	}
	return report
}

func (s *AllocationService) feedSnapshot() *models.FeedSnapshot {
	if s.feed == nil {
		return &models.FeedSnapshot{}
	}
	return s.feed.Snapshot()
}

func (s *AllocationService) publish(event models.AllocationEvent) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

func (s *AllocationService) session(id string) (*allocationSession, error) {
	session, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation session not found or expired")
	}
	return session, nil
}

func (s *AllocationService) view(session *allocationSession) *dto.SessionView {
	return &dto.SessionView{
		ID:            session.id,
		TrainingID:    session.trainingID,
		CollegeID:     session.collegeID,
		CollegeName:   session.collegeName,
		ExclusionRule: string(session.model.Rule),
		Table:         session.model.Table,
		Report:        session.report,
	}
}

// --- Session store ---

type allocationSession struct {
	id          string
	trainingID  string
	collegeID   string
	collegeName string

	mu     sync.Mutex
	model  *AllocationModel
	parked map[string][]*models.SpecializationRow
	report *models.ValidationReport

	// unix nanos of the last applied command; atomic because the
	// store's TTL check reads it without the session lock
	updatedAt atomic.Int64
}

func (s *allocationSession) markUpdated() {
	s.updatedAt.Store(time.Now().UTC().UnixNano())
}

func (s *allocationSession) idleFor() time.Duration {
	return time.Since(time.Unix(0, s.updatedAt.Load()))
}

type sessionStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]*allocationSession
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		ttl:   ttl,
		items: make(map[string]*allocationSession),
	}
}

func (s *sessionStore) Save(session *allocationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[session.id] = session
}

func (s *sessionStore) Get(id string) (*allocationSession, bool) {
	s.mu.RLock()
	session, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if session.idleFor() > s.ttl {
		s.Delete(id)
		return nil, false
	}
	return session, true
}

func (s *sessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
