package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ghumahchegu/tuition-api/internal/models"
	"github.com/ghumahchegu/tuition-api/internal/schedule"
	appErrors "github.com/ghumahchegu/tuition-api/pkg/errors"
)

// agendaInvalidator is implemented by the agenda service so writers can
// drop cached day views after subject or roster changes.
type agendaInvalidator interface {
	InvalidateAgenda(ctx context.Context) error
}

type agendaCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type agendaMetrics interface {
	RecordCacheLookup(hit bool)
	ObserveAgendaBuild(duration time.Duration)
}

const agendaCacheKeyPrefix = "agenda:"

// AgendaConfig tunes agenda caching.
type AgendaConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AgendaResult is the day view plus cache provenance for the response meta.
type AgendaResult struct {
	Date    string           `json:"date"`
	Entries []schedule.Entry `json:"entries"`
	FromCache bool           `json:"-"`
}

// AgendaService assembles the classes occurring on a calendar date. The
// heavy lifting is the pure schedule package; this service fetches the
// record snapshot for the scope and optionally caches the assembled view.
type AgendaService struct {
	subjects    subjectRepository
	assignments assignmentRepository
	students    studentRepository
	cache       agendaCache
	metrics     agendaMetrics
	cfg         AgendaConfig
	logger      *zap.Logger
}

// NewAgendaService constructs the agenda service. metrics may be nil.
func NewAgendaService(subjects subjectRepository, assignments assignmentRepository, students studentRepository, cache agendaCache, metrics agendaMetrics, cfg AgendaConfig, logger *zap.Logger) *AgendaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AgendaService{subjects: subjects, assignments: assignments, students: students, cache: cache, metrics: metrics, cfg: cfg, logger: logger}
}

// ForDate returns the agenda for one calendar date ("YYYY-MM-DD"). An empty
// date defaults to today in local time.
func (s *AgendaService) ForDate(ctx context.Context, scope models.Scope, date string) (*AgendaResult, error) {
	if date == "" {
		date = schedule.FormatDate(time.Now())
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	cacheKey := s.cacheKey(scope, date)
	if s.cacheEnabled() {
		var cached AgendaResult
		err := s.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.RecordCacheLookup(true)
			}
			cached.FromCache = true
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.RecordCacheLookup(false)
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("agenda cache read failed", zap.Error(err))
		}
	}

	buildStart := time.Now()

	teacherID := ""
	if !scope.Unrestricted() {
		teacherID = scope.TeacherID
	}

	subjects, err := s.subjects.ListAll(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	filter := models.AssignmentFilter{TeacherID: teacherID}
	assignments, err := s.assignments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	students, err := s.students.ListAll(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	result := &AgendaResult{
		Date:    date,
		Entries: schedule.BuildAgenda(date, subjects, assignments, students),
	}
	if s.metrics != nil {
		s.metrics.ObserveAgendaBuild(time.Since(buildStart))
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cacheKey, result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("agenda cache write failed", zap.Error(err))
		}
	}
	return result, nil
}

// InvalidateAgenda drops every cached day view. Called after subject or
// roster writes.
func (s *AgendaService) InvalidateAgenda(ctx context.Context) error {
	if !s.cacheEnabled() {
		return nil
	}
	return s.cache.DeleteByPattern(ctx, agendaCacheKeyPrefix+"*")
}

func (s *AgendaService) cacheEnabled() bool {
	return s.cache != nil && s.cfg.CacheEnabled
}

func (s *AgendaService) cacheKey(scope models.Scope, date string) string {
	owner := scope.TeacherID
	if scope.Unrestricted() {
		owner = "all"
	}
	return fmt.Sprintf("%s%s:%s", agendaCacheKeyPrefix, owner, date)
}
