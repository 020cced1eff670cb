// Package store provides the persistent user store for ONEDI.
//
// It exposes a single Store interface with SQLite and PostgreSQL backends.
// The backend is selected automatically from the DSN shape.
package store

import (
	"strings"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string // database connection string
}

// Option defines a configuration option for store construction.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// Store defines the persistence operations consumed by the conversation
// handlers. All phone parameters are canonical digit-only numbers.
type Store interface {
	// GetUserByPhone returns the profile for a phone number, or nil if the
	// user has never registered.
	GetUserByPhone(phone string) (*models.UserProfile, error)

	// SaveUser upserts a profile keyed by phone. Optional zero-valued fields
	// never overwrite existing column values (COALESCE semantics). The
	// stored row is returned.
	SaveUser(profile models.UserProfile) (*models.UserProfile, error)

	// UpdateStreak bumps the day-streak counter based on the last-activity
	// date (yesterday: +1, today: unchanged, older: reset to 1) and stamps
	// the activity time. Returns the new streak value.
	UpdateStreak(phone string) (int, error)

	// UpdateCurrentLesson moves the user's lesson pointer.
	UpdateCurrentLesson(phone string, lessonID int) error

	// SaveLessonHistory upserts a lesson-history row keyed by user+lesson,
	// accumulating time spent on conflict.
	SaveLessonHistory(userID int64, lesson models.LessonRecord) error

	// AddStudySession appends a finished study-session record.
	AddStudySession(record models.StudySessionRecord) error

	// UpsertVocabulary inserts or refreshes a spaced-repetition entry,
	// extending the next-review interval with the knowledge level.
	UpsertVocabulary(entry models.VocabularyEntry) error

	// DueVocabulary returns up to limit entries whose next review is due.
	DueVocabulary(userID int64, limit int) ([]models.VocabularyEntry, error)

	// GetPlanStatus returns the plan snapshot for a phone number.
	// MinutesRemaining is -1 for an unexpired paid plan (unlimited).
	GetPlanStatus(phone string) (*models.PlanInfo, error)

	// ConsumeTrialMinutes deducts minutes from the trial budget and stamps
	// activity. Returns the remaining minutes (never negative).
	ConsumeTrialMinutes(phone string, minutes int) (int, error)

	// SetTestLanguage pins the trial language for a user.
	SetTestLanguage(phone, language string) error

	// ActivatePlan switches the user to an active paid plan with the given
	// entitled languages.
	ActivatePlan(phone string, planID int64, languages []string) error

	// SaveTestResult marks the adaptive test as completed and records its
	// outcome on the profile.
	SaveTestResult(userID int64, result models.TestResult) error

	// Close releases the underlying database handle.
	Close() error
}

// DetectDSNType determines the database type from a DSN string.
// Returns "postgres" for PostgreSQL connection strings, "sqlite" otherwise.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// NewStore creates the store backend matching the DSN shape.
func NewStore(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if DetectDSNType(cfg.DSN) == "postgres" {
		return NewPostgresStore(opts...)
	}
	return NewSQLiteStore(opts...)
}
