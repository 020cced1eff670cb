// Package models defines the shared data types exchanged between the ONEDI
// modules: user profiles, plan information, inbound/outbound message events
// and persistence records.
package models

import "time"

// PlanStatus enumerates the subscription states a user can be in.
type PlanStatus string

// Plan status values as stored in the usuarios table.
const (
	PlanTrial   PlanStatus = "teste_gratuito"
	PlanActive  PlanStatus = "ativo"
	PlanExpired PlanStatus = "expirado"
)

// Level enumerates proficiency levels. Level is always derived from the
// score; it is stored denormalized for display and prompt building.
type Level string

// Proficiency levels, ordered.
const (
	LevelBeginner     Level = "iniciante"
	LevelBasic        Level = "básico"
	LevelIntermediate Level = "intermediário"
	LevelAdvanced     Level = "avançado"
	LevelFluent       Level = "fluente"
)

// Gender is the detected grammatical gender used to pick the professor
// persona and the TTS voice.
type Gender string

// Genders recognized by the persona/voice tables.
const (
	GenderMasculine Gender = "masculino"
	GenderFeminine  Gender = "feminino"
)

// Supported teaching languages, by their Portuguese display names.
const (
	LanguageEnglish  = "Inglês"
	LanguageSpanish  = "Espanhol"
	LanguageFrench   = "Francês"
	LanguageMandarin = "Mandarim"
)

// UserProfile is the persisted per-user record, keyed by phone number.
// Upserts use COALESCE semantics: zero-valued optional fields never
// overwrite existing data.
type UserProfile struct {
	ID                int64      `json:"id"`
	Phone             string     `json:"phone"`
	Name              string     `json:"name"`
	Gender            Gender     `json:"gender"`
	Professor         string     `json:"professor"`
	Language          string     `json:"language"`
	Level             Level      `json:"level"`
	Score             int        `json:"score"`
	StreakDays        int        `json:"streak_days"`
	CurrentLesson     int        `json:"current_lesson"`
	PlanStatus        PlanStatus `json:"plan_status"`
	PlanID            int64      `json:"plan_id,omitempty"`
	PlanExpiry        *time.Time `json:"plan_expiry,omitempty"`
	TrialMinutesLimit int        `json:"trial_minutes_limit"`
	TrialMinutesUsed  int        `json:"trial_minutes_used"`
	EntitledLanguages []string   `json:"entitled_languages,omitempty"`
	TestLanguage      string     `json:"test_language,omitempty"`
	TestCompleted     bool       `json:"test_completed"`
	TestQuestions     int        `json:"test_questions,omitempty"`
	TestFinalLevel    Level      `json:"test_final_level,omitempty"`
	TestInterests     []string   `json:"test_interests,omitempty"`
	LastActivity      time.Time  `json:"last_activity"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TrialMinutesRemaining returns the unconsumed trial budget, never negative.
func (u *UserProfile) TrialMinutesRemaining() int {
	remaining := u.TrialMinutesLimit - u.TrialMinutesUsed
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PlanInfo is the plan snapshot returned by the store's plan-status query.
type PlanInfo struct {
	Status           PlanStatus `json:"status"`
	MinutesRemaining int        `json:"minutes_remaining"`
	Expiry           *time.Time `json:"expiry,omitempty"`
	Languages        []string   `json:"languages,omitempty"`
	TestLanguage     string     `json:"test_language,omitempty"`
}

// MessageKind discriminates inbound message payloads.
type MessageKind string

// Inbound message kinds delivered by the chat transport.
const (
	MessageText      MessageKind = "text"
	MessageAudio     MessageKind = "audio"
	MessageSelection MessageKind = "selection"
)

// IncomingMessage is a transport-agnostic inbound message event.
// SelectedRowID is set only for interactive-list replies. Media carries the
// raw downloaded bytes for audio messages; it is populated lazily by the
// transport service before dispatch.
type IncomingMessage struct {
	From          string      `json:"from"`
	Body          string      `json:"body,omitempty"`
	Kind          MessageKind `json:"kind"`
	SelectedRowID string      `json:"selected_row_id,omitempty"`
	MimeType      string      `json:"mime_type,omitempty"`
	Media         []byte      `json:"-"`
	IsGroup       bool        `json:"is_group"`
	IsBroadcast   bool        `json:"is_broadcast"`
	Timestamp     int64       `json:"timestamp"`
}

// ListRow is one selectable row of an interactive list message.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// ListSection groups rows under a section title.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// ListMessage is an outbound interactive list (menu) message.
type ListMessage struct {
	Description string        `json:"description"`
	ButtonText  string        `json:"button_text"`
	Sections    []ListSection `json:"sections"`
}

// StatusType represents delivery receipt status.
type StatusType string

// Receipt statuses.
const (
	StatusTypeSent      StatusType = "sent"
	StatusTypeDelivered StatusType = "delivered"
	StatusTypeRead      StatusType = "read"
)

// Receipt records a delivery status change for an outbound message.
type Receipt struct {
	To     string     `json:"to"`
	Status StatusType `json:"status"`
	Time   int64      `json:"time"`
}

// LessonRecord is one curriculum lesson attached to a user's history.
type LessonRecord struct {
	LessonID int    `json:"lesson_id"`
	Topic    string `json:"topic"`
	Content  string `json:"content"`
	Level    Level  `json:"level"`
}

// StudySessionRecord is the persisted result of a finished study session.
type StudySessionRecord struct {
	UserID          int64  `json:"user_id"`
	Mode            string `json:"mode"`
	DurationMinutes int    `json:"duration_minutes"`
	Questions       int    `json:"questions"`
	Correct         int    `json:"correct"`
	Points          int    `json:"points"`
}

// VocabularyEntry is a spaced-repetition vocabulary item.
type VocabularyEntry struct {
	UserID      int64     `json:"user_id"`
	Word        string    `json:"word"`
	Translation string    `json:"translation"`
	Language    string    `json:"language"`
	TimesSeen   int       `json:"times_seen"`
	Knowledge   int       `json:"knowledge"`
	NextReview  time.Time `json:"next_review"`
}

// TestResult is the outcome persisted when an adaptive test finishes.
type TestResult struct {
	Interests   []string `json:"interests"`
	Questions   int      `json:"questions"`
	FinalLevel  Level    `json:"final_level"`
}
