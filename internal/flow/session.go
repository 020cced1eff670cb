// Package flow implements the conversation core of ONEDI: the per-user
// dialogue state machine, the guided-lesson and adaptive-test engines, the
// plan gate, the command router and the audio pipeline.
package flow

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/genai"
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// Stage is the user's position in the primary dialogue state machine.
type Stage int

// Dialogue stages, in onboarding order. LanguageSelect and LevelSelect are
// the returning-user branches; new users go through AwaitingName and
// AwaitingLanguage instead.
const (
	StageNew Stage = iota
	StageAwaitingName
	StageAwaitingLanguage
	StageLanguageSelect
	StageLevelSelect
	StageModeSelect
	StageStudying
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageNew:
		return "new"
	case StageAwaitingName:
		return "awaiting_name"
	case StageAwaitingLanguage:
		return "awaiting_language"
	case StageLanguageSelect:
		return "language_select"
	case StageLevelSelect:
		return "level_select"
	case StageModeSelect:
		return "mode_select"
	case StageStudying:
		return "studying"
	default:
		return "unknown"
	}
}

// Study modes selectable from the main menu.
const (
	ModeGuidedLesson = "aula_guiada"
	ModeFreePractice = "pratica_livre"
	ModeTeacher      = "modo_professor"
	ModeVocabulary   = "modo_vocabulario"
)

// StudyKind discriminates the active nested study flow.
type StudyKind int

// Study kinds. A session holds at most one nested flow at a time.
const (
	StudyNone StudyKind = iota
	StudyLesson
	StudyTest
)

// StudyState is a tagged variant holding the active nested flow, making the
// one-lesson-or-one-test-per-user invariant structural.
type StudyState struct {
	kind   StudyKind
	lesson *LessonSession
	test   *TestSession
}

// Kind returns the active study kind.
func (s StudyState) Kind() StudyKind { return s.kind }

// Lesson returns the active guided-lesson session, or nil.
func (s StudyState) Lesson() *LessonSession {
	if s.kind != StudyLesson {
		return nil
	}
	return s.lesson
}

// Test returns the active adaptive-test session, or nil.
func (s StudyState) Test() *TestSession {
	if s.kind != StudyTest {
		return nil
	}
	return s.test
}

// NoStudy is the empty study state.
func NoStudy() StudyState { return StudyState{kind: StudyNone} }

// StudyWithLesson wraps an active guided-lesson session.
func StudyWithLesson(ls *LessonSession) StudyState {
	return StudyState{kind: StudyLesson, lesson: ls}
}

// StudyWithTest wraps an active adaptive-test session.
func StudyWithTest(ts *TestSession) StudyState {
	return StudyState{kind: StudyTest, test: ts}
}

// PendingAudio records that the next voice note from a user should be graded
// against an expected utterance. Swept after TTL.
type PendingAudio struct {
	Expected  string
	CreatedAt time.Time
}

// Session is the in-memory per-user dialogue state. It mirrors a subset of
// the persisted profile plus dialogue-only fields. Not durable.
type Session struct {
	Phone         string
	UserID        int64
	Stage         Stage
	Name          string
	Gender        models.Gender
	Professor     string
	Language      string
	Level         models.Level
	Score         int
	Streak        int
	CurrentLesson int
	Mode          string
	LessonStage   LessonStage
	Study         StudyState
	Pending       *PendingAudio
	Thread        []genai.Turn
	LastResponse  string
	MessageCount  int
	PlanStatus    models.PlanStatus
	Hydrated      bool
}

const sessionShardCount = 32

type sessionShard struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

type sessionEntry struct {
	mu      sync.Mutex
	session *Session
}

// SessionStore holds all in-memory sessions, sharded by phone number with a
// per-user lock so handling for one user is serialized while different users
// run fully in parallel.
type SessionStore struct {
	shards [sessionShardCount]*sessionShard
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	s := &SessionStore{}
	for i := range s.shards {
		s.shards[i] = &sessionShard{sessions: make(map[string]*sessionEntry)}
	}
	return s
}

func (s *SessionStore) shardFor(phone string) *sessionShard {
	h := fnv.New32a()
	h.Write([]byte(phone))
	return s.shards[h.Sum32()%sessionShardCount]
}

func (s *SessionStore) entryFor(phone string) *sessionEntry {
	shard := s.shardFor(phone)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	entry, ok := shard.sessions[phone]
	if !ok {
		entry = &sessionEntry{session: &Session{Phone: phone, Stage: StageNew, Study: NoStudy()}}
		shard.sessions[phone] = entry
	}
	return entry
}

// WithSession runs fn with the user's session while holding that user's
// lock. The session is created on first use. All message handling goes
// through here so same-user processing is serialized.
func (s *SessionStore) WithSession(phone string, fn func(*Session)) {
	entry := s.entryFor(phone)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	fn(entry.session)
}

// Peek returns a shallow copy of the user's session without creating one.
func (s *SessionStore) Peek(phone string) (Session, bool) {
	shard := s.shardFor(phone)
	shard.mu.Lock()
	entry, ok := shard.sessions[phone]
	shard.mu.Unlock()
	if !ok {
		return Session{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return *entry.session, true
}

// Delete removes the user's session entirely.
func (s *SessionStore) Delete(phone string) {
	shard := s.shardFor(phone)
	shard.mu.Lock()
	defer shard.mu.Unlock()
	delete(shard.sessions, phone)
}

// Range visits every session, taking each user's lock in turn. Used by the
// background sweeps, which coordinate with in-flight handlers through the
// same per-user locks.
func (s *SessionStore) Range(fn func(*Session)) {
	for _, shard := range s.shards {
		shard.mu.Lock()
		entries := make([]*sessionEntry, 0, len(shard.sessions))
		for _, e := range shard.sessions {
			entries = append(entries, e)
		}
		shard.mu.Unlock()
		for _, e := range entries {
			e.mu.Lock()
			fn(e.session)
			e.mu.Unlock()
		}
	}
}

// Len reports the number of tracked sessions.
func (s *SessionStore) Len() int {
	n := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		n += len(shard.sessions)
		shard.mu.Unlock()
	}
	return n
}
