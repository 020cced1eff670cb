package flow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/genai"
	"github.com/IgorLuiz777/onedi-02/internal/lessons"
	"github.com/IgorLuiz777/onedi-02/internal/messaging"
	"github.com/IgorLuiz777/onedi-02/internal/models"
	"github.com/IgorLuiz777/onedi-02/internal/store"
)

// StalenessThreshold drops inbound messages older than this, preventing a
// backlog replay after downtime.
const StalenessThreshold = 10 * time.Minute

// Delays for paced sequential sends, delivered through the outbox.
const (
	followUpDelay = 2 * time.Second
	menuDelay     = 3 * time.Second
)

// ChatClient is the LLM surface the coordinator consumes. *genai.Client
// implements it.
type ChatClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	CompleteWithHistory(ctx context.Context, systemPrompt string, history []genai.Turn, userPrompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// SpeechClient is the TTS/STT surface. *speech.Client implements it.
type SpeechClient interface {
	Synthesize(ctx context.Context, text, language string, gender models.Gender) ([]byte, error)
	Transcribe(ctx context.Context, audio []byte, languageCode, contextHint string) (string, error)
}

// Coordinator is the top-level conversation controller: it hydrates
// sessions, runs the cross-cutting interceptors and dispatches each inbound
// message to the stage handler for that user, serialized per user by the
// session store.
type Coordinator struct {
	msg      messaging.Service
	store    store.Store
	chat     ChatClient
	speech   SpeechClient
	gate     *Gate
	sessions *SessionStore
	outbox   *messaging.Outbox
	now      func() time.Time
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithNow injects the time source (tests use a fixed clock).
func WithNow(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) { c.now = now }
}

// WithOutbox injects the delayed-send queue.
func WithOutbox(o *messaging.Outbox) CoordinatorOption {
	return func(c *Coordinator) { c.outbox = o }
}

// NewCoordinator wires the conversation controller.
func NewCoordinator(msg messaging.Service, st store.Store, chat ChatClient, speech SpeechClient, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		msg:      msg,
		store:    st,
		chat:     chat,
		speech:   speech,
		gate:     NewGate(st),
		sessions: NewSessionStore(),
		outbox:   messaging.NewOutbox(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gate.now = c.now
	return c
}

// Sessions exposes the session store for the background sweeps.
func (c *Coordinator) Sessions() *SessionStore { return c.sessions }

// Outbox exposes the delayed-send queue so the app can run it.
func (c *Coordinator) Outbox() *messaging.Outbox { return c.outbox }

// HandleMessage processes one inbound message end to end. Safe to call
// concurrently; same-user calls are serialized.
func (c *Coordinator) HandleMessage(ctx context.Context, msg models.IncomingMessage) {
	if msg.IsGroup || msg.IsBroadcast {
		slog.Debug("Dropping group/broadcast message", "from", msg.From)
		return
	}
	if msg.Timestamp > 0 {
		age := c.now().Sub(time.Unix(msg.Timestamp, 0))
		if age > StalenessThreshold {
			slog.Info("Dropping stale message", "from", msg.From, "age", age)
			return
		}
	}

	c.sessions.WithSession(msg.From, func(sess *Session) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Recovered from panic in message handler", "from", msg.From, "panic", r)
				c.sendText(ctx, msg.From, genericErrorMessage)
			}
		}()
		if err := c.process(ctx, sess, msg); err != nil {
			slog.Error("Message processing failed", "from", msg.From, "stage", sess.Stage, "error", err)
			c.sendText(ctx, msg.From, genericErrorMessage)
		}
	})
}

// process runs the interceptor chain and then the stage dispatch. Called
// with the user's session lock held.
func (c *Coordinator) process(ctx context.Context, sess *Session, msg models.IncomingMessage) error {
	if !sess.Hydrated {
		consumed, err := c.hydrate(ctx, sess)
		if err != nil {
			return fmt.Errorf("failed to hydrate session: %w", err)
		}
		if consumed {
			return nil
		}
	}
	sess.MessageCount++

	body := msg.Body
	if msg.Kind == models.MessageSelection && msg.SelectedRowID != "" {
		body = msg.SelectedRowID
	}

	// Audio bypasses text dispatch entirely, except mid-test for unpaid
	// users, who must answer by text.
	if msg.Kind == models.MessageAudio {
		if sess.Study.Kind() == StudyTest && sess.PlanStatus == models.PlanTrial {
			c.sendText(ctx, sess.Phone, audioDuringTestMessage)
			return nil
		}
		return c.handleAudio(ctx, sess, msg)
	}

	if c.handleQuickAction(ctx, sess, body) {
		return nil
	}

	if cmd, ok := ParseCommand(body); ok {
		return c.handleCommand(ctx, sess, cmd)
	}

	// An active test gates everything else.
	if sess.Study.Kind() == StudyTest {
		return c.handleTestAnswer(ctx, sess, body)
	}

	switch sess.Stage {
	case StageNew:
		return c.handleNew(ctx, sess)
	case StageAwaitingName:
		return c.handleAwaitingName(ctx, sess, body)
	case StageAwaitingLanguage:
		return c.handleLanguageChoice(ctx, sess, body, true)
	case StageLanguageSelect:
		return c.handleLanguageChoice(ctx, sess, body, false)
	case StageLevelSelect:
		return c.handleLevelSelect(ctx, sess, body)
	case StageModeSelect:
		return c.handleModeSelect(ctx, sess, body)
	case StageStudying:
		return c.handleStudying(ctx, sess, body, false)
	default:
		return c.handleNew(ctx, sess)
	}
}

// hydrate loads the persisted profile into a fresh in-memory session.
// Returning users land in mode selection (or language selection when no
// language is set); trial users with an unfinished test resume it. When
// hydration itself answers the user (summary or resumed test), it reports
// the triggering message as consumed.
func (c *Coordinator) hydrate(ctx context.Context, sess *Session) (bool, error) {
	profile, err := c.store.GetUserByPhone(sess.Phone)
	if err != nil {
		return false, fmt.Errorf("failed to load profile: %w", err)
	}
	sess.Hydrated = true
	if profile == nil {
		sess.Stage = StageNew
		return false, nil
	}

	sess.UserID = profile.ID
	sess.Name = profile.Name
	sess.Gender = profile.Gender
	sess.Professor = profile.Professor
	sess.Language = profile.Language
	sess.Level = profile.Level
	sess.Score = profile.Score
	sess.CurrentLesson = profile.CurrentLesson
	sess.PlanStatus = profile.PlanStatus

	if streak, err := c.store.UpdateStreak(sess.Phone); err != nil {
		slog.Warn("Failed to update streak", "phone", sess.Phone, "error", err)
	} else {
		sess.Streak = streak
	}

	if profile.Language == "" {
		sess.Stage = StageLanguageSelect
	} else {
		sess.Stage = StageModeSelect
	}

	consumed := false
	if profile.PlanStatus == models.PlanTrial {
		if profile.TestCompleted {
			c.sendText(ctx, sess.Phone, TrialCompletedSummary(profile))
			consumed = true
		} else if profile.Language != "" {
			// Unfinished trial test resumes automatically; the message that
			// woke the session is not an answer to the upcoming question.
			c.startTest(ctx, sess, profile.Level)
			consumed = true
		}
	}

	slog.Info("Session hydrated", "phone", sess.Phone, "stage", sess.Stage, "plan", sess.PlanStatus)
	return consumed, nil
}

// handleQuickAction short-circuits the translate/audio shortcuts against
// the cached last response. Returns true when the message was consumed.
func (c *Coordinator) handleQuickAction(ctx context.Context, sess *Session, body string) bool {
	n := Normalize(body)
	isTranslate := n == "traduzir" || n == "traduzir texto" || strings.Contains(n, "traduzir")
	isAudio := n == "audio" || n == "enviar audio"

	if isTranslate && sess.LastResponse != "" {
		system, user := TranslationPrompt(sess.LastResponse)
		translation, err := c.chat.Complete(ctx, system, user)
		if err != nil {
			slog.Warn("Translation failed", "phone", sess.Phone, "error", err)
			translation = "Tradução não disponível no momento."
		}
		c.sendText(ctx, sess.Phone, "🌐 *Tradução:*\n\n"+translation)
		return true
	}

	if isAudio && sess.LastResponse != "" && sess.Mode == ModeGuidedLesson {
		voice, err := c.speech.Synthesize(ctx, sess.LastResponse, sess.Language, sess.Gender)
		if err != nil {
			slog.Warn("On-demand TTS failed", "phone", sess.Phone, "error", err)
			c.sendText(ctx, sess.Phone, "🔊 Não consegui gerar o áudio agora. Tente de novo!")
			return true
		}
		if err := c.msg.SendVoiceNote(ctx, sess.Phone, voice); err != nil {
			slog.Warn("Voice note send failed", "phone", sess.Phone, "error", err)
			c.sendText(ctx, sess.Phone, "🔊 Não consegui enviar o áudio agora.")
		}
		return true
	}
	return false
}

// sendText sends plain text, absorbing transport errors.
func (c *Coordinator) sendText(ctx context.Context, phone, body string) {
	if err := c.msg.SendMessage(ctx, phone, body); err != nil {
		slog.Error("Failed to send message", "to", phone, "error", err)
	}
}

// sendList sends an interactive list, absorbing transport errors.
func (c *Coordinator) sendList(ctx context.Context, phone string, list models.ListMessage) {
	if err := c.msg.SendList(ctx, phone, list); err != nil {
		slog.Error("Failed to send list", "to", phone, "error", err)
	}
}

// enqueueText schedules a delayed plain-text send through the outbox.
func (c *Coordinator) enqueueText(phone, body string, delay time.Duration) {
	c.outbox.Enqueue(delay, func(ctx context.Context) error {
		return c.msg.SendMessage(ctx, phone, body)
	})
}

// enqueueList schedules a delayed list send through the outbox.
func (c *Coordinator) enqueueList(phone string, list models.ListMessage, delay time.Duration) {
	c.outbox.Enqueue(delay, func(ctx context.Context) error {
		return c.msg.SendList(ctx, phone, list)
	})
}

// maybeRemind sends the periodic resource reminder.
func (c *Coordinator) maybeRemind(ctx context.Context, sess *Session) {
	if sess.MessageCount > 0 && sess.MessageCount%ReminderInterval == 0 {
		c.sendText(ctx, sess.Phone, ResourceReminder())
	}
}

// fetchImage downloads a generated image so it can be re-uploaded to the
// chat transport.
func fetchImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}

// currentLesson resolves the user's lesson pointer against the curriculum.
func (c *Coordinator) currentLesson(sess *Session) models.LessonRecord {
	lesson, ok := lessons.ByID(sess.Language, sess.CurrentLesson)
	if !ok {
		lesson, _ = lessons.ByID(sess.Language, 1)
	}
	return models.LessonRecord{
		LessonID: lesson.ID,
		Topic:    lesson.Topic,
		Content:  lesson.Focus,
		Level:    lesson.Level,
	}
}
