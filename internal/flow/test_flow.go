package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// startTest launches the adaptive test for a trial user. Guards against
// double starts: a completed test or an already-active session is a no-op.
func (c *Coordinator) startTest(ctx context.Context, sess *Session, startLevel models.Level) {
	if sess.Study.Kind() == StudyTest {
		return
	}
	if profile, err := c.store.GetUserByPhone(sess.Phone); err == nil && profile != nil && profile.TestCompleted {
		return
	}

	ts := NewTestSession(sess.UserID, sess.Phone, sess.Language, sess.Name, sess.Gender, startLevel, c.now())
	sess.Study = StudyWithTest(ts)

	c.sendText(ctx, sess.Phone, TestWelcome(sess.Name, sess.Language))
	question := c.nextTestQuestion(ctx, ts)
	c.enqueueText(sess.Phone, question, followUpDelay)
	slog.Info("Adaptive test started", "phone", sess.Phone, "language", sess.Language, "startLevel", startLevel)
}

// nextTestQuestion generates the question for the session's current index,
// falling back to a canned per-topic question so the test never stalls.
func (c *Coordinator) nextTestQuestion(ctx context.Context, ts *TestSession) string {
	topic := ts.NextTopic()
	system, user := TestQuestionPrompt(ts, topic)
	question, err := c.chat.Complete(ctx, system, user)
	if err != nil || question == "" {
		slog.Warn("Test question generation failed, using fallback",
			"phone", ts.Phone, "question", ts.QuestionIndex, "error", err)
		return FallbackQuestion(ts.Language, topic)
	}
	return fmt.Sprintf("*Pergunta %d/%d:*\n\n%s", ts.QuestionIndex, TestQuestionCount, question)
}

// handleTestAnswer processes one answer of the active adaptive test:
// validate (fail open), feedback, vocabulary, interests, history, advance,
// finalize after the last question.
func (c *Coordinator) handleTestAnswer(ctx context.Context, sess *Session, body string) error {
	ts := sess.Study.Test()
	if ts == nil {
		sess.Study = NoStudy()
		return nil
	}
	if body == "" {
		return nil
	}

	system, user := AnswerValidationPrompt(body, ts.Language)
	reply, err := c.chat.Complete(ctx, system, user)
	if !ParseValidation(reply, err) {
		c.sendText(ctx, sess.Phone, fmt.Sprintf(
			"🤔 Não entendi sua resposta. Tente responder a pergunta %d de novo, do seu jeito!",
			ts.QuestionIndex))
		return nil
	}

	fbSystem, fbUser := TestFeedbackPrompt(body, ts.Language, ts.CurrentLevel())
	if feedback, err := c.chat.Complete(ctx, fbSystem, fbUser); err != nil {
		slog.Debug("Test feedback failed", "phone", sess.Phone, "error", err)
	} else {
		c.sendText(ctx, sess.Phone, "✅ "+feedback)
	}

	c.extractVocabulary(ctx, sess, body, nil)

	intSystem, intUser := InterestDetectionPrompt(body)
	if reply, err := c.chat.Complete(ctx, intSystem, intUser); err != nil {
		slog.Debug("Interest detection failed", "phone", sess.Phone, "error", err)
	} else {
		ts.AddInterests(ParseInterests(reply))
	}

	finished := ts.RecordAnswer(body, c.now())
	if finished {
		return c.finalizeTest(ctx, sess, ts)
	}

	question := c.nextTestQuestion(ctx, ts)
	c.enqueueText(sess.Phone, question, followUpDelay)
	return nil
}

// finalizeTest persists the outcome, sends the summary and returns the user
// to mode selection. Finalize itself is idempotent.
func (c *Coordinator) finalizeTest(ctx context.Context, sess *Session, ts *TestSession) error {
	outcome := ts.Finalize()

	if err := c.store.SaveTestResult(sess.UserID, outcome); err != nil {
		slog.Error("Failed to persist test result", "phone", sess.Phone, "error", err)
	}
	if _, err := c.store.SaveUser(models.UserProfile{Phone: sess.Phone, Level: outcome.FinalLevel}); err != nil {
		slog.Error("Failed to persist test level", "phone", sess.Phone, "error", err)
	}
	sess.Level = outcome.FinalLevel
	sess.Study = NoStudy()
	sess.Stage = StageModeSelect

	c.sendText(ctx, sess.Phone, TestSummary(sess.Name, outcome))
	c.enqueueList(sess.Phone, MainMenu(sess.Name), menuDelay)
	slog.Info("Adaptive test finalized",
		"phone", sess.Phone, "questions", outcome.Questions, "level", outcome.FinalLevel,
		"interests", len(outcome.Interests))
	return nil
}
