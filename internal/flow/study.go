package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IgorLuiz777/onedi-02/internal/genai"
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// studyThreadLimit bounds the per-session conversation history kept for the
// non-guided modes.
const studyThreadLimit = 12

// handleStudying runs one study turn. fromAudio marks transcripts arriving
// through the audio pipeline, which already paid the audio gate cost.
func (c *Coordinator) handleStudying(ctx context.Context, sess *Session, body string, fromAudio bool) error {
	if body == "" {
		return nil
	}
	if sess.Mode == "" {
		sess.Stage = StageModeSelect
		c.sendList(ctx, sess.Phone, MainMenu(sess.Name))
		return nil
	}

	if !fromAudio {
		decision, err := c.gate.Check(sess.Phone, CostTextTurn)
		if err != nil {
			return fmt.Errorf("plan gate check failed: %w", err)
		}
		if !decision.Allowed {
			c.sendText(ctx, sess.Phone, decision.Reason)
			return nil
		}
		if decision.Warn {
			c.sendText(ctx, sess.Phone, TrialWarning(decision.MinutesRemaining))
		}
	}

	c.msg.SendTyping(ctx, sess.Phone, true, false)
	defer c.msg.SendTyping(ctx, sess.Phone, false, false)

	var err error
	if sess.Mode == ModeGuidedLesson {
		err = c.handleLessonTurn(ctx, sess, body)
	} else {
		err = c.handleFreeStudyTurn(ctx, sess, body, fromAudio)
	}
	if err != nil {
		return err
	}

	if _, err := c.store.UpdateStreak(sess.Phone); err != nil {
		slog.Debug("Streak update failed", "phone", sess.Phone, "error", err)
	}
	c.maybeRemind(ctx, sess)
	return nil
}

// handleFreeStudyTurn serves the free-practice, teacher and vocabulary
// modes: one threaded LLM reply, automatic voice note, quick actions.
func (c *Coordinator) handleFreeStudyTurn(ctx context.Context, sess *Session, body string, fromAudio bool) error {
	system := StudyModePrompt(sess.Mode, sess.Language, sess.Level, sess.Professor, sess.Name)
	reply, err := c.chat.CompleteWithHistory(ctx, system, sess.Thread, body)
	if err != nil {
		slog.Error("Study completion failed", "phone", sess.Phone, "mode", sess.Mode, "error", err)
		c.sendText(ctx, sess.Phone, genericErrorMessage)
		return nil
	}

	sess.Thread = append(sess.Thread,
		genai.Turn{Role: "user", Content: body},
		genai.Turn{Role: "assistant", Content: reply})
	if len(sess.Thread) > studyThreadLimit {
		sess.Thread = sess.Thread[len(sess.Thread)-studyThreadLimit:]
	}
	sess.LastResponse = reply

	if fromAudio {
		c.sendText(ctx, sess.Phone, "🎤 Entendi seu áudio! "+reply)
	} else {
		c.sendText(ctx, sess.Phone, reply)
	}

	// Non-guided modes always voice the reply; failures degrade to text-only.
	if voice, err := c.speech.Synthesize(ctx, reply, sess.Language, sess.Gender); err != nil {
		slog.Warn("Automatic TTS failed", "phone", sess.Phone, "error", err)
	} else if err := c.msg.SendVoiceNote(ctx, sess.Phone, voice); err != nil {
		slog.Warn("Voice note send failed", "phone", sess.Phone, "error", err)
	}

	c.extractVocabulary(ctx, sess, reply, nil)
	c.sendList(ctx, sess.Phone, QuickActions(false))
	return nil
}

// handleLessonTurn advances the guided lesson one stage and processes the
// LLM reply's directives.
func (c *Coordinator) handleLessonTurn(ctx context.Context, sess *Session, body string) error {
	ls := sess.Study.Lesson()
	if ls == nil {
		lesson := c.currentLesson(sess)
		ls = NewLessonSession(sess.UserID, sess.Phone, sess.Language, lesson, c.now())
		sess.Study = StudyWithLesson(ls)
	}

	var stage LessonStage
	if IsStartKeyword(body) || sess.LessonStage == "" {
		stage = LessonStages[0]
	} else {
		stage = NextStage(sess.LessonStage)
	}
	sess.LessonStage = stage

	system := LessonStagePrompt(ls.Lesson, stage, sess.Language, sess.Level, sess.Professor, sess.Name)
	reply, err := c.chat.Complete(ctx, system, body)
	if err != nil {
		slog.Error("Lesson completion failed", "phone", sess.Phone, "stage", stage, "error", err)
		c.sendText(ctx, sess.Phone, genericErrorMessage)
		return nil
	}

	d := ExtractDirectives(reply)
	sess.LastResponse = d.Text
	c.sendText(ctx, sess.Phone, d.Text)

	if d.ImagePrompt != "" {
		c.deliverLessonImage(ctx, sess, ls, d.ImagePrompt)
	}
	if d.AudioTarget != "" {
		sess.Pending = &PendingAudio{Expected: d.AudioTarget, CreatedAt: c.now()}
	}

	c.extractVocabulary(ctx, sess, reply, ls)

	ls.CompleteStage(stage)
	ls.AddQuestion(true)

	if err := c.store.SaveLessonHistory(sess.UserID, ls.Lesson); err != nil {
		slog.Debug("Lesson history save failed", "phone", sess.Phone, "error", err)
	}

	limits := ls.VerifyLimits(c.now())
	if limits.LimitReached {
		return c.finalizeLesson(ctx, sess, ls)
	}
	c.sendText(ctx, sess.Phone, LessonProgress(limits))
	if sess.Pending == nil {
		c.sendList(ctx, sess.Phone, QuickActions(true))
	}
	return nil
}

// deliverLessonImage generates and sends the requested lesson image,
// degrading to a text notice on failure.
func (c *Coordinator) deliverLessonImage(ctx context.Context, sess *Session, ls *LessonSession, prompt string) {
	url, err := c.chat.GenerateImage(ctx, prompt)
	if err != nil {
		slog.Warn("Image generation failed", "phone", sess.Phone, "error", err)
		c.sendText(ctx, sess.Phone, "🖼️ Não consegui gerar a imagem agora. Vamos seguir sem ela!")
		return
	}
	data, err := fetchImage(ctx, url)
	if err != nil {
		slog.Warn("Image download failed", "phone", sess.Phone, "error", err)
		c.sendText(ctx, sess.Phone, "🖼️ Não consegui baixar a imagem agora. Vamos seguir sem ela!")
		return
	}
	caption := "🖼️ Imagem da aula: " + ls.Lesson.Topic
	if err := c.msg.SendImage(ctx, sess.Phone, data, caption); err != nil {
		slog.Warn("Image send failed", "phone", sess.Phone, "error", err)
		return
	}
	ls.AddImage(ls.Lesson.Topic)
}

// extractVocabulary runs the best-effort vocabulary extraction over an LLM
// reply and persists the pairs. Never fails the main turn.
func (c *Coordinator) extractVocabulary(ctx context.Context, sess *Session, reply string, ls *LessonSession) {
	system, user := VocabularyExtractionPrompt(reply, sess.Language)
	raw, err := c.chat.Complete(ctx, system, user)
	if err != nil {
		slog.Debug("Vocabulary extraction failed", "phone", sess.Phone, "error", err)
		return
	}
	pairs := ParseVocabulary(raw)
	saved := 0
	for _, pair := range pairs {
		entry := models.VocabularyEntry{
			UserID:      sess.UserID,
			Word:        pair.Word,
			Translation: pair.Translation,
			Language:    sess.Language,
		}
		if err := c.store.UpsertVocabulary(entry); err != nil {
			slog.Debug("Vocabulary upsert failed", "word", pair.Word, "error", err)
			continue
		}
		saved++
	}
	if ls != nil && saved > 0 {
		ls.AddVocabulary(saved)
	}
}

// finalizeLesson scores the finished session, persists it and returns the
// user to mode selection.
func (c *Coordinator) finalizeLesson(ctx context.Context, sess *Session, ls *LessonSession) error {
	result := ls.Finalize(c.now())

	record := models.StudySessionRecord{
		UserID:          sess.UserID,
		Mode:            ModeGuidedLesson,
		DurationMinutes: result.DurationMinutes,
		Questions:       result.Questions,
		Correct:         result.Correct,
		Points:          result.Points,
	}
	if err := c.store.AddStudySession(record); err != nil {
		slog.Error("Failed to persist study session", "phone", sess.Phone, "error", err)
	}

	newScore := sess.Score + result.Points
	newLevel := LevelForScore(newScore)
	if _, err := c.store.SaveUser(models.UserProfile{
		Phone: sess.Phone,
		Score: newScore,
		Level: newLevel,
	}); err != nil {
		slog.Error("Failed to persist score", "phone", sess.Phone, "error", err)
	}
	sess.Score = newScore
	sess.Level = newLevel

	sess.Study = NoStudy()
	sess.Pending = nil
	sess.LessonStage = ""
	sess.Stage = StageModeSelect

	c.sendText(ctx, sess.Phone, LessonSummary(result))
	c.enqueueList(sess.Phone, MainMenu(sess.Name), menuDelay)
	slog.Info("Guided lesson finalized",
		"phone", sess.Phone, "points", result.Points, "questions", result.Questions, "score", newScore)
	return nil
}
