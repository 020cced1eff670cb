package flow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// handleAudio runs the voice-note pipeline: gate, transcription, then
// either pronunciation grading (pending expectation) or re-entry into the
// study handler as text.
func (c *Coordinator) handleAudio(ctx context.Context, sess *Session, msg models.IncomingMessage) error {
	if len(msg.Media) == 0 {
		c.sendText(ctx, sess.Phone, "🎤 Não consegui baixar seu áudio. Pode enviar de novo?")
		return nil
	}

	decision, err := c.gate.Check(sess.Phone, CostAudioTurn)
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

	c.msg.SendTyping(ctx, sess.Phone, true, true)
	defer c.msg.SendTyping(ctx, sess.Phone, false, false)

	hint := "Aula de " + sess.Language + " com um aluno brasileiro."
	transcript, err := c.speech.Transcribe(ctx, msg.Media, LanguageCode(sess.Language), hint)
	if err != nil {
		slog.Error("Transcription failed", "phone", sess.Phone, "error", err)
		c.sendText(ctx, sess.Phone, "🎤 Não consegui entender o áudio. Tente gravar em um lugar mais silencioso!")
		return nil
	}

	if sess.Pending != nil {
		c.gradePronunciation(ctx, sess, transcript)
		return nil
	}

	// No expectation: the transcript re-enters the normal study flow.
	if sess.Stage != StageStudying {
		c.sendText(ctx, sess.Phone, "🎤 Você disse: \""+transcript+"\"")
		return c.process(ctx, sess, models.IncomingMessage{
			From: sess.Phone, Body: transcript, Kind: models.MessageText, Timestamp: c.now().Unix(),
		})
	}
	return c.handleStudying(ctx, sess, transcript, true)
}

// gradePronunciation scores the transcript against the pending expectation,
// preferring the LLM rubric and falling back to the lexical heuristic. The
// expectation is cleared unconditionally.
func (c *Coordinator) gradePronunciation(ctx context.Context, sess *Session, transcript string) {
	expected := sess.Pending.Expected
	sess.Pending = nil

	var score int
	var analysis string
	system, user := PronunciationPrompt(expected, transcript, sess.Language)
	reply, err := c.chat.Complete(ctx, system, user)
	if err == nil {
		if parsed, ok := ParsePronunciationScore(reply); ok {
			score = parsed
			analysis = reply
		} else {
			score = LexicalPronunciationScore(expected, transcript)
		}
	} else {
		slog.Warn("Pronunciation rubric failed, using lexical fallback", "phone", sess.Phone, "error", err)
		score = LexicalPronunciationScore(expected, transcript)
	}

	feedback := PronunciationFeedback(score, expected)
	if analysis != "" {
		// The rubric reply carries the per-word breakdown; the tier line
		// closes the message.
		feedback = analysis + "\n\n" + feedback
	}
	c.sendText(ctx, sess.Phone, feedback)

	if ls := sess.Study.Lesson(); ls != nil {
		ls.AddAudio(expected)
		ls.AddQuestion(score >= PronunciationPass)
		if score < PronunciationPass {
			ls.AddCorrection()
		}
		c.enqueueText(sess.Phone, "👏 Vamos continuar a aula! Responda à última pergunta ou digite *continuar*.", followUpDelay)
	}
	slog.Info("Pronunciation graded", "phone", sess.Phone, "score", score)
}
