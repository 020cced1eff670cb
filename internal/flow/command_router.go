package flow

import (
	"context"
	"fmt"
	"strings"

	"github.com/IgorLuiz777/onedi-02/internal/lessons"
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// handleCommand dispatches one slash-command. Commands require a profile;
// during an active test only the allowlisted ones may interrupt for unpaid
// users.
func (c *Coordinator) handleCommand(ctx context.Context, sess *Session, cmd Command) error {
	if sess.UserID == 0 {
		c.sendText(ctx, sess.Phone, noProfileMessage)
		return nil
	}

	if ts := sess.Study.Test(); ts != nil && sess.PlanStatus != models.PlanActive {
		if !AllowedDuringTest(cmd) {
			c.sendText(ctx, sess.Phone, TestProgress(ts))
			return nil
		}
	}

	switch cmd {
	case CmdMenu:
		sess.MessageCount = 0
		sess.Stage = StageModeSelect
		c.sendList(ctx, sess.Phone, MainMenu(sess.Name))

	case CmdProgress:
		profile, err := c.store.GetUserByPhone(sess.Phone)
		if err != nil || profile == nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		c.sendText(ctx, sess.Phone, ProgressReport(profile))

	case CmdLanguage:
		sess.Stage = StageLanguageSelect
		c.sendList(ctx, sess.Phone, LanguageMenu(sess.Name))

	case CmdPersonalize:
		c.sendText(ctx, sess.Phone, PersonalizeMessage())

	case CmdStatus:
		profile, err := c.store.GetUserByPhone(sess.Phone)
		if err != nil || profile == nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		plan, err := c.store.GetPlanStatus(sess.Phone)
		if err != nil || plan == nil {
			return fmt.Errorf("failed to load plan status: %w", err)
		}
		c.sendText(ctx, sess.Phone, PlanStatusReport(profile, plan))

	case CmdNextLesson:
		next, ok := lessons.Next(sess.Language, sess.CurrentLesson)
		if !ok {
			c.sendText(ctx, sess.Phone, "🎓 Você já está na última aula do seu idioma. Parabéns!")
			return nil
		}
		if err := c.store.UpdateCurrentLesson(sess.Phone, next.ID); err != nil {
			return fmt.Errorf("failed to advance lesson: %w", err)
		}
		sess.CurrentLesson = next.ID
		c.sendText(ctx, sess.Phone, fmt.Sprintf(
			"➡️ *Próxima aula!*\n\n📖 Aula %d: *%s*\n📝 %s\n\nEscolha *Aula Guiada* no /menu para começar!",
			next.ID, next.Topic, next.Focus))

	case CmdLesson:
		profile, err := c.store.GetUserByPhone(sess.Phone)
		if err != nil || profile == nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		c.sendText(ctx, sess.Phone, LessonInfo(profile))

	case CmdHelp:
		c.sendText(ctx, sess.Phone, HelpMessage())

	case CmdVocabulary:
		entries, err := c.store.DueVocabulary(sess.UserID, 5)
		if err != nil {
			return fmt.Errorf("failed to load due vocabulary: %w", err)
		}
		if len(entries) == 0 {
			c.sendText(ctx, sess.Phone, "📖 Nenhuma palavra para revisar agora. Continue estudando para aprender novas!")
			return nil
		}
		var b strings.Builder
		b.WriteString("📖 *Revisão de vocabulário:*\n\n")
		for i, entry := range entries {
			fmt.Fprintf(&b, "%d. *%s* — %s\n", i+1, entry.Word, entry.Translation)
		}
		b.WriteString("\n💪 Tente usar cada palavra em uma frase!")
		c.sendText(ctx, sess.Phone, b.String())

	case CmdLevel:
		c.sendText(ctx, sess.Phone, fmt.Sprintf(
			"📈 Seu nível atual: *%s* (%d pontos)", sess.Level, sess.Score))

	case CmdStreak:
		c.sendText(ctx, sess.Phone, fmt.Sprintf(
			"🔥 Sua sequência: *%d dia(s)* estudando! Não deixe a chama apagar!", sess.Streak))
	}
	return nil
}
