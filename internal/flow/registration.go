package flow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IgorLuiz777/onedi-02/internal/lessons"
	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// handleNew greets a first-time user and asks for a name.
func (c *Coordinator) handleNew(ctx context.Context, sess *Session) error {
	c.sendText(ctx, sess.Phone, WelcomeMessage())
	sess.Stage = StageAwaitingName
	return nil
}

// handleAwaitingName takes the name, classifies gender (feminine fallback)
// and presents the language menu.
func (c *Coordinator) handleAwaitingName(ctx context.Context, sess *Session, body string) error {
	name := strings.TrimSpace(body)
	if name == "" {
		c.sendText(ctx, sess.Phone, "Não entendi! Como você gostaria de ser chamado(a)?")
		return nil
	}

	gender := models.GenderFeminine
	system, user := GenderPrompt(name)
	if reply, err := c.chat.Complete(ctx, system, user); err != nil {
		slog.Warn("Gender classification failed, using fallback", "phone", sess.Phone, "error", err)
	} else {
		gender = ParseGender(reply)
	}

	sess.Name = name
	sess.Gender = gender
	sess.Professor = ProfessorFor(gender)
	sess.Stage = StageAwaitingLanguage

	c.sendText(ctx, sess.Phone, fmt.Sprintf(
		"Muito prazer, %s! 😊 Eu sou %s e vou ser seu professor(a) aqui na ONEDI.",
		name, sess.Professor))
	c.sendList(ctx, sess.Phone, LanguageMenu(name))
	return nil
}

// handleLanguageChoice validates a language pick for both the first-time
// flow (newUser) and the returning-user language-selection branch. New users
// get their profile persisted and the adaptive test auto-launched; returning
// users go to level selection unless they already finished the test.
func (c *Coordinator) handleLanguageChoice(ctx context.Context, sess *Session, body string, newUser bool) error {
	// A returning account entitled to exactly one language skips the
	// prompt: whatever the message said, that language is the only choice.
	if !newUser {
		if _, picked := ValidateLanguage(body); !picked {
			if auto, ok := c.singleEntitledLanguage(sess.Phone); ok {
				body = auto
			}
		}
	}

	language, ok := ValidateLanguage(body)
	if !ok {
		c.sendText(ctx, sess.Phone, "🤔 Não reconheci esse idioma. Escolha uma das opções do menu!")
		c.sendList(ctx, sess.Phone, LanguageMenu(sess.Name))
		return nil
	}

	if !newUser {
		profile, err := c.store.GetUserByPhone(sess.Phone)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		if profile != nil && !c.gate.CheckLanguage(profile, language) {
			c.sendText(ctx, sess.Phone,
				"🔒 Esse idioma não faz parte do seu plano. Digite /personalizar para adicioná-lo!")
			return nil
		}
	}

	sess.Language = language

	if newUser {
		saved, err := c.store.SaveUser(models.UserProfile{
			Phone:         sess.Phone,
			Name:          sess.Name,
			Gender:        sess.Gender,
			Professor:     sess.Professor,
			Language:      language,
			Level:         models.LevelBeginner,
			StreakDays:    1,
			CurrentLesson: 1,
			PlanStatus:    models.PlanTrial,
		})
		if err != nil {
			return fmt.Errorf("failed to persist new profile: %w", err)
		}
		sess.UserID = saved.ID
		sess.Level = saved.Level
		sess.CurrentLesson = saved.CurrentLesson
		sess.PlanStatus = saved.PlanStatus
		sess.Streak = saved.StreakDays

		if err := c.store.SetTestLanguage(sess.Phone, language); err != nil {
			slog.Warn("Failed to pin trial language", "phone", sess.Phone, "error", err)
		}
		c.seedFirstLesson(sess)

		sess.Stage = StageModeSelect
		c.sendText(ctx, sess.Phone, fmt.Sprintf(
			"🎉 Perfeito! Vamos aprender *%s* juntos!\n\nAntes de liberar os modos de estudo, "+
				"vou descobrir seu nível com um teste rápido.", language))
		c.startTest(ctx, sess, models.LevelBeginner)
		return nil
	}

	// Returning user: persist the choice, then level-select or straight to
	// the menu when the test is already done.
	if _, err := c.store.SaveUser(models.UserProfile{Phone: sess.Phone, Language: language}); err != nil {
		return fmt.Errorf("failed to persist language: %w", err)
	}
	profile, err := c.store.GetUserByPhone(sess.Phone)
	if err != nil {
		return fmt.Errorf("failed to reload profile: %w", err)
	}
	if profile != nil && profile.TestCompleted {
		sess.Stage = StageModeSelect
		c.sendList(ctx, sess.Phone, MainMenu(sess.Name))
		return nil
	}
	sess.Stage = StageLevelSelect
	c.sendList(ctx, sess.Phone, LevelMenu())
	return nil
}

// singleEntitledLanguage returns the only language of a single-language
// plan, if that is the case.
func (c *Coordinator) singleEntitledLanguage(phone string) (string, bool) {
	plan, err := c.store.GetPlanStatus(phone)
	if err != nil || plan == nil || len(plan.Languages) != 1 {
		return "", false
	}
	return plan.Languages[0], true
}

// seedFirstLesson records the first curriculum lesson on the new profile.
func (c *Coordinator) seedFirstLesson(sess *Session) {
	lesson, ok := lessons.ByID(sess.Language, 1)
	if !ok {
		return
	}
	record := models.LessonRecord{
		LessonID: lesson.ID,
		Topic:    lesson.Topic,
		Content:  lesson.Focus,
		Level:    lesson.Level,
	}
	if err := c.store.SaveLessonHistory(sess.UserID, record); err != nil {
		slog.Warn("Failed to seed first lesson", "phone", sess.Phone, "error", err)
	}
}

// handleLevelSelect takes the first-time level pick, offsets the starting
// lesson and either starts the test (trial) or opens the menu.
func (c *Coordinator) handleLevelSelect(ctx context.Context, sess *Session, body string) error {
	level, ok := ValidateLevel(body)
	if !ok {
		c.sendText(ctx, sess.Phone, "🤔 Não reconheci esse nível. Escolha uma das opções do menu!")
		c.sendList(ctx, sess.Phone, LevelMenu())
		return nil
	}

	sess.Level = level
	sess.CurrentLesson = lessons.StartingLesson(level)
	if _, err := c.store.SaveUser(models.UserProfile{Phone: sess.Phone, Level: level}); err != nil {
		return fmt.Errorf("failed to persist level: %w", err)
	}
	if err := c.store.UpdateCurrentLesson(sess.Phone, sess.CurrentLesson); err != nil {
		slog.Warn("Failed to move lesson pointer", "phone", sess.Phone, "error", err)
	}

	profile, err := c.store.GetUserByPhone(sess.Phone)
	if err != nil {
		return fmt.Errorf("failed to reload profile: %w", err)
	}

	sess.Stage = StageModeSelect
	if profile != nil && !profile.TestCompleted && profile.PlanStatus == models.PlanTrial {
		// The test starts at the self-declared level.
		c.startTest(ctx, sess, level)
		return nil
	}
	c.sendList(ctx, sess.Phone, MainMenu(sess.Name))
	return nil
}

// handleModeSelect validates the study-mode pick, clears any previous study
// context and enters the studying stage.
func (c *Coordinator) handleModeSelect(ctx context.Context, sess *Session, body string) error {
	mode, ok := ValidateMode(body)
	if !ok {
		c.sendText(ctx, sess.Phone, "🤔 Não reconheci esse modo. Escolha uma opção do menu!")
		c.sendList(ctx, sess.Phone, MainMenu(sess.Name))
		return nil
	}

	// Mode switches always reset the study context.
	sess.Mode = mode
	sess.Study = NoStudy()
	sess.Pending = nil
	sess.Thread = nil
	sess.LessonStage = ""
	sess.Stage = StageStudying
	sess.MessageCount = 0

	if mode == ModeGuidedLesson {
		lesson := c.currentLesson(sess)
		ls := NewLessonSession(sess.UserID, sess.Phone, sess.Language, lesson, c.now())
		sess.Study = StudyWithLesson(ls)
		c.sendText(ctx, sess.Phone, GuidedLessonIntro(lesson, sess.Language))
		c.enqueueText(sess.Phone, "🚀 Quando estiver pronto(a), digite *começar*!", followUpDelay)
		return nil
	}

	c.sendText(ctx, sess.Phone, ModeIntro(mode))
	return nil
}
