package flow

import (
	"testing"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

func newTestSessionForTest(start models.Level) *TestSession {
	return NewTestSession(7, "5511999990000", models.LanguageEnglish, "Maria",
		models.GenderFeminine, start, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func TestLevelForQuestionSchedules(t *testing.T) {
	cases := []struct {
		start    models.Level
		question int
		want     models.Level
	}{
		{models.LevelBeginner, 1, models.LevelBeginner},
		{models.LevelBeginner, 4, models.LevelBeginner},
		{models.LevelBeginner, 5, models.LevelBasic},
		{models.LevelBeginner, 7, models.LevelBasic},
		{models.LevelBeginner, 8, models.LevelIntermediate},
		{models.LevelBeginner, 9, models.LevelIntermediate},
		{models.LevelBeginner, 10, models.LevelAdvanced},
		{models.LevelBasic, 1, models.LevelBasic},
		{models.LevelBasic, 3, models.LevelBasic},
		{models.LevelBasic, 4, models.LevelIntermediate},
		{models.LevelBasic, 7, models.LevelIntermediate},
		{models.LevelBasic, 8, models.LevelAdvanced},
		{models.LevelIntermediate, 1, models.LevelBasic},
		{models.LevelIntermediate, 2, models.LevelBasic},
		{models.LevelIntermediate, 3, models.LevelIntermediate},
		{models.LevelIntermediate, 6, models.LevelIntermediate},
		{models.LevelIntermediate, 7, models.LevelAdvanced},
		{models.LevelAdvanced, 1, models.LevelIntermediate},
		{models.LevelAdvanced, 2, models.LevelIntermediate},
		{models.LevelAdvanced, 3, models.LevelAdvanced},
		{models.LevelAdvanced, 10, models.LevelAdvanced},
	}
	for _, tc := range cases {
		if got := LevelForQuestion(tc.start, tc.question); got != tc.want {
			t.Errorf("LevelForQuestion(%s, %d) = %s, want %s", tc.start, tc.question, got, tc.want)
		}
	}
}

func TestLevelForQuestionClampsIndex(t *testing.T) {
	if got := LevelForQuestion(models.LevelBeginner, 0); got != models.LevelBeginner {
		t.Errorf("question 0 = %s", got)
	}
	if got := LevelForQuestion(models.LevelBeginner, 99); got != models.LevelAdvanced {
		t.Errorf("question 99 = %s", got)
	}
}

func TestNewTestSessionNormalizesStartLevel(t *testing.T) {
	if got := newTestSessionForTest("").StartLevel; got != models.LevelBeginner {
		t.Errorf("empty start level = %s, want iniciante", got)
	}
	if got := newTestSessionForTest(models.LevelFluent).StartLevel; got != models.LevelBeginner {
		t.Errorf("fluente start level = %s, want iniciante", got)
	}
}

func TestNextTopicNoRepeatUntilExhausted(t *testing.T) {
	s := newTestSessionForTest(models.LevelBeginner)
	seen := map[string]bool{}
	for i := 0; i < len(testTopics); i++ {
		topic := s.NextTopic()
		if seen[topic] {
			t.Fatalf("topic %q repeated with unused candidates remaining", topic)
		}
		seen[topic] = true
	}

	// Exhausted: repetition is permitted and must not panic.
	for i := 0; i < 5; i++ {
		if s.NextTopic() == "" {
			t.Fatal("empty topic after exhaustion")
		}
	}
}

func TestAddInterests(t *testing.T) {
	s := newTestSessionForTest(models.LevelBeginner)
	s.AddInterests([]string{" Viagens ", "TECNOLOGIA", "ar"})
	s.AddInterests([]string{"viagens", "música"})

	want := []string{"viagens", "tecnologia", "música"}
	if len(s.Interests) != len(want) {
		t.Fatalf("Interests = %v, want %v", s.Interests, want)
	}
	for i := range want {
		if s.Interests[i] != want[i] {
			t.Errorf("Interests[%d] = %q, want %q", i, s.Interests[i], want[i])
		}
	}
}

func TestAddInterestsCapsPerAnswer(t *testing.T) {
	s := newTestSessionForTest(models.LevelBeginner)
	s.AddInterests([]string{"viagens", "tecnologia", "música", "esportes", "cinema"})
	if len(s.Interests) != maxInterestsPerAnswer {
		t.Errorf("len(Interests) = %d, want %d", len(s.Interests), maxInterestsPerAnswer)
	}
}

func TestRecordAnswerAdvancesAndFinishes(t *testing.T) {
	s := newTestSessionForTest(models.LevelBeginner)
	now := s.StartedAt

	for i := 1; i <= TestQuestionCount; i++ {
		if s.Done() {
			t.Fatalf("Done() = true before question %d", i)
		}
		finished := s.RecordAnswer("answer", now)
		if finished != (i == TestQuestionCount) {
			t.Errorf("RecordAnswer #%d finished = %v", i, finished)
		}
	}
	if !s.Done() {
		t.Error("Done() = false after 10 answers")
	}
	if len(s.History) != TestQuestionCount {
		t.Errorf("len(History) = %d", len(s.History))
	}
	if s.History[0].Level != models.LevelBeginner || s.History[9].Level != models.LevelAdvanced {
		t.Errorf("history levels = %s..%s", s.History[0].Level, s.History[9].Level)
	}
}

func TestTestFinalizeIdempotent(t *testing.T) {
	s := newTestSessionForTest(models.LevelBeginner)
	now := s.StartedAt
	for i := 0; i < TestQuestionCount; i++ {
		s.RecordAnswer("resposta", now)
	}
	s.AddInterests([]string{"viagens"})

	first := s.Finalize()
	s.AddInterests([]string{"cinema"})
	second := s.Finalize()

	if second.Questions != first.Questions || second.FinalLevel != first.FinalLevel {
		t.Errorf("Finalize not idempotent: %+v vs %+v", first, second)
	}
	if len(second.Interests) != len(first.Interests) {
		t.Errorf("interests changed after finalize: %v vs %v", first.Interests, second.Interests)
	}
	if !s.Finalized() {
		t.Error("Finalized() = false")
	}
}

func TestFinalLevelBands(t *testing.T) {
	now := time.Now()

	s := newTestSessionForTest(models.LevelBeginner)
	for i := 0; i < 2; i++ {
		s.RecordAnswer("a", now)
	}
	if got := s.FinalLevel(); got != models.LevelBeginner {
		t.Errorf("2 answers = %s, want iniciante", got)
	}

	s = newTestSessionForTest(models.LevelBeginner)
	for i := 0; i < 6; i++ {
		s.RecordAnswer("a", now)
	}
	if got := s.FinalLevel(); got != models.LevelBasic {
		t.Errorf("6 answers = %s, want básico", got)
	}

	s = newTestSessionForTest(models.LevelBeginner)
	for i := 0; i < 10; i++ {
		s.RecordAnswer("a", now)
	}
	if got := s.FinalLevel(); got != models.LevelAdvanced {
		t.Errorf("10 answers = %s, want avançado", got)
	}
}

func TestFallbackQuestionNeverEmpty(t *testing.T) {
	if FallbackQuestion(models.LanguageEnglish, "viagens") == "" {
		t.Error("empty fallback question")
	}
	if FallbackQuestion(models.LanguageFrench, "") == "" {
		t.Error("empty fallback question for empty topic")
	}
}
