package flow

import (
	"testing"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

func newLessonSessionForTest(start time.Time) *LessonSession {
	lesson := models.LessonRecord{LessonID: 1, Topic: "Greetings", Level: models.LevelBeginner}
	return NewLessonSession(7, "5511999990000", models.LanguageEnglish, lesson, start)
}

func completeMandatory(s *LessonSession) {
	for _, stage := range MandatoryStages {
		s.CompleteStage(stage)
	}
}

func TestVerifyLimitsRequiresBothConditions(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	// Above the question max but mandatory stages incomplete.
	s := newLessonSessionForTest(start)
	s.CompleteStage(StageOpening)
	s.CompleteStage(StageExplanation)
	s.CompleteStage(StageGuidedDrill)
	for i := 0; i < 30; i++ {
		s.AddQuestion(true)
	}
	limits := s.VerifyLimits(start.Add(5 * time.Minute))
	if limits.LimitReached {
		t.Error("limit reached with mandatory stages incomplete")
	}
	if limits.MandatoryComplete {
		t.Error("mandatory stages reported complete")
	}

	// Mandatory stages done but below both quantitative thresholds.
	s = newLessonSessionForTest(start)
	completeMandatory(s)
	s.AddQuestion(true)
	limits = s.VerifyLimits(start.Add(5 * time.Minute))
	if limits.LimitReached {
		t.Error("limit reached below quantitative thresholds")
	}
	if !limits.MandatoryComplete {
		t.Error("mandatory stages not reported complete")
	}

	// Both: question count.
	s = newLessonSessionForTest(start)
	completeMandatory(s)
	for i := 0; i < LessonMaxQuestions; i++ {
		s.AddQuestion(true)
	}
	if !s.VerifyLimits(start.Add(time.Minute)).LimitReached {
		t.Error("limit not reached with questions at max and mandatory complete")
	}

	// Both: elapsed time.
	s = newLessonSessionForTest(start)
	completeMandatory(s)
	s.AddQuestion(true)
	if !s.VerifyLimits(start.Add(31 * time.Minute)).LimitReached {
		t.Error("limit not reached past max duration with mandatory complete")
	}
}

func TestVerifyLimitsRemainingCounters(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newLessonSessionForTest(start)
	for i := 0; i < 5; i++ {
		s.AddQuestion(i%2 == 0)
	}
	limits := s.VerifyLimits(start.Add(10 * time.Minute))
	if limits.QuestionsRemaining != 15 {
		t.Errorf("QuestionsRemaining = %d, want 15", limits.QuestionsRemaining)
	}
	if limits.MinutesRemaining != 20 {
		t.Errorf("MinutesRemaining = %d, want 20", limits.MinutesRemaining)
	}

	// Past both limits, counters clamp at zero.
	for i := 0; i < 40; i++ {
		s.AddQuestion(true)
	}
	limits = s.VerifyLimits(start.Add(2 * time.Hour))
	if limits.QuestionsRemaining != 0 || limits.MinutesRemaining != 0 {
		t.Errorf("remaining = (%d, %d), want (0, 0)", limits.QuestionsRemaining, limits.MinutesRemaining)
	}
}

func TestFinalizeScoring(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newLessonSessionForTest(start)
	for i := 0; i < 10; i++ {
		s.AddQuestion(i < 8) // 8 correct of 10
	}
	completeMandatory(s) // 5 stages
	s.AddImage("Greetings")
	s.AddAudio("Hello, how are you?")
	s.AddCorrection()
	s.AddVocabulary(4)

	r := s.Finalize(start.Add(25 * time.Minute))

	if r.BasePoints != 8*PointsPerCorrect {
		t.Errorf("BasePoints = %d", r.BasePoints)
	}
	if r.StageBonus != 5*PointsPerStage {
		t.Errorf("StageBonus = %d", r.StageBonus)
	}
	if r.ImageBonus != PointsPerImage || r.AudioBonus != PointsPerAudio {
		t.Errorf("image/audio bonus = %d/%d", r.ImageBonus, r.AudioBonus)
	}
	if r.CorrectionBonus != PointsPerCorrection || r.VocabularyBonus != 4*PointsPerVocabulary {
		t.Errorf("correction/vocab bonus = %d/%d", r.CorrectionBonus, r.VocabularyBonus)
	}
	want := 80 + 75 + 25 + 30 + 5 + 8
	if r.Points != want {
		t.Errorf("Points = %d, want %d", r.Points, want)
	}
	if r.Accuracy != 80 {
		t.Errorf("Accuracy = %d, want 80", r.Accuracy)
	}
	if r.DurationMinutes != 25 {
		t.Errorf("DurationMinutes = %d, want 25", r.DurationMinutes)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := newLessonSessionForTest(start)
	s.AddQuestion(true)
	completeMandatory(s)

	first := s.Finalize(start.Add(10 * time.Minute))

	// Mutations after finalize must not change the recorded result.
	s.AddQuestion(true)
	s.AddImage("extra")
	second := s.Finalize(start.Add(3 * time.Hour))

	if first != second {
		t.Errorf("Finalize not idempotent: first %+v, second %+v", first, second)
	}
	if !s.Finalized() {
		t.Error("Finalized() = false after Finalize")
	}
}

func TestCompleteStageDeduplicates(t *testing.T) {
	s := newLessonSessionForTest(time.Now())
	s.CompleteStage(StageOpening)
	s.CompleteStage(StageOpening)
	s.CompleteStage("")
	if s.StagesCompleted() != 1 {
		t.Errorf("StagesCompleted = %d, want 1", s.StagesCompleted())
	}
	if !s.StageCompleted(StageOpening) {
		t.Error("StageCompleted(opening) = false")
	}
}
