package flow

import (
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// Guided-lesson session limits and point weights.
const (
	LessonMaxQuestions = 20
	LessonMaxDuration  = 30 * time.Minute

	PointsPerCorrect    = 10
	PointsPerStage      = 15
	PointsPerImage      = 25
	PointsPerAudio      = 30
	PointsPerCorrection = 5
	PointsPerVocabulary = 2
)

// LessonSession tracks one learner's progress through a single guided-lesson
// attempt: counters, completed stages and the events that feed scoring.
type LessonSession struct {
	UserID   int64
	Phone    string
	Language string
	Lesson   models.LessonRecord

	StartedAt       time.Time
	Questions       int
	Correct         int
	completedStages map[LessonStage]bool
	Images          []string
	Audios          []string
	Corrections     int
	Vocabulary      int

	finalized bool
	result    LessonResult
}

// NewLessonSession starts a lesson attempt for a user.
func NewLessonSession(userID int64, phone, language string, lesson models.LessonRecord, now time.Time) *LessonSession {
	return &LessonSession{
		UserID:          userID,
		Phone:           phone,
		Language:        language,
		Lesson:          lesson,
		StartedAt:       now,
		completedStages: make(map[LessonStage]bool),
	}
}

// AddQuestion records one answered question.
func (s *LessonSession) AddQuestion(correct bool) {
	s.Questions++
	if correct {
		s.Correct++
	}
}

// CompleteStage marks a stage as done. Repeats are no-ops.
func (s *LessonSession) CompleteStage(stage LessonStage) {
	if stage == "" {
		return
	}
	s.completedStages[stage] = true
}

// StageCompleted reports whether the stage has been visited.
func (s *LessonSession) StageCompleted(stage LessonStage) bool {
	return s.completedStages[stage]
}

// StagesCompleted counts distinct completed stages.
func (s *LessonSession) StagesCompleted() int { return len(s.completedStages) }

// AddImage records a generated image topic.
func (s *LessonSession) AddImage(topic string) { s.Images = append(s.Images, topic) }

// AddAudio records an analyzed pronunciation exercise.
func (s *LessonSession) AddAudio(expected string) { s.Audios = append(s.Audios, expected) }

// AddCorrection records one grammar correction delivered.
func (s *LessonSession) AddCorrection() { s.Corrections++ }

// AddVocabulary records persisted vocabulary pairs.
func (s *LessonSession) AddVocabulary(n int) { s.Vocabulary += n }

// Limits is the session-limit snapshot returned by VerifyLimits.
type Limits struct {
	LimitReached       bool
	QuestionsRemaining int
	MinutesRemaining   int
	StagesCompleted    int
	MandatoryComplete  bool
}

// VerifyLimits evaluates the dual exit condition: a quantitative threshold
// (question count or elapsed time) AND all mandatory stages completed. A
// lesson never ends on volume alone while mandatory stages are missing, and
// never extends once both conditions hold.
func (s *LessonSession) VerifyLimits(now time.Time) Limits {
	elapsed := now.Sub(s.StartedAt)

	questionsRemaining := LessonMaxQuestions - s.Questions
	if questionsRemaining < 0 {
		questionsRemaining = 0
	}
	minutesRemaining := int((LessonMaxDuration - elapsed).Minutes())
	if minutesRemaining < 0 {
		minutesRemaining = 0
	}

	mandatory := true
	for _, stage := range MandatoryStages {
		if !s.completedStages[stage] {
			mandatory = false
			break
		}
	}

	quantitative := s.Questions >= LessonMaxQuestions || elapsed >= LessonMaxDuration
	return Limits{
		LimitReached:       quantitative && mandatory,
		QuestionsRemaining: questionsRemaining,
		MinutesRemaining:   minutesRemaining,
		StagesCompleted:    len(s.completedStages),
		MandatoryComplete:  mandatory,
	}
}

// LessonResult is the scored outcome of a finished lesson session.
type LessonResult struct {
	Questions       int
	Correct         int
	Accuracy        int
	StagesCompleted int
	Images          int
	Audios          int
	DurationMinutes int

	BasePoints       int
	StageBonus       int
	ImageBonus       int
	AudioBonus       int
	CorrectionBonus  int
	VocabularyBonus  int
	Points           int
}

// Finalize computes the session score. Idempotent: the second and later
// calls return the first result without re-awarding points.
func (s *LessonSession) Finalize(now time.Time) LessonResult {
	if s.finalized {
		return s.result
	}
	s.finalized = true

	accuracy := 0
	if s.Questions > 0 {
		accuracy = s.Correct * 100 / s.Questions
	}

	r := LessonResult{
		Questions:       s.Questions,
		Correct:         s.Correct,
		Accuracy:        accuracy,
		StagesCompleted: len(s.completedStages),
		Images:          len(s.Images),
		Audios:          len(s.Audios),
		DurationMinutes: int(now.Sub(s.StartedAt).Minutes()),
		BasePoints:      s.Correct * PointsPerCorrect,
		StageBonus:      len(s.completedStages) * PointsPerStage,
		ImageBonus:      len(s.Images) * PointsPerImage,
		AudioBonus:      len(s.Audios) * PointsPerAudio,
		CorrectionBonus: s.Corrections * PointsPerCorrection,
		VocabularyBonus: s.Vocabulary * PointsPerVocabulary,
	}
	r.Points = r.BasePoints + r.StageBonus + r.ImageBonus + r.AudioBonus + r.CorrectionBonus + r.VocabularyBonus
	s.result = r
	return r
}

// Finalized reports whether Finalize already ran.
func (s *LessonSession) Finalized() bool { return s.finalized }
