package flow

import (
	"strings"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// TestQuestionCount is the fixed length of the adaptive test.
const TestQuestionCount = 10

// maxInterestsPerAnswer caps how many interest tags one answer contributes.
const maxInterestsPerAnswer = 3

// testTopics is the candidate pool for question topics. Topics are used at
// most once while unused ones remain; once exhausted, repetition is allowed.
var testTopics = []string{
	"hobbies",
	"família",
	"trabalho",
	"viagens",
	"comida",
	"música",
	"filmes e séries",
	"esportes",
	"tecnologia",
	"rotina diária",
	"animais de estimação",
	"clima e estações",
	"compras",
	"saúde e bem-estar",
	"planos para o futuro",
}

// InterestCategories is the closed vocabulary for interest detection.
var InterestCategories = []string{
	"viagens", "tecnologia", "música", "esportes", "culinária", "cinema",
	"leitura", "jogos", "natureza", "arte", "moda", "negócios", "ciência",
	"história", "idiomas",
}

// TestTurn is one answered question in the test history.
type TestTurn struct {
	Index  int
	Answer string
	Level  models.Level
	At     time.Time
}

// TestSession is a trial user's 10-question onboarding assessment. It
// tracks the question counter, the detected interests and the history that
// gets fed back into question generation.
type TestSession struct {
	UserID     int64
	Phone      string
	Language   string
	Name       string
	Gender     models.Gender
	StartLevel models.Level

	QuestionIndex int // 1-based; the question currently awaiting an answer
	Interests     []string
	History       []TestTurn
	StartedAt     time.Time

	usedTopics  map[string]bool
	topicCursor int
	finished    bool
	outcome     models.TestResult
}

// NewTestSession starts an adaptive test at the given starting level.
func NewTestSession(userID int64, phone, language, name string, gender models.Gender, startLevel models.Level, now time.Time) *TestSession {
	if startLevel == "" || startLevel == models.LevelFluent {
		startLevel = models.LevelBeginner
	}
	return &TestSession{
		UserID:        userID,
		Phone:         phone,
		Language:      language,
		Name:          name,
		Gender:        gender,
		StartLevel:    startLevel,
		QuestionIndex: 1,
		StartedAt:     now,
		usedTopics:    make(map[string]bool),
	}
}

// LevelForQuestion returns the difficulty band for a question number under
// one of the four starting-level schedules.
func LevelForQuestion(start models.Level, question int) models.Level {
	if question < 1 {
		question = 1
	}
	if question > TestQuestionCount {
		question = TestQuestionCount
	}
	switch start {
	case models.LevelBasic:
		switch {
		case question <= 3:
			return models.LevelBasic
		case question <= 7:
			return models.LevelIntermediate
		default:
			return models.LevelAdvanced
		}
	case models.LevelIntermediate:
		switch {
		case question <= 2:
			return models.LevelBasic
		case question <= 6:
			return models.LevelIntermediate
		default:
			return models.LevelAdvanced
		}
	case models.LevelAdvanced:
		if question <= 2 {
			return models.LevelIntermediate
		}
		return models.LevelAdvanced
	default: // iniciante
		switch {
		case question <= 4:
			return models.LevelBeginner
		case question <= 7:
			return models.LevelBasic
		case question <= 9:
			return models.LevelIntermediate
		default:
			return models.LevelAdvanced
		}
	}
}

// CurrentLevel is the difficulty of the question awaiting an answer.
func (s *TestSession) CurrentLevel() models.Level {
	return LevelForQuestion(s.StartLevel, s.QuestionIndex)
}

// NextTopic picks a topic not yet used in this test, marking it used. Once
// every candidate has been used, topics repeat in order.
func (s *TestSession) NextTopic() string {
	for range testTopics {
		topic := testTopics[s.topicCursor%len(testTopics)]
		s.topicCursor++
		if !s.usedTopics[topic] {
			s.usedTopics[topic] = true
			return topic
		}
	}
	// All exhausted; cycle.
	topic := testTopics[s.topicCursor%len(testTopics)]
	s.topicCursor++
	return topic
}

// UsedTopics returns the topics consumed so far.
func (s *TestSession) UsedTopics() []string {
	out := make([]string, 0, len(s.usedTopics))
	for _, topic := range testTopics {
		if s.usedTopics[topic] {
			out = append(out, topic)
		}
	}
	return out
}

// AddInterests merges up to three detected tags into the interest set,
// lowercased and deduplicated. Short fragments are dropped.
func (s *TestSession) AddInterests(tags []string) {
	added := 0
	for _, tag := range tags {
		if added == maxInterestsPerAnswer {
			break
		}
		tag = strings.ToLower(strings.TrimSpace(tag))
		if len([]rune(tag)) <= 2 {
			continue
		}
		duplicate := false
		for _, existing := range s.Interests {
			if existing == tag {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		s.Interests = append(s.Interests, tag)
		added++
	}
}

// RecordAnswer appends the answer to the history and advances the question
// counter. Returns true when the test just reached its end.
func (s *TestSession) RecordAnswer(answer string, now time.Time) bool {
	s.History = append(s.History, TestTurn{
		Index:  s.QuestionIndex,
		Answer: answer,
		Level:  s.CurrentLevel(),
		At:     now,
	})
	s.QuestionIndex++
	return s.QuestionIndex > TestQuestionCount
}

// Done reports whether all questions have been answered.
func (s *TestSession) Done() bool { return s.QuestionIndex > TestQuestionCount }

// FinalLevel is the level awarded by the finished test, derived from how
// many questions were answered.
func (s *TestSession) FinalLevel() models.Level {
	answered := len(s.History)
	switch {
	case answered <= 3:
		return models.LevelBeginner
	case answered <= 7:
		return models.LevelBasic
	default:
		return LevelForQuestion(s.StartLevel, answered)
	}
}

// Finalize closes the test and returns its persistable outcome. Idempotent:
// later calls return the first outcome.
func (s *TestSession) Finalize() models.TestResult {
	if s.finished {
		return s.outcome
	}
	s.finished = true
	s.outcome = models.TestResult{
		Interests:  s.Interests,
		Questions:  len(s.History),
		FinalLevel: s.FinalLevel(),
	}
	return s.outcome
}

// Finalized reports whether Finalize already ran.
func (s *TestSession) Finalized() bool { return s.finished }

// FallbackQuestion is the canned per-topic question used when generation
// fails, so the test never stalls.
func FallbackQuestion(language, topic string) string {
	if topic == "" {
		topic = "hobbies"
	}
	return "📝 Me conte, em " + language + ", sobre " + topic +
		". Pode ser uma frase simples! Se precisar, use algumas palavras em português."
}
