package flow

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pending-audio expectations expire after this TTL; the sweep runs on a
// fixed interval from the scheduler.
const (
	PendingAudioTTL           = 5 * time.Minute
	PendingAudioSweepInterval = 60 * time.Second
)

// Message counters past the threshold are zeroed periodically so the
// resource reminder cadence stays meaningful on long-lived sessions.
const (
	MessageCounterResetInterval  = 30 * time.Minute
	MessageCounterResetThreshold = 100
)

// Pronunciation feedback thresholds. Scores at or above PronunciationPass
// count as a correct answer in the guided lesson.
const (
	PronunciationExcellent = 80
	PronunciationPass      = 60
)

var scorePattern = regexp.MustCompile(`NOTA:\s*(\d{1,3})`)

// ParsePronunciationScore extracts the 0-100 grade from the LLM rubric
// reply. Returns false when no grade is present.
func ParsePronunciationScore(reply string) (int, bool) {
	m := scorePattern.FindStringSubmatch(reply)
	if m == nil {
		return 0, false
	}
	score, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	if score > 100 {
		score = 100
	}
	return score, true
}

// LexicalPronunciationScore is the deterministic fallback grader used when
// the LLM rubric fails. Per expected word: exact match at the same position
// scores 100, containment either way scores 70, otherwise the character
// prefix-overlap ratio scaled to 100. The average is penalized 10 points per
// word-count mismatch and clamped to [0,100].
func LexicalPronunciationScore(expected, transcript string) int {
	expectedWords := strings.Fields(Normalize(expected))
	spokenWords := strings.Fields(Normalize(transcript))
	if len(expectedWords) == 0 {
		return 0
	}

	total := 0
	for i, want := range expectedWords {
		best := 0
		if i < len(spokenWords) {
			got := spokenWords[i]
			switch {
			case got == want:
				best = 100
			case strings.Contains(got, want) || strings.Contains(want, got):
				best = 70
			default:
				best = charOverlap(want, got)
			}
		} else {
			// Word missing at this position; scan the rest for containment.
			for _, got := range spokenWords {
				if got == want {
					best = 70
					break
				}
			}
		}
		total += best
	}

	score := total / len(expectedWords)
	diff := len(expectedWords) - len(spokenWords)
	if diff < 0 {
		diff = -diff
	}
	score -= diff * 10
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// charOverlap scores position-wise character agreement between two words,
// scaled to 100 over the longer word.
func charOverlap(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] == rb[i] {
			matches++
		}
	}
	return matches * 100 / longer
}

// PronunciationFeedback renders the tiered feedback message for a score.
func PronunciationFeedback(score int, expected string) string {
	switch {
	case score >= PronunciationExcellent:
		return "🌟 *Excelente pronúncia!* Nota: " + strconv.Itoa(score) + "/100\n\nVocê falou muito bem: \"" + expected + "\""
	case score >= PronunciationPass:
		return "👍 *Boa pronúncia!* Nota: " + strconv.Itoa(score) + "/100\n\nQuase lá! A frase era: \"" + expected + "\". Continue praticando!"
	default:
		return "💪 *Vamos praticar mais!* Nota: " + strconv.Itoa(score) + "/100\n\nA frase era: \"" + expected + "\". Tente gravar de novo com calma."
	}
}

// SweepPendingAudio removes expectations older than the TTL from every
// session. Fresh expectations survive.
func SweepPendingAudio(sessions *SessionStore, now time.Time) int {
	removed := 0
	sessions.Range(func(s *Session) {
		if s.Pending != nil && now.Sub(s.Pending.CreatedAt) > PendingAudioTTL {
			s.Pending = nil
			removed++
			slog.Debug("Swept stale pending-audio expectation", "phone", s.Phone)
		}
	})
	return removed
}

// ResetMessageCounters zeroes counters that have grown past the threshold.
// Runs on a slow interval to bound reminder arithmetic.
func ResetMessageCounters(sessions *SessionStore, threshold int) int {
	reset := 0
	sessions.Range(func(s *Session) {
		if s.MessageCount > threshold {
			s.MessageCount = 0
			reset++
		}
	})
	return reset
}
