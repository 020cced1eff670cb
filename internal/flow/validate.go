package flow

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// Score thresholds for each proficiency level.
const (
	ScoreBasic        = 150
	ScoreIntermediate = 400
	ScoreAdvanced     = 800
	ScoreFluent       = 1500
)

var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds input for fuzzy matching: lowercase, diacritics stripped,
// non-letter/digit runes dropped, whitespace collapsed to single spaces.
func Normalize(input string) string {
	stripped, _, err := transform.String(diacriticStripper, input)
	if err != nil {
		stripped = input
	}
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || r == '_' || r == '-' || r == '/':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// languageAliases maps normalized inputs to canonical language labels.
// Covers row IDs, plain names and common variants; anything else falls back
// to a substring scan.
var languageAliases = map[string]string{
	"ingles":          models.LanguageEnglish,
	"english":         models.LanguageEnglish,
	"idioma ingles":   models.LanguageEnglish,
	"espanhol":        models.LanguageSpanish,
	"spanish":         models.LanguageSpanish,
	"espanol":         models.LanguageSpanish,
	"idioma espanhol": models.LanguageSpanish,
	"frances":         models.LanguageFrench,
	"french":          models.LanguageFrench,
	"idioma frances":  models.LanguageFrench,
	"mandarim":        models.LanguageMandarin,
	"chines":          models.LanguageMandarin,
	"chinese":         models.LanguageMandarin,
	"mandarin":        models.LanguageMandarin,
	"idioma mandarim": models.LanguageMandarin,
}

// languageSubstrings is scanned when no alias matches exactly.
var languageSubstrings = []struct {
	fragment string
	label    string
}{
	{"ingles", models.LanguageEnglish},
	{"english", models.LanguageEnglish},
	{"espanhol", models.LanguageSpanish},
	{"spanish", models.LanguageSpanish},
	{"frances", models.LanguageFrench},
	{"french", models.LanguageFrench},
	{"mandarim", models.LanguageMandarin},
	{"chines", models.LanguageMandarin},
	{"mandarin", models.LanguageMandarin},
}

// ValidateLanguage resolves free-form input (typed name, emoji-prefixed menu
// label, list row ID) to a canonical language label.
func ValidateLanguage(input string) (string, bool) {
	n := Normalize(input)
	if n == "" {
		return "", false
	}
	if label, ok := languageAliases[n]; ok {
		return label, true
	}
	for _, s := range languageSubstrings {
		if strings.Contains(n, s.fragment) {
			return s.label, true
		}
	}
	return "", false
}

// modeAliases maps normalized inputs to canonical study-mode identifiers.
var modeAliases = map[string]string{
	"aula guiada":            ModeGuidedLesson,
	"aula guiada interativa": ModeGuidedLesson,
	"aula":                   ModeGuidedLesson,
	"guiada":                 ModeGuidedLesson,
	"pratica livre":          ModeFreePractice,
	"pratica":                ModeFreePractice,
	"conversacao":            ModeFreePractice,
	"modo professor":         ModeTeacher,
	"professor":              ModeTeacher,
	"modo vocabulario":       ModeVocabulary,
	"vocabulario":            ModeVocabulary,
}

var modeSubstrings = []struct {
	fragment string
	mode     string
}{
	{"guiada", ModeGuidedLesson},
	{"livre", ModeFreePractice},
	{"professor", ModeTeacher},
	{"vocabulario", ModeVocabulary},
}

// ValidateMode resolves free-form input to one of the four study modes.
func ValidateMode(input string) (string, bool) {
	n := Normalize(input)
	if n == "" {
		return "", false
	}
	if mode, ok := modeAliases[n]; ok {
		return mode, true
	}
	for _, s := range modeSubstrings {
		if strings.Contains(n, s.fragment) {
			return s.mode, true
		}
	}
	return "", false
}

// selectableLevels are the levels a user may pick at onboarding. Fluente is
// reachable only through score.
var selectableLevels = []models.Level{
	models.LevelBeginner,
	models.LevelBasic,
	models.LevelIntermediate,
	models.LevelAdvanced,
}

// ValidateLevel resolves free-form input to a selectable proficiency level.
func ValidateLevel(input string) (models.Level, bool) {
	n := Normalize(input)
	if n == "" {
		return "", false
	}
	for _, level := range selectableLevels {
		if n == Normalize(string(level)) {
			return level, true
		}
	}
	for _, level := range selectableLevels {
		if strings.Contains(n, Normalize(string(level))) {
			return level, true
		}
	}
	return "", false
}

// LevelForScore maps a score to its proficiency level. Total and monotonic.
func LevelForScore(score int) models.Level {
	switch {
	case score < ScoreBasic:
		return models.LevelBeginner
	case score < ScoreIntermediate:
		return models.LevelBasic
	case score < ScoreAdvanced:
		return models.LevelIntermediate
	case score < ScoreFluent:
		return models.LevelAdvanced
	default:
		return models.LevelFluent
	}
}

// LanguageCode returns the BCP-47-ish hint code used for STT and TTS.
func LanguageCode(language string) string {
	switch language {
	case models.LanguageEnglish:
		return "en"
	case models.LanguageSpanish:
		return "es"
	case models.LanguageFrench:
		return "fr"
	case models.LanguageMandarin:
		return "zh"
	default:
		return "en"
	}
}
