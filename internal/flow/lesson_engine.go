package flow

import (
	"regexp"
	"strings"
)

// LessonStage labels one step of the guided lesson's fixed pedagogical
// sequence.
type LessonStage string

// The eleven lesson stages, in strict order.
const (
	StageOpening       LessonStage = "abertura"
	StageExplanation   LessonStage = "explicacao_conceito"
	StageDemonstration LessonStage = "demonstracao_pratica"
	StageGuidedDrill   LessonStage = "exercicio_guiado"
	StageQuiz          LessonStage = "quiz_interativo"
	StageVisual        LessonStage = "atividade_visual"
	StageOral          LessonStage = "pratica_oral"
	StageWriting       LessonStage = "producao_textual"
	StageCorrection    LessonStage = "correcao_detalhada"
	StageConsolidation LessonStage = "consolidacao"
	StageEvaluation    LessonStage = "avaliacao_progresso"
)

// LessonStages is the full ordered sequence. No branching, no skipping.
var LessonStages = []LessonStage{
	StageOpening,
	StageExplanation,
	StageDemonstration,
	StageGuidedDrill,
	StageQuiz,
	StageVisual,
	StageOral,
	StageWriting,
	StageCorrection,
	StageConsolidation,
	StageEvaluation,
}

// MandatoryStages must all be completed before a lesson session may end.
var MandatoryStages = []LessonStage{
	StageOpening,
	StageExplanation,
	StageGuidedDrill,
	StageQuiz,
	StageWriting,
}

// stageTitles are the human-readable stage names used in prompts.
var stageTitles = map[LessonStage]string{
	StageOpening:       "Abertura da aula",
	StageExplanation:   "Explicação do conceito",
	StageDemonstration: "Demonstração prática",
	StageGuidedDrill:   "Exercício guiado",
	StageQuiz:          "Quiz interativo",
	StageVisual:        "Atividade visual",
	StageOral:          "Prática oral",
	StageWriting:       "Produção textual",
	StageCorrection:    "Correção detalhada",
	StageConsolidation: "Consolidação",
	StageEvaluation:    "Avaliação de progresso",
}

// Title returns the display name of a stage.
func (s LessonStage) Title() string {
	if t, ok := stageTitles[s]; ok {
		return t
	}
	return string(s)
}

// NextStage returns the stage after current, clamped at the last stage. An
// unknown or empty current stage restarts at the first.
func NextStage(current LessonStage) LessonStage {
	for i, stage := range LessonStages {
		if stage == current {
			if i == len(LessonStages)-1 {
				return stage
			}
			return LessonStages[i+1]
		}
	}
	return LessonStages[0]
}

var startKeywords = []string{"comecar", "iniciar", "start", "vamos comecar", "bora", "begin"}

// IsStartKeyword reports whether the message asks to (re)start the lesson,
// which forces the stage pointer back to the opening.
func IsStartKeyword(body string) bool {
	n := Normalize(body)
	for _, kw := range startKeywords {
		if n == kw || strings.HasPrefix(n, kw+" ") {
			return true
		}
	}
	return false
}

var (
	imageDirectivePattern = regexp.MustCompile(`\[GERAR_IMAGEM:\s*([^\]]+)\]`)
	audioDirectivePattern = regexp.MustCompile(`\[SOLICITAR_AUDIO:\s*([^\]]+)\]`)
)

// Directives is the structured result of scanning an LLM lesson reply for
// embedded action markers.
type Directives struct {
	Text        string // reply with directives replaced by learner-facing captions
	ImagePrompt string // non-empty when an image was requested
	AudioTarget string // non-empty when a pronunciation exercise was requested
}

// ExtractDirectives pulls the optional image and audio markers out of an LLM
// reply. Either, both or neither may appear; each is independent.
func ExtractDirectives(reply string) Directives {
	d := Directives{Text: reply}

	if m := imageDirectivePattern.FindStringSubmatch(d.Text); m != nil {
		d.ImagePrompt = strings.TrimSpace(m[1])
		d.Text = imageDirectivePattern.ReplaceAllString(d.Text,
			"🖼️ Veja a imagem que preparei! Descreva o que você vê nela.")
	}
	if m := audioDirectivePattern.FindStringSubmatch(d.Text); m != nil {
		d.AudioTarget = strings.TrimSpace(m[1])
		d.Text = audioDirectivePattern.ReplaceAllString(d.Text,
			"🎤 Grave um áudio falando: \""+d.AudioTarget+"\"")
	}
	d.Text = strings.TrimSpace(d.Text)
	return d
}

// VocabularyPair is one extracted word/translation pair.
type VocabularyPair struct {
	Word        string
	Translation string
}

const maxVocabularyPairs = 5

// ParseVocabulary parses the pipe-delimited word:translation mini-grammar
// returned by the vocabulary-extraction prompt. Malformed pairs are skipped
// silently; at most five pairs are kept.
func ParseVocabulary(raw string) []VocabularyPair {
	var pairs []VocabularyPair
	for _, chunk := range strings.Split(raw, "|") {
		word, translation, ok := strings.Cut(chunk, ":")
		if !ok {
			continue
		}
		word = strings.TrimSpace(word)
		translation = strings.TrimSpace(translation)
		if word == "" || translation == "" {
			continue
		}
		pairs = append(pairs, VocabularyPair{Word: word, Translation: translation})
		if len(pairs) == maxVocabularyPairs {
			break
		}
	}
	return pairs
}
