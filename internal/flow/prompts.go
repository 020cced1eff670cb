package flow

import (
	"fmt"
	"strings"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// Prompt builders for every LLM call the conversation makes. All prompts are
// in Portuguese; the learner-facing parts mix Portuguese and the target
// language as instructed per mode.

// GenderPrompt classifies a first name. The reply must be a single word.
func GenderPrompt(name string) (system, user string) {
	system = "Você é um classificador. Dado um primeiro nome brasileiro, responda " +
		"apenas com uma palavra: 'masculino' ou 'feminino'. Se não tiver certeza, " +
		"responda 'feminino'."
	user = fmt.Sprintf("Nome: %s", name)
	return system, user
}

// ParseGender maps a classifier reply to a Gender, falling back to feminine
// on anything unexpected.
func ParseGender(reply string) models.Gender {
	if strings.Contains(strings.ToLower(reply), "masculino") {
		return models.GenderMasculine
	}
	return models.GenderFeminine
}

// ProfessorFor returns the deterministic persona for a gender.
func ProfessorFor(gender models.Gender) string {
	if gender == models.GenderMasculine {
		return "Isaias"
	}
	return "Rute"
}

// StudyModePrompt builds the system prompt for the non-guided study modes.
func StudyModePrompt(mode, language string, level models.Level, professor, name string) string {
	base := fmt.Sprintf(
		"Você é %s, professor(a) de %s da ONEDI. Seu aluno se chama %s e está no nível %s. "+
			"Responda sempre de forma encorajadora, misturando %s com explicações em português "+
			"adequadas ao nível do aluno. Use emojis com moderação. Limite a resposta a um "+
			"parágrafo curto mais um exemplo.",
		professor, language, name, level, language)

	switch mode {
	case ModeFreePractice:
		return base + " Mantenha uma conversa natural sobre o tema que o aluno trouxer. " +
			"Corrija erros gentilmente mostrando a forma correta e continue a conversa " +
			"com uma pergunta."
	case ModeTeacher:
		return base + " Explique detalhadamente qualquer dúvida que o aluno trouxer, com " +
			"exemplos práticos e uma mini-regra gramatical quando fizer sentido."
	case ModeVocabulary:
		return base + " Ensine palavras novas relacionadas ao tema pedido: apresente de 3 a 5 " +
			"palavras com tradução, pronúncia aproximada e uma frase de exemplo para cada."
	default:
		return base
	}
}

// LessonStagePrompt builds the system prompt for one guided-lesson turn.
// The reply may embed [GERAR_IMAGEM: descrição] exactly once during the
// visual activity and [SOLICITAR_AUDIO: frase] during the oral practice.
func LessonStagePrompt(lesson models.LessonRecord, stage LessonStage, language string, level models.Level, professor, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b,
		"Você é %s, professor(a) de %s da ONEDI conduzindo uma aula guiada interativa. "+
			"Aluno: %s, nível %s. Aula %d: %s (%s).\n",
		professor, language, name, level, lesson.LessonID, lesson.Topic, lesson.Content)
	fmt.Fprintf(&b, "Etapa atual: %s.\n", stage.Title())
	b.WriteString(
		"Conduza apenas esta etapa, em no máximo dois parágrafos curtos, misturando " +
			language + " e português conforme o nível. Termine sempre com uma pergunta ou " +
			"exercício para o aluno responder.\n")

	switch stage {
	case StageVisual:
		b.WriteString("Nesta etapa você DEVE incluir exatamente um marcador " +
			"[GERAR_IMAGEM: descrição detalhada da imagem educativa] relacionado ao tema da aula.\n")
	case StageOral:
		b.WriteString("Nesta etapa você DEVE incluir exatamente um marcador " +
			"[SOLICITAR_AUDIO: frase curta em " + language + " para o aluno gravar].\n")
	case StageQuiz:
		b.WriteString("Apresente uma questão de múltipla escolha com alternativas a), b), c).\n")
	case StageCorrection:
		b.WriteString("Corrija os erros mais importantes das respostas anteriores do aluno, " +
			"mostrando a forma correta e o porquê.\n")
	}
	return b.String()
}

// TranslationPrompt asks for a Portuguese translation of a bot reply.
func TranslationPrompt(text string) (system, user string) {
	system = "Traduza o texto a seguir para português brasileiro, mantendo o tom. " +
		"Responda apenas com a tradução."
	return system, text
}

// VocabularyExtractionPrompt asks for 3-5 word/translation pairs in the
// pipe-delimited mini-grammar parsed by ParseVocabulary.
func VocabularyExtractionPrompt(text, language string) (system, user string) {
	system = fmt.Sprintf(
		"Extraia de 3 a 5 palavras ou expressões úteis em %s do texto a seguir. "+
			"Responda APENAS no formato: palavra1:tradução1|palavra2:tradução2|palavra3:tradução3 "+
			"sem nenhum outro texto.", language)
	return system, text
}

// AnswerValidationPrompt asks whether a free-text test answer is a genuine
// attempt. The reply must be SIM or NAO; callers fail open on error.
func AnswerValidationPrompt(answer, language string) (system, user string) {
	system = fmt.Sprintf(
		"Você avalia se a resposta de um aluno em um teste de %s é uma tentativa "+
			"genuína de responder (mesmo com erros) ou texto sem sentido (teclas aleatórias, "+
			"spam). Responda apenas SIM para tentativa genuína ou NAO para sem sentido.", language)
	return system, answer
}

// ParseValidation interprets the validator reply, failing open.
func ParseValidation(reply string, err error) bool {
	if err != nil {
		return true
	}
	normalized := Normalize(reply)
	return !strings.Contains(normalized, "nao")
}

// InterestDetectionPrompt classifies an answer into the closed interest
// category list, returning up to three comma-separated tags or NENHUM.
func InterestDetectionPrompt(answer string) (system, user string) {
	system = fmt.Sprintf(
		"Identifique até 3 interesses do aluno na resposta a seguir, escolhendo APENAS "+
			"desta lista: %s. Responda com os interesses separados por vírgula, ou NENHUM "+
			"se nenhum se aplicar.", strings.Join(InterestCategories, ", "))
	return system, answer
}

// ParseInterests splits the detector reply into tags.
func ParseInterests(reply string) []string {
	if strings.Contains(strings.ToUpper(reply), "NENHUM") {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(reply, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

// TestFeedbackPrompt asks for a short correction/feedback block for one test
// answer.
func TestFeedbackPrompt(answer, language string, level models.Level) (system, user string) {
	system = fmt.Sprintf(
		"Você é um professor de %s corrigindo a resposta de um aluno de nível %s em um "+
			"teste de nivelamento. Dê um feedback curto e encorajador em português: aponte "+
			"no máximo dois erros com a forma correta, ou elogie se estiver tudo certo. "+
			"Máximo de três linhas.", language, level)
	return system, answer
}

// TestQuestionPrompt generates the next test question. The history is
// included verbatim so the model never repeats a prior question, and the
// used topics are explicitly excluded.
func TestQuestionPrompt(s *TestSession, topic string) (system, user string) {
	level := s.CurrentLevel()
	system = fmt.Sprintf(
		"Você é um professor de %s criando a pergunta %d de 10 de um teste de nivelamento "+
			"personalizado para %s. Nível da pergunta: %s. Tema: %s.\n"+
			"A pergunta deve pedir uma resposta livre em %s, ser adequada ao nível e "+
			"mencionar o tema. Enunciado em português com a tarefa em %s. "+
			"NUNCA repita perguntas anteriores. Responda apenas com a pergunta.",
		s.Language, s.QuestionIndex, s.Name, level, topic, s.Language, s.Language)

	var b strings.Builder
	if used := s.UsedTopics(); len(used) > 0 {
		fmt.Fprintf(&b, "Temas já usados (não repetir): %s.\n", strings.Join(used, ", "))
	}
	if len(s.History) > 0 {
		b.WriteString("Histórico do teste:\n")
		for _, turn := range s.History {
			fmt.Fprintf(&b, "Pergunta %d (%s): resposta do aluno: %s\n", turn.Index, turn.Level, turn.Answer)
		}
	}
	if len(s.Interests) > 0 {
		fmt.Fprintf(&b, "Interesses detectados: %s.\n", strings.Join(s.Interests, ", "))
	}
	if b.Len() == 0 {
		b.WriteString("Primeira pergunta do teste.")
	}
	return system, b.String()
}

// PronunciationPrompt grades a transcript against the expected utterance.
// The reply must start with "NOTA: <0-100>" followed by feedback sections.
func PronunciationPrompt(expected, transcript, language string) (system, user string) {
	system = fmt.Sprintf(
		"Você avalia a pronúncia de um aluno de %s. Compare a transcrição do áudio com a "+
			"frase esperada e atribua uma nota de 0 a 100 considerando palavras corretas, "+
			"ordem e completude. Responda no formato:\nNOTA: <número>\nACERTOS: <o que foi bem>\n"+
			"MELHORAR: <o que melhorar>", language)
	user = fmt.Sprintf("Frase esperada: %s\nTranscrição: %s", expected, transcript)
	return system, user
}
