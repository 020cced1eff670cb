package flow

import (
	"strings"
	"testing"
)

func TestLessonStagesShape(t *testing.T) {
	if len(LessonStages) != 11 {
		t.Fatalf("len(LessonStages) = %d, want 11", len(LessonStages))
	}
	seen := map[LessonStage]bool{}
	for _, stage := range LessonStages {
		if seen[stage] {
			t.Errorf("duplicate stage %q", stage)
		}
		seen[stage] = true
		if stage.Title() == string(stage) {
			t.Errorf("stage %q has no display title", stage)
		}
	}
	for _, stage := range MandatoryStages {
		if !seen[stage] {
			t.Errorf("mandatory stage %q not in sequence", stage)
		}
	}
}

func TestNextStageMonotonicAndClamped(t *testing.T) {
	for i := 0; i < len(LessonStages)-1; i++ {
		if got := NextStage(LessonStages[i]); got != LessonStages[i+1] {
			t.Errorf("NextStage(%q) = %q, want %q", LessonStages[i], got, LessonStages[i+1])
		}
	}

	last := LessonStages[len(LessonStages)-1]
	if got := NextStage(last); got != last {
		t.Errorf("NextStage(last) = %q, want clamped %q", got, last)
	}

	// Unknown or empty stage restarts at the opening.
	if got := NextStage(""); got != LessonStages[0] {
		t.Errorf("NextStage(\"\") = %q, want %q", got, LessonStages[0])
	}
	if got := NextStage("inexistente"); got != LessonStages[0] {
		t.Errorf("NextStage(unknown) = %q, want %q", got, LessonStages[0])
	}
}

func TestIsStartKeyword(t *testing.T) {
	for _, in := range []string{"começar", "COMEÇAR", "iniciar", "start", "vamos começar", "começar agora"} {
		if !IsStartKeyword(in) {
			t.Errorf("IsStartKeyword(%q) = false", in)
		}
	}
	for _, in := range []string{"oi", "quero recomeçar minha vida", "startup"} {
		if IsStartKeyword(in) {
			t.Errorf("IsStartKeyword(%q) = true", in)
		}
	}
}

func TestExtractDirectivesImage(t *testing.T) {
	d := ExtractDirectives("Veja só! [GERAR_IMAGEM: uma sala de aula colorida] O que você acha?")
	if d.ImagePrompt != "uma sala de aula colorida" {
		t.Errorf("ImagePrompt = %q", d.ImagePrompt)
	}
	if d.AudioTarget != "" {
		t.Errorf("AudioTarget = %q, want empty", d.AudioTarget)
	}
	if strings.Contains(d.Text, "GERAR_IMAGEM") {
		t.Errorf("directive left in text: %q", d.Text)
	}
	if !strings.Contains(d.Text, "Descreva") {
		t.Errorf("caption missing: %q", d.Text)
	}
}

func TestExtractDirectivesAudio(t *testing.T) {
	d := ExtractDirectives("Sua vez! [SOLICITAR_AUDIO: Good morning, teacher]")
	if d.AudioTarget != "Good morning, teacher" {
		t.Errorf("AudioTarget = %q", d.AudioTarget)
	}
	if strings.Contains(d.Text, "SOLICITAR_AUDIO") {
		t.Errorf("directive left in text: %q", d.Text)
	}
	if !strings.Contains(d.Text, "Good morning, teacher") {
		t.Errorf("recording instructions missing target: %q", d.Text)
	}
}

func TestExtractDirectivesBothAndNeither(t *testing.T) {
	d := ExtractDirectives("[GERAR_IMAGEM: um parque] e depois [SOLICITAR_AUDIO: I like parks]")
	if d.ImagePrompt != "um parque" || d.AudioTarget != "I like parks" {
		t.Errorf("directives = (%q, %q)", d.ImagePrompt, d.AudioTarget)
	}

	d = ExtractDirectives("Resposta comum sem marcadores.")
	if d.ImagePrompt != "" || d.AudioTarget != "" {
		t.Errorf("unexpected directives: %+v", d)
	}
	if d.Text != "Resposta comum sem marcadores." {
		t.Errorf("text changed: %q", d.Text)
	}
}

func TestParseVocabulary(t *testing.T) {
	pairs := ParseVocabulary("hello:olá|world:mundo|  good morning : bom dia ")
	if len(pairs) != 3 {
		t.Fatalf("len = %d, want 3", len(pairs))
	}
	if pairs[2].Word != "good morning" || pairs[2].Translation != "bom dia" {
		t.Errorf("pair[2] = %+v", pairs[2])
	}
}

func TestParseVocabularySkipsMalformed(t *testing.T) {
	pairs := ParseVocabulary("semtraducao|:vazio|vazio:|ok:certo|")
	if len(pairs) != 1 || pairs[0].Word != "ok" {
		t.Errorf("pairs = %+v, want only ok:certo", pairs)
	}

	if got := ParseVocabulary(""); got != nil {
		t.Errorf("ParseVocabulary(\"\") = %+v, want nil", got)
	}
}

func TestParseVocabularyCapsAtFive(t *testing.T) {
	pairs := ParseVocabulary("a:1|b:2|c:3|d:4|e:5|f:6|g:7")
	if len(pairs) != maxVocabularyPairs {
		t.Errorf("len = %d, want %d", len(pairs), maxVocabularyPairs)
	}
}
