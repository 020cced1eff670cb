package lessons

import (
	"testing"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

func TestCurriculumShape(t *testing.T) {
	languages := []string{
		models.LanguageEnglish,
		models.LanguageSpanish,
		models.LanguageFrench,
		models.LanguageMandarin,
	}
	for _, lang := range languages {
		seq := ForLanguage(lang)
		if len(seq) != 4*BlockSize {
			t.Errorf("%s: %d lessons, want %d", lang, len(seq), 4*BlockSize)
		}
		for i, lesson := range seq {
			if lesson.ID != i+1 {
				t.Errorf("%s: lesson at index %d has ID %d", lang, i, lesson.ID)
			}
			if lesson.Topic == "" {
				t.Errorf("%s: lesson %d has empty topic", lang, lesson.ID)
			}
		}
	}
}

func TestForLanguageUnknown(t *testing.T) {
	if seq := ForLanguage("Klingon"); seq != nil {
		t.Errorf("expected nil curriculum, got %d lessons", len(seq))
	}
}

func TestByIDClamps(t *testing.T) {
	first, ok := ByID(models.LanguageEnglish, 0)
	if !ok || first.ID != 1 {
		t.Errorf("ByID(0) = %+v, %v; want first lesson", first, ok)
	}
	last, ok := ByID(models.LanguageEnglish, 999)
	if !ok || last.ID != 4*BlockSize {
		t.Errorf("ByID(999) = %+v, %v; want last lesson", last, ok)
	}
	if _, ok := ByID("Klingon", 1); ok {
		t.Error("expected no lesson for unsupported language")
	}
}

func TestNextAdvances(t *testing.T) {
	next, ok := Next(models.LanguageSpanish, 3)
	if !ok || next.ID != 4 {
		t.Errorf("Next(3) = %+v, %v; want lesson 4", next, ok)
	}
	next, ok = Next(models.LanguageSpanish, 4*BlockSize-1)
	if !ok || next.ID != 4*BlockSize {
		t.Errorf("Next(penultimate) = %+v, %v; want final lesson", next, ok)
	}
}

func TestNextStopsAtFinalLesson(t *testing.T) {
	if next, ok := Next(models.LanguageSpanish, 4*BlockSize); ok {
		t.Errorf("Next at final lesson = %+v, true; want ok=false", next)
	}
	if next, ok := Next(models.LanguageSpanish, 999); ok {
		t.Errorf("Next past end = %+v, true; want ok=false", next)
	}
	if _, ok := Next("Klingon", 1); ok {
		t.Error("expected no next lesson for unsupported language")
	}
}

func TestStartingLesson(t *testing.T) {
	cases := []struct {
		level models.Level
		want  int
	}{
		{models.LevelBeginner, 1},
		{models.LevelBasic, 6},
		{models.LevelIntermediate, 11},
		{models.LevelAdvanced, 16},
		{models.LevelFluent, 16},
		{"", 1},
	}
	for _, c := range cases {
		if got := StartingLesson(c.level); got != c.want {
			t.Errorf("StartingLesson(%q) = %d, want %d", c.level, got, c.want)
		}
	}
}
