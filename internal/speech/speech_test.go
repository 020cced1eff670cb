package speech

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/openai/openai-go"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

type mockSpeechService struct {
	audio      []byte
	err        error
	lastParams openai.AudioSpeechNewParams
}

func (m *mockSpeechService) New(ctx context.Context, params openai.AudioSpeechNewParams) (*http.Response, error) {
	m.lastParams = params
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{Body: io.NopCloser(bytes.NewReader(m.audio))}, nil
}

type mockTranscriptionService struct {
	text       string
	err        error
	lastParams openai.AudioTranscriptionNewParams
}

func (m *mockTranscriptionService) New(ctx context.Context, params openai.AudioTranscriptionNewParams) (openai.Transcription, error) {
	m.lastParams = params
	return openai.Transcription{Text: m.text}, m.err
}

func TestVoiceFor(t *testing.T) {
	cases := []struct {
		language string
		gender   models.Gender
		want     openai.AudioSpeechNewParamsVoice
	}{
		{models.LanguageEnglish, models.GenderMasculine, openai.AudioSpeechNewParamsVoiceOnyx},
		{models.LanguageEnglish, models.GenderFeminine, openai.AudioSpeechNewParamsVoiceNova},
		{models.LanguageSpanish, models.GenderMasculine, openai.AudioSpeechNewParamsVoiceEcho},
		{models.LanguageSpanish, models.GenderFeminine, openai.AudioSpeechNewParamsVoiceShimmer},
		{models.LanguageFrench, models.GenderMasculine, openai.AudioSpeechNewParamsVoiceAlloy},
		{models.LanguageFrench, models.GenderFeminine, openai.AudioSpeechNewParamsVoiceNova},
		{models.LanguageMandarin, models.GenderMasculine, openai.AudioSpeechNewParamsVoiceEcho},
		{models.LanguageMandarin, models.GenderFeminine, openai.AudioSpeechNewParamsVoiceShimmer},
		{"Klingon", "", openai.AudioSpeechNewParamsVoiceNova},
	}
	for _, c := range cases {
		if got := VoiceFor(c.language, c.gender); got != c.want {
			t.Errorf("VoiceFor(%q, %q) = %q, want %q", c.language, c.gender, got, c.want)
		}
	}
}

func TestSynthesize(t *testing.T) {
	mock := &mockSpeechService{audio: []byte("OggS-audio-bytes")}
	client := &Client{speech: mock}

	data, err := client.Synthesize(context.Background(), "**Hello!** How are you?", models.LanguageEnglish, models.GenderFeminine)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}
	if !bytes.Equal(data, []byte("OggS-audio-bytes")) {
		t.Errorf("unexpected audio payload %q", data)
	}
	if mock.lastParams.Voice != openai.AudioSpeechNewParamsVoiceNova {
		t.Errorf("voice = %q, want nova", mock.lastParams.Voice)
	}
	if strings.Contains(mock.lastParams.Input, "*") {
		t.Errorf("markdown not stripped from TTS input: %q", mock.lastParams.Input)
	}
}

func TestSynthesizeEmptyAfterCleanup(t *testing.T) {
	client := &Client{speech: &mockSpeechService{}}
	if _, err := client.Synthesize(context.Background(), "🎉🎉🎉", models.LanguageEnglish, models.GenderFeminine); err == nil {
		t.Error("expected error for emoji-only input, got nil")
	}
}

func TestSynthesizeServiceError(t *testing.T) {
	client := &Client{speech: &mockSpeechService{err: errors.New("tts down")}}
	_, err := client.Synthesize(context.Background(), "Hello", models.LanguageEnglish, models.GenderFeminine)
	if err == nil || !strings.Contains(err.Error(), "tts down") {
		t.Errorf("expected wrapped service error, got %v", err)
	}
}

func TestTranscribe(t *testing.T) {
	mock := &mockTranscriptionService{text: "the weather is nice"}
	client := &Client{transcription: mock}

	audio := append([]byte("OggS"), make([]byte, 32)...)
	text, err := client.Transcribe(context.Background(), audio, "en", "The weather is nice")
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "the weather is nice" {
		t.Errorf("text = %q", text)
	}
	if mock.lastParams.Language.Value != "en" {
		t.Errorf("language hint = %q, want en", mock.lastParams.Language.Value)
	}
	if mock.lastParams.Prompt.Value != "The weather is nice" {
		t.Errorf("context hint not forwarded: %q", mock.lastParams.Prompt.Value)
	}
}

func TestTranscribeEmptyPayload(t *testing.T) {
	client := &Client{transcription: &mockTranscriptionService{}}
	if _, err := client.Transcribe(context.Background(), nil, "en", ""); err == nil {
		t.Error("expected error for empty payload, got nil")
	}
}

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Format
	}{
		{"ogg", []byte("OggS\x00\x02rest"), FormatOgg},
		{"wav", append([]byte("RIFF\x24\x08\x00\x00"), []byte("WAVEfmt ")...), FormatWav},
		{"mp3 id3", []byte("ID3\x04\x00rest"), FormatMp3},
		{"mp3 frame", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMp3},
		{"m4a", []byte("\x00\x00\x00\x20ftypM4A "), FormatM4a},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), FormatFlac},
		{"webm", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, FormatWebm},
		{"short", []byte{0x00}, FormatUnknown},
		{"garbage", []byte("not an audio file"), FormatUnknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := DetectFormat(c.data); got != c.want {
				t.Errorf("DetectFormat() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestFormatExtensionFallsBackToOgg(t *testing.T) {
	if got := FormatUnknown.Extension(); got != "ogg" {
		t.Errorf("Extension() = %q, want ogg", got)
	}
	if got := FormatUnknown.MIMEType(); got != "audio/ogg" {
		t.Errorf("MIMEType() = %q, want audio/ogg", got)
	}
}

func TestOptimizeForSpeech(t *testing.T) {
	in := "**Aula 3: Present Simple** 🎯\n\n- Use *do/does* for questions\n[GERAR_IMAGEM: a classroom]\nVeja https://example.com/x para mais."
	out := OptimizeForSpeech(in)
	for _, banned := range []string{"*", "#", "[GERAR_IMAGEM", "https://", "🎯", "- "} {
		if strings.Contains(out, banned) {
			t.Errorf("OptimizeForSpeech left %q in output: %q", banned, out)
		}
	}
	if !strings.Contains(out, "Present Simple") {
		t.Errorf("content lost in cleanup: %q", out)
	}
}
