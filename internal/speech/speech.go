// Package speech converts between text and audio through the OpenAI audio
// APIs. Voice notes are synthesized per language and teacher persona, and
// student recordings are transcribed with a language hint so short phrases
// are not misheard.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// speechService defines the minimal interface for speech synthesis.
type speechService interface {
	New(ctx context.Context, params openai.AudioSpeechNewParams) (*http.Response, error)
}

// transcriptionService defines the minimal interface for transcription.
type transcriptionService interface {
	New(ctx context.Context, params openai.AudioTranscriptionNewParams) (openai.Transcription, error)
}

type speechAdapter struct {
	svc openai.AudioSpeechService
}

func (a speechAdapter) New(ctx context.Context, params openai.AudioSpeechNewParams) (*http.Response, error) {
	return a.svc.New(ctx, params)
}

type transcriptionAdapter struct {
	svc openai.AudioTranscriptionService
}

func (a transcriptionAdapter) New(ctx context.Context, params openai.AudioTranscriptionNewParams) (openai.Transcription, error) {
	resp, err := a.svc.New(ctx, params)
	if err != nil {
		return openai.Transcription{}, err
	}
	return *resp, nil
}

// Opts holds configuration options for the speech client.
type Opts struct {
	APIKey string
}

// Option defines a configuration option for the speech client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// Client performs text-to-speech and speech-to-text conversions.
type Client struct {
	speech        speechService
	transcription transcriptionService
}

// NewClient initializes a speech client. The API key comes from options or
// the OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Client{
		speech:        speechAdapter{svc: cli.Audio.Speech},
		transcription: transcriptionAdapter{svc: cli.Audio.Transcriptions},
	}, nil
}

// VoiceFor selects the TTS voice for a teaching language and teacher gender.
// Unknown combinations fall back to the English feminine voice.
func VoiceFor(language string, gender models.Gender) openai.AudioSpeechNewParamsVoice {
	masculine := gender == models.GenderMasculine
	switch language {
	case models.LanguageEnglish:
		if masculine {
			return openai.AudioSpeechNewParamsVoiceOnyx
		}
		return openai.AudioSpeechNewParamsVoiceNova
	case models.LanguageSpanish:
		if masculine {
			return openai.AudioSpeechNewParamsVoiceEcho
		}
		return openai.AudioSpeechNewParamsVoiceShimmer
	case models.LanguageFrench:
		if masculine {
			return openai.AudioSpeechNewParamsVoiceAlloy
		}
		return openai.AudioSpeechNewParamsVoiceNova
	case models.LanguageMandarin:
		if masculine {
			return openai.AudioSpeechNewParamsVoiceEcho
		}
		return openai.AudioSpeechNewParamsVoiceShimmer
	}
	return openai.AudioSpeechNewParamsVoiceNova
}

// Synthesize renders text as an Opus voice note for the given language and
// teacher gender. The text is cleaned of formatting before synthesis.
func (c *Client) Synthesize(ctx context.Context, text, language string, gender models.Gender) ([]byte, error) {
	clean := OptimizeForSpeech(text)
	if clean == "" {
		return nil, fmt.Errorf("nothing to synthesize after cleanup")
	}
	voice := VoiceFor(language, gender)
	slog.Debug("speech.Synthesize invoked", "language", language, "voice", voice, "text_length", len(clean))

	resp, err := c.speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Input:          clean,
		Voice:          voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatOpus,
		Speed:          openai.Float(0.9),
	})
	if err != nil {
		slog.Error("speech synthesis failed", "error", err, "language", language)
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read synthesized audio: %w", err)
	}
	slog.Debug("speech.Synthesize succeeded", "audio_bytes", len(data))
	return data, nil
}

// Transcribe converts a student voice note to text. languageCode is an
// ISO-639-1 hint (en, es, fr, zh) and contextHint primes the model with the
// phrase the student was asked to speak.
func (c *Client) Transcribe(ctx context.Context, audio []byte, languageCode, contextHint string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio payload")
	}
	format := DetectFormat(audio)
	filename := "voice." + format.Extension()
	slog.Debug("speech.Transcribe invoked", "format", format, "bytes", len(audio), "language", languageCode)

	params := openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  openai.File(bytes.NewReader(audio), filename, format.MIMEType()),
	}
	if languageCode != "" {
		params.Language = openai.String(languageCode)
	}
	if contextHint != "" {
		params.Prompt = openai.String(contextHint)
	}

	resp, err := c.transcription.New(ctx, params)
	if err != nil {
		slog.Error("speech transcription failed", "error", err, "format", format)
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	slog.Debug("speech.Transcribe succeeded", "text_length", len(resp.Text))
	return resp.Text, nil
}
