package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/models"
	"github.com/IgorLuiz777/onedi-02/internal/twiliowhatsapp"
)

// TwilioService implements Service over the Twilio REST API. Twilio's
// WhatsApp surface is text-only here, so rich messages degrade: lists are
// rendered as numbered text, voice notes become a short notice, images send
// the caption only.
type TwilioService struct {
	client   twiliowhatsapp.TwilioWhatsAppSender
	receipts chan models.Receipt
	messages chan models.IncomingMessage
	done     chan struct{}
	mu       sync.RWMutex
	stopped  bool
}

// NewTwilioService creates a new TwilioService with the given Twilio client.
func NewTwilioService(client twiliowhatsapp.TwilioWhatsAppSender) *TwilioService {
	return &TwilioService{
		client:   client,
		receipts: make(chan models.Receipt, DefaultChannelBufferSize),
		messages: make(chan models.IncomingMessage, DefaultChannelBufferSize),
		done:     make(chan struct{}),
	}
}

// ValidateAndCanonicalizeRecipient reduces a recipient to its digit-only
// phone number.
func (s *TwilioService) ValidateAndCanonicalizeRecipient(recipient string) (string, error) {
	return canonicalizeRecipient(recipient)
}

// Start is a no-op; inbound messages arrive via the webhook handler.
func (s *TwilioService) Start(ctx context.Context) error {
	return nil
}

// Stop closes channels and stops the service.
func (s *TwilioService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	close(s.done)

	go func() {
		time.Sleep(50 * time.Millisecond)
		close(s.receipts)
		close(s.messages)
	}()

	return nil
}

// SendMessage sends a text message via Twilio and emits a receipt.
func (s *TwilioService) SendMessage(ctx context.Context, to string, body string) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	canonical, err := s.ValidateAndCanonicalizeRecipient(to)
	if err != nil {
		slog.Error("TwilioService SendMessage validation error", "error", err, "to", to)
		return err
	}
	if err := s.client.SendMessage(ctx, canonical, body); err != nil {
		return err
	}
	s.emitReceipt(models.Receipt{To: canonical, Status: models.StatusTypeSent, Time: time.Now().Unix()})
	return nil
}

// SendList renders the list as numbered text. Replies by number are mapped
// back to row IDs by the webhook handler's caller.
func (s *TwilioService) SendList(ctx context.Context, to string, list models.ListMessage) error {
	var b strings.Builder
	b.WriteString(list.Description)
	for _, sec := range list.Sections {
		if sec.Title != "" {
			fmt.Fprintf(&b, "\n\n%s", sec.Title)
		}
		for i, row := range sec.Rows {
			fmt.Fprintf(&b, "\n%d. %s", i+1, row.Title)
			if row.Description != "" {
				fmt.Fprintf(&b, " — %s", row.Description)
			}
		}
	}
	b.WriteString("\n\nResponda com o nome da opção desejada.")
	return s.SendMessage(ctx, to, b.String())
}

// SendVoiceNote degrades to a short notice; Twilio media upload is not
// supported by this transport.
func (s *TwilioService) SendVoiceNote(ctx context.Context, to string, oggOpus []byte) error {
	slog.Debug("TwilioService SendVoiceNote degraded to text notice", "to", to, "bytes", len(oggOpus))
	return s.SendMessage(ctx, to, "🎧 (áudio disponível apenas no WhatsApp oficial)")
}

// SendImage sends the caption only.
func (s *TwilioService) SendImage(ctx context.Context, to string, image []byte, caption string) error {
	slog.Debug("TwilioService SendImage degraded to caption text", "to", to, "bytes", len(image))
	if caption == "" {
		caption = "🖼️ (imagem disponível apenas no WhatsApp oficial)"
	}
	return s.SendMessage(ctx, to, caption)
}

// SendTyping forwards the typing state; recording maps to plain typing.
func (s *TwilioService) SendTyping(ctx context.Context, to string, typing bool, recording bool) error {
	if s.isStopped() {
		return ErrServiceStopped
	}
	return s.client.SendTypingIndicator(ctx, to, typing)
}

// Receipts returns the channel for sent message receipts.
func (s *TwilioService) Receipts() <-chan models.Receipt {
	return s.receipts
}

// Messages returns the channel for inbound messages.
func (s *TwilioService) Messages() <-chan models.IncomingMessage {
	return s.messages
}

func (s *TwilioService) isStopped() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped
}

func (s *TwilioService) emitReceipt(receipt models.Receipt) {
	if s.isStopped() {
		return
	}
	select {
	case s.receipts <- receipt:
	case <-time.After(DefaultChannelTimeout):
	}
}

// TwilioWebhookHandler handles inbound Twilio webhook requests, emitting
// them as IncomingMessage events.
func (s *TwilioService) TwilioWebhookHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse Twilio webhook form", "error", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	from := r.FormValue("From")
	body := r.FormValue("Body")
	if from == "" || body == "" {
		slog.Warn("Twilio webhook missing fields", "from", from)
		http.Error(w, "Missing required fields", http.StatusBadRequest)
		return
	}

	canonical, err := s.ValidateAndCanonicalizeRecipient(from)
	if err != nil {
		slog.Warn("Twilio webhook invalid sender", "from", from, "error", err)
		http.Error(w, "Invalid sender", http.StatusBadRequest)
		return
	}

	slog.Info("Inbound WhatsApp message from Twilio", "from", canonical, "body_length", len(body))
	s.emitMessage(models.IncomingMessage{
		From:      canonical,
		Body:      body,
		Kind:      models.MessageText,
		Timestamp: time.Now().Unix(),
	})

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (s *TwilioService) emitMessage(msg models.IncomingMessage) {
	if s.isStopped() {
		slog.Warn("TwilioService dropping inbound message (service stopped)", "from", msg.From)
		return
	}
	select {
	case s.messages <- msg:
		slog.Debug("TwilioService emitted inbound message", "from", msg.From)
	case <-time.After(DefaultChannelTimeout):
		slog.Warn("TwilioService messages channel blocked, dropping message", "from", msg.From)
	}
}
