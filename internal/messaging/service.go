// Package messaging defines the pluggable message-delivery abstraction and
// its WhatsApp (whatsmeow) and Twilio implementations.
package messaging

import (
	"context"
	"errors"
	"regexp"

	"github.com/IgorLuiz777/onedi-02/internal/models"
)

// ErrServiceStopped is returned by send operations after Stop.
var ErrServiceStopped = errors.New("messaging service stopped")

// phoneNumberRegex strips everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Service defines a pluggable message delivery abstraction.
// It supports text, interactive lists, voice notes and images, and provides
// channels for inbound messages and delivery receipts. Transports that lack
// a rich surface degrade gracefully (Twilio renders lists as numbered text).
type Service interface {
	// ValidateAndCanonicalizeRecipient validates and canonicalizes a
	// recipient identifier to digit-only form.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a plain text message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// SendList sends an interactive single-select list (menu).
	SendList(ctx context.Context, to string, list models.ListMessage) error

	// SendVoiceNote sends Opus-in-Ogg audio as a voice note.
	SendVoiceNote(ctx context.Context, to string, oggOpus []byte) error

	// SendImage sends an image with an optional caption.
	SendImage(ctx context.Context, to string, image []byte, caption string) error

	// SendTyping toggles the typing (or recording) presence indicator.
	SendTyping(ctx context.Context, to string, typing bool, recording bool) error

	// Start begins any background processing (e.g., event polling).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Receipts returns a channel of receipt events (sent, delivered, read).
	Receipts() <-chan models.Receipt

	// Messages returns a channel of inbound message events.
	Messages() <-chan models.IncomingMessage
}

// canonicalizeRecipient validates a phone number and reduces it to digits.
// Shared by the transport implementations.
func canonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", errors.New("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", errors.New("invalid phone number: no digits found")
	}
	if len(canonical) < 6 {
		return "", errors.New("invalid phone number: too short (minimum 6 digits required)")
	}
	return canonical, nil
}
