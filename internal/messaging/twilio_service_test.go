package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/IgorLuiz777/onedi-02/internal/models"
	"github.com/IgorLuiz777/onedi-02/internal/twiliowhatsapp"
)

func TestTwilioServiceValidateAndCanonicalizeRecipient(t *testing.T) {
	s := NewTwilioService(twiliowhatsapp.NewMockClient())

	got, err := s.ValidateAndCanonicalizeRecipient("+55 (11) 99999-0000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "5511999990000" {
		t.Errorf("canonical = %q, want 5511999990000", got)
	}

	if _, err := s.ValidateAndCanonicalizeRecipient("abc"); err == nil {
		t.Error("expected error for non-numeric recipient")
	}
	if _, err := s.ValidateAndCanonicalizeRecipient("123"); err == nil {
		t.Error("expected error for too-short recipient")
	}
}

func TestTwilioServiceSendListDegradesToNumberedText(t *testing.T) {
	mock := twiliowhatsapp.NewMockClient()
	s := NewTwilioService(mock)

	err := s.SendList(context.Background(), "5511999990000", models.ListMessage{
		Description: "Escolha uma opção:",
		ButtonText:  "Opções",
		Sections: []models.ListSection{{
			Title: "Modos",
			Rows: []models.ListRow{
				{ID: "aula_guiada", Title: "Aula Guiada", Description: "Aulas estruturadas"},
				{ID: "pratica_livre", Title: "Prática Livre"},
			},
		}},
	})
	if err != nil {
		t.Fatalf("SendList() error = %v", err)
	}
	if len(mock.SentMessages) != 1 {
		t.Fatalf("sent %d messages, want 1", len(mock.SentMessages))
	}
	body := mock.SentMessages[0].Body
	for _, want := range []string{"Escolha uma opção:", "1. Aula Guiada", "2. Prática Livre", "Aulas estruturadas"} {
		if !strings.Contains(body, want) {
			t.Errorf("degraded list missing %q:\n%s", want, body)
		}
	}
}

func TestTwilioServiceStoppedRejectsSends(t *testing.T) {
	s := NewTwilioService(twiliowhatsapp.NewMockClient())
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := s.SendMessage(context.Background(), "5511999990000", "oi"); err != ErrServiceStopped {
		t.Errorf("SendMessage after Stop = %v, want ErrServiceStopped", err)
	}
}

func TestTwilioWebhookHandlerEmitsMessage(t *testing.T) {
	s := NewTwilioService(twiliowhatsapp.NewMockClient())

	form := url.Values{}
	form.Set("From", "whatsapp:+5511999990000")
	form.Set("Body", "olá")
	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.TwilioWebhookHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	select {
	case msg := <-s.Messages():
		if msg.From != "5511999990000" {
			t.Errorf("From = %q, want digits only", msg.From)
		}
		if msg.Body != "olá" || msg.Kind != models.MessageText {
			t.Errorf("unexpected message %+v", msg)
		}
	default:
		t.Fatal("no message emitted")
	}
}

func TestTwilioWebhookHandlerRejectsMissingFields(t *testing.T) {
	s := NewTwilioService(twiliowhatsapp.NewMockClient())

	req := httptest.NewRequest(http.MethodPost, "/twilio/webhook", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	s.TwilioWebhookHandler(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
