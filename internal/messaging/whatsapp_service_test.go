package messaging

import (
	"context"
	"testing"

	"github.com/IgorLuiz777/onedi-02/internal/models"
	"github.com/IgorLuiz777/onedi-02/internal/whatsapp"
)

func TestWhatsAppServiceSendMessageEmitsReceipt(t *testing.T) {
	mock := whatsapp.NewMockClient()
	s := NewWhatsAppService(mock)

	if err := s.SendMessage(context.Background(), "+55 11 99999-0000", "olá"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if len(mock.Texts) != 1 || mock.Texts[0] != "olá" {
		t.Errorf("Texts = %v", mock.Texts)
	}

	select {
	case receipt := <-s.Receipts():
		if receipt.To != "5511999990000" {
			t.Errorf("receipt.To = %q, want canonical digits", receipt.To)
		}
		if receipt.Status != models.StatusTypeSent {
			t.Errorf("receipt.Status = %q, want sent", receipt.Status)
		}
	default:
		t.Fatal("no receipt emitted")
	}
}

func TestWhatsAppServiceSendMessageInvalidRecipient(t *testing.T) {
	s := NewWhatsAppService(whatsapp.NewMockClient())
	if err := s.SendMessage(context.Background(), "", "olá"); err == nil {
		t.Error("expected error for empty recipient")
	}
}

func TestWhatsAppServiceRichSends(t *testing.T) {
	mock := whatsapp.NewMockClient()
	s := NewWhatsAppService(mock)
	ctx := context.Background()

	if err := s.SendVoiceNote(ctx, "5511999990000", []byte("OggS")); err != nil {
		t.Fatalf("SendVoiceNote() error = %v", err)
	}
	if err := s.SendImage(ctx, "5511999990000", []byte{0xFF, 0xD8}, "legenda"); err != nil {
		t.Fatalf("SendImage() error = %v", err)
	}
	if err := s.SendList(ctx, "5511999990000", models.ListMessage{
		ButtonText: "Opções",
		Sections:   []models.ListSection{{Rows: []models.ListRow{{ID: "a", Title: "A"}}}},
	}); err != nil {
		t.Fatalf("SendList() error = %v", err)
	}

	if len(mock.Voices) != 1 || len(mock.Images) != 1 || len(mock.Lists) != 1 {
		t.Errorf("sends not forwarded: voices=%d images=%d lists=%d",
			len(mock.Voices), len(mock.Images), len(mock.Lists))
	}
}

func TestWhatsAppServiceStartWithMockSkipsEventLoop(t *testing.T) {
	s := NewWhatsAppService(whatsapp.NewMockClient())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}
