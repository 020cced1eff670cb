// Package app wires the ONEDI modules together and runs the service.
//
// It owns the process lifecycle: state lock, store, AI clients, the
// messaging transport, the conversation coordinator, background sweeps and
// the HTTP server, plus graceful shutdown on SIGINT/SIGTERM.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/IgorLuiz777/onedi-02/internal/api"
	"github.com/IgorLuiz777/onedi-02/internal/flow"
	"github.com/IgorLuiz777/onedi-02/internal/genai"
	"github.com/IgorLuiz777/onedi-02/internal/lockfile"
	"github.com/IgorLuiz777/onedi-02/internal/messaging"
	"github.com/IgorLuiz777/onedi-02/internal/scheduler"
	"github.com/IgorLuiz777/onedi-02/internal/speech"
	"github.com/IgorLuiz777/onedi-02/internal/store"
	"github.com/IgorLuiz777/onedi-02/internal/twiliowhatsapp"
	"github.com/IgorLuiz777/onedi-02/internal/util"
	"github.com/IgorLuiz777/onedi-02/internal/whatsapp"
)

// Config carries the per-module option sets assembled by the entry point.
type Config struct {
	StateDir string

	// UseTwilio selects the Twilio transport instead of whatsmeow.
	UseTwilio bool

	StoreOpts  []store.Option
	WAOpts     []whatsapp.Option
	TwilioOpts []twiliowhatsapp.Option
	GenAIOpts  []genai.Option
	SpeechOpts []speech.Option
	APIOpts    []api.Option
}

// Run starts the service and blocks until the context is cancelled or a
// termination signal arrives.
func Run(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock, err := lockfile.AcquireLock(cfg.StateDir)
	if err != nil {
		return fmt.Errorf("failed to lock state directory: %w", err)
	}
	defer lock.Release()

	st, err := store.NewStore(cfg.StoreOpts...)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	chat, err := genai.NewClient(cfg.GenAIOpts...)
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}
	sp, err := speech.NewClient(cfg.SpeechOpts...)
	if err != nil {
		return fmt.Errorf("failed to create speech client: %w", err)
	}

	msgService, twilioWebhook, err := buildMessagingService(cfg)
	if err != nil {
		return err
	}
	if err := msgService.Start(ctx); err != nil {
		return fmt.Errorf("failed to start messaging service: %w", err)
	}
	defer msgService.Stop()

	coord := flow.NewCoordinator(msgService, st, chat, sp)
	go coord.Outbox().Run(ctx)
	go drainReceipts(ctx, msgService)

	sched, err := scheduler.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := registerSweeps(sched, coord.Sessions()); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	apiOpts := cfg.APIOpts
	if twilioWebhook != nil {
		apiOpts = append(apiOpts, api.WithTwilioWebhook(twilioWebhook))
	}
	server := api.NewServer(st, coord.Sessions(), apiOpts...)
	server.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			slog.Error("API server shutdown failed", "error", err)
		}
	}()

	slog.Info("ONEDI running", "transport", transportName(cfg.UseTwilio))
	dispatch(ctx, coord, msgService)

	slog.Info("ONEDI shutting down")
	return nil
}

// buildMessagingService constructs the selected transport. The second
// return value is the inbound webhook handler for Twilio, nil for whatsmeow.
func buildMessagingService(cfg Config) (messaging.Service, http.HandlerFunc, error) {
	if cfg.UseTwilio {
		client, err := twiliowhatsapp.NewClient(cfg.TwilioOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Twilio client: %w", err)
		}
		svc := messaging.NewTwilioService(client)
		return svc, svc.TwilioWebhookHandler, nil
	}

	client, err := whatsapp.NewClient(cfg.WAOpts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create WhatsApp client: %w", err)
	}
	return messaging.NewWhatsAppService(client), nil, nil
}

func transportName(useTwilio bool) string {
	if useTwilio {
		return "twilio"
	}
	return "whatsmeow"
}

// registerSweeps installs the periodic housekeeping jobs.
func registerSweeps(sched *scheduler.Scheduler, sessions *flow.SessionStore) error {
	err := sched.Every(flow.PendingAudioSweepInterval, "pending-audio-sweep", func() {
		if removed := flow.SweepPendingAudio(sessions, time.Now()); removed > 0 {
			slog.Debug("Swept expired pronunciation expectations", "removed", removed)
		}
	})
	if err != nil {
		return err
	}
	return sched.Every(flow.MessageCounterResetInterval, "message-counter-reset", func() {
		if reset := flow.ResetMessageCounters(sessions, flow.MessageCounterResetThreshold); reset > 0 {
			slog.Debug("Reset oversized message counters", "sessions", reset)
		}
	})
}

// dispatch reads inbound messages and handles each on its own goroutine.
// Per-user ordering is enforced by the session store, not here.
func dispatch(ctx context.Context, coord *flow.Coordinator, msgService messaging.Service) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgService.Messages():
			if !ok {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				trace := util.GenerateTraceID()
				slog.Debug("Dispatching inbound message", "trace", trace, "from", msg.From, "kind", msg.Kind)
				coord.HandleMessage(ctx, msg)
				slog.Debug("Inbound message handled", "trace", trace, "from", msg.From)
			}()
		}
	}
}

// drainReceipts consumes delivery receipts so the transport never stalls.
func drainReceipts(ctx context.Context, msgService messaging.Service) {
	for {
		select {
		case <-ctx.Done():
			return
		case receipt, ok := <-msgService.Receipts():
			if !ok {
				return
			}
			slog.Debug("Delivery receipt", "to", receipt.To, "status", receipt.Status)
		}
	}
}
