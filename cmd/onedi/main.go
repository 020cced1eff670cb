package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/IgorLuiz777/onedi-02/internal/api"
	"github.com/IgorLuiz777/onedi-02/internal/app"
	"github.com/IgorLuiz777/onedi-02/internal/genai"
	"github.com/IgorLuiz777/onedi-02/internal/speech"
	"github.com/IgorLuiz777/onedi-02/internal/store"
	"github.com/IgorLuiz777/onedi-02/internal/twiliowhatsapp"
	"github.com/IgorLuiz777/onedi-02/internal/util"
	"github.com/IgorLuiz777/onedi-02/internal/whatsapp"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for ONEDI state data
	DefaultStateDir = "/var/lib/onedi"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "onedi.db"
)

func main() {
	config := loadEnvironmentConfig()
	initializeLogger(config.Debug)
	flags := parseCommandLineFlags(config)

	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg := app.Config{
		StateDir:   *flags.stateDir,
		UseTwilio:  *flags.useTwilio,
		StoreOpts:  buildStoreOptions(flags),
		WAOpts:     buildWhatsAppOptions(flags),
		TwilioOpts: buildTwilioOptions(config),
		GenAIOpts:  buildGenAIOptions(flags),
		SpeechOpts: buildSpeechOptions(flags),
		APIOpts:    buildAPIOptions(flags),
	}

	transport := "whatsmeow"
	if cfg.UseTwilio {
		transport = "twilio"
	}
	slog.Info("Bootstrapping ONEDI",
		"state_dir", cfg.StateDir,
		"transport", transport,
		"dsn_set", *flags.dbDSN != "")
	if err := app.Run(cfg); err != nil {
		slog.Error("ONEDI failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("ONEDI exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL string
	WhatsAppDSN string
	StateDir    string
	OpenAIKey   string
	OpenAIModel string
	APIAddr     string
	UseTwilio   bool
	Debug       bool
	TwilioSID   string
	TwilioToken string
	TwilioFrom  string
}

// Flags holds command line flag values
type Flags struct {
	qrOutput  *string
	numeric   *bool
	stateDir  *string
	dbDSN     *string
	openaiKey *string
	model     *string
	apiAddr   *string
	useTwilio *bool
}

// initializeLogger sets up structured logging
func initializeLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	config := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		WhatsAppDSN: os.Getenv("WHATSAPP_DB_DSN"),
		StateDir:    util.EnvOrDefault("ONEDI_STATE_DIR", DefaultStateDir),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: os.Getenv("OPENAI_MODEL"),
		APIAddr:     os.Getenv("API_ADDR"),
		UseTwilio:   util.ParseBoolEnv("USE_TWILIO", false),
		Debug:       util.ParseBoolEnv("ONEDI_DEBUG", false),
		TwilioSID:   os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken: os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFrom:  os.Getenv("TWILIO_WHATSAPP_FROM"),
	}

	// The whatsmeow session database falls back to the main database, then
	// to SQLite in the state directory.
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = config.DatabaseURL
	}
	if config.WhatsAppDSN == "" {
		config.WhatsAppDSN = filepath.Join(config.StateDir, DefaultDBFileName)
	}

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		qrOutput:  flag.String("qr-output", "", "path to write login QR code"),
		numeric:   flag.Bool("numeric-code", false, "use numeric login code instead of QR code"),
		stateDir:  flag.String("state-dir", config.StateDir, "state directory for ONEDI data (overrides $ONEDI_STATE_DIR)"),
		dbDSN:     flag.String("db-dsn", config.WhatsAppDSN, "database DSN for the user store and WhatsApp session (overrides $WHATSAPP_DB_DSN or $DATABASE_URL)"),
		openaiKey: flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		model:     flag.String("openai-model", config.OpenAIModel, "OpenAI chat model (overrides $OPENAI_MODEL)"),
		apiAddr:   flag.String("api-addr", config.APIAddr, "HTTP server address (overrides $API_ADDR)"),
		useTwilio: flag.Bool("twilio", config.UseTwilio, "use the Twilio transport instead of whatsmeow (overrides $USE_TWILIO)"),
	}

	flag.Parse()

	// Re-derive the SQLite fallback when only the state directory changed.
	if *flags.dbDSN == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if err := os.MkdirAll(*flags.stateDir, 0755); err != nil {
		return err
	}
	if !strings.Contains(*flags.dbDSN, "postgres://") && !strings.Contains(*flags.dbDSN, "host=") {
		dbDir := filepath.Dir(*flags.dbDSN)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func buildWhatsAppOptions(flags Flags) []whatsapp.Option {
	var opts []whatsapp.Option
	if *flags.qrOutput != "" {
		opts = append(opts, whatsapp.WithQRCodeOutput(*flags.qrOutput))
	}
	if *flags.numeric {
		opts = append(opts, whatsapp.WithNumericCode())
	}
	if *flags.dbDSN != "" {
		opts = append(opts, whatsapp.WithDBDSN(*flags.dbDSN))
	}
	return opts
}

func buildTwilioOptions(config Config) []twiliowhatsapp.Option {
	var opts []twiliowhatsapp.Option
	if config.TwilioSID != "" {
		opts = append(opts, twiliowhatsapp.WithAccountSID(config.TwilioSID))
	}
	if config.TwilioToken != "" {
		opts = append(opts, twiliowhatsapp.WithAuthToken(config.TwilioToken))
	}
	if config.TwilioFrom != "" {
		opts = append(opts, twiliowhatsapp.WithFromWhats(config.TwilioFrom))
	}
	return opts
}

func buildStoreOptions(flags Flags) []store.Option {
	var opts []store.Option
	if *flags.dbDSN != "" {
		opts = append(opts, store.WithDSN(*flags.dbDSN))
	}
	return opts
}

func buildGenAIOptions(flags Flags) []genai.Option {
	var opts []genai.Option
	if *flags.openaiKey != "" {
		opts = append(opts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.model != "" {
		opts = append(opts, genai.WithModel(*flags.model))
	}
	return opts
}

func buildSpeechOptions(flags Flags) []speech.Option {
	var opts []speech.Option
	if *flags.openaiKey != "" {
		opts = append(opts, speech.WithAPIKey(*flags.openaiKey))
	}
	return opts
}

func buildAPIOptions(flags Flags) []api.Option {
	var opts []api.Option
	if *flags.apiAddr != "" {
		opts = append(opts, api.WithAddr(*flags.apiAddr))
	}
	return opts
}
