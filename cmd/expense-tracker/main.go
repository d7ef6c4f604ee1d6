package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffval"

	"github.com/zombor/expense-tracker/internal/receipt"
	"github.com/zombor/expense-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; anything else is worth knowing about
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	flags := ff.NewFlagSet("expense-tracker")
	var (
		port           = flags.IntLong("port", 3000, "HTTP server port")
		provider       = flags.StringLong("provider", "openai", "Model provider: 'openai', 'gemini' or 'ollama'")
		openAIKey      = flags.StringLong("openai-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		openAIURL      = flags.StringLong("openai-url", "https://api.openai.com/v1", "OpenAI compatible API base URL")
		openAIModel    = flags.StringLong("openai-model", "gpt-4o", "OpenAI model name")
		geminiKey      = flags.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = flags.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = flags.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = flags.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		maxTokens      = flags.IntLong("max-tokens", 300, "Maximum tokens in the model reply")
		temperature    = flags.Float64Long("temperature", 0.1, "Model sampling temperature")
		modelTimeout   = flags.DurationLong("model-timeout", 60*time.Second, "Timeout for a single model call")
		maxUploadBytes = new(int64)
		_              = flags.ValueLong("max-upload-bytes", ffval.NewValueDefault(maxUploadBytes, int64(receipt.DefaultMaxUploadBytes)), "Maximum receipt image size in bytes")
		allowedTypes   = flags.StringLong("allowed-types", strings.Join(receipt.DefaultAllowedTypes, ","), "Comma separated list of accepted image types")
		showVersion    = flags.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(flags, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(flags))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	cfg := scanning.ModelConfig{
		MaxTokens:   *maxTokens,
		Temperature: float32(*temperature),
		Timeout:     *modelTimeout,
	}

	// Initialize scanner based on provider
	var (
		scanner scanning.Scanner
		err     error
	)
	switch *provider {
	case "openai":
		cfg.APIKey = firstNonEmpty(*openAIKey, os.Getenv("OPENAI_API_KEY"))
		cfg.BaseURL = *openAIURL
		cfg.Model = *openAIModel
		if cfg.APIKey == "" {
			slog.Warn("OpenAI API key is not set; extraction requests will fail. Set --openai-key or OPENAI_API_KEY")
		}
		slog.Info("Initializing OpenAI scanner...", "url", cfg.BaseURL, "model", cfg.Model)
		scanner = scanning.NewOpenAI(cfg)
	case "gemini":
		cfg.APIKey = firstNonEmpty(*geminiKey, os.Getenv("GEMINI_API_KEY"))
		cfg.Model = *geminiModel
		if cfg.APIKey == "" {
			slog.Warn("Gemini API key is not set; extraction requests will fail. Set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.Model)
		scanner, err = scanning.NewGemini(cfg)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		cfg.BaseURL = *ollamaURL
		cfg.Model = *ollamaModel
		slog.Info("Initializing Ollama scanner...", "url", cfg.BaseURL, "model", cfg.Model)
		scanner = scanning.NewOllama(cfg)
	default:
		slog.Error("Invalid provider", "provider", *provider, "valid", "openai, gemini or ollama")
		os.Exit(1)
	}
	defer scanner.Close()

	ingestor := receipt.NewIngestor(receipt.UploadLimits{
		MaxBytes:     *maxUploadBytes,
		AllowedTypes: splitList(*allowedTypes),
	})
	server := receipt.NewServer(receipt.NewService(scanner), ingestor)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "version", version)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down cleanly", "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
