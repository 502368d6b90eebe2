package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/rs/zerolog"

	"github.com/devanand8x/honeypot-api/pkg/config"
	"github.com/devanand8x/honeypot-api/pkg/detect"
	"github.com/devanand8x/honeypot-api/pkg/engine"
	"github.com/devanand8x/honeypot-api/pkg/llm"
	"github.com/devanand8x/honeypot-api/pkg/patterns"
	"github.com/devanand8x/honeypot-api/pkg/report"
	"github.com/devanand8x/honeypot-api/pkg/session"
)

const Version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		port := ""
		if len(os.Args) > 2 {
			port = os.Args[2]
		}
		runHTTPServer(port)
	case "scan":
		if len(os.Args) < 3 {
			fmt.Println("Usage: honeypot scan <text>")
			os.Exit(1)
		}
		runCLIScan(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Honeypot API v%s\n", Version)
		fmt.Println("Agentic scam-honeypot conversation engine")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Honeypot API v%s - Scam Honeypot Engine\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  honeypot serve [port]   Start HTTP server (default: 8000)")
	fmt.Println("  honeypot scan <text>    Run detection and extraction over one message")
	fmt.Println("  honeypot version        Show version")
	fmt.Println("")
	fmt.Println("Examples:")
	fmt.Println("  honeypot serve 8080")
	fmt.Println("  honeypot scan \"Your account will be blocked. Share OTP now!\"")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  HONEYPOT_API_KEY            Required X-API-Key value (empty disables auth)")
	fmt.Println("  HONEYPOT_PRIMARY_PROVIDER   gemini, openai, groq, ollama, anthropic")
	fmt.Println("  HONEYPOT_PRIMARY_API_KEY    API key for the primary reply backend")
	fmt.Println("  HONEYPOT_SECONDARY_PROVIDER Failover backend (empty disables)")
	fmt.Println("  HONEYPOT_CALLBACK_URL       Finalized-session POST target")
	fmt.Println("  HONEYPOT_RULE_FILE          Extra detection rules (YAML)")
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if config.GetEnvBool("HONEYPOT_DEBUG", false) {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// buildRegistry loads the compiled-in rules plus any operator extension
// file. A broken rule file is a startup failure, not a silent skip.
func buildRegistry(cfg *config.Config, log zerolog.Logger) *patterns.Registry {
	reg := patterns.Get()
	if len(cfg.ExtraSafeDomains) > 0 {
		reg.AddSafeDomains(cfg.ExtraSafeDomains...)
		log.Info().Strs("domains", cfg.ExtraSafeDomains).Msg("extra safe domains registered")
	}
	if cfg.RuleFile != "" {
		n, err := reg.LoadRuleFile(cfg.RuleFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.RuleFile).Msg("rule file rejected")
		}
		log.Info().Int("rules", n).Str("path", cfg.RuleFile).Msg("extension rules loaded")
	}
	return reg
}

func buildDetector(cfg *config.Config, reg *patterns.Registry, log zerolog.Logger) *detect.Detector {
	opts := []detect.DetectorOption{}
	if cfg.EnableSemantics {
		sem, err := detect.NewSemanticLayer(cfg.OllamaURL, cfg.EmbeddingModel, float32(cfg.SemanticCutoff))
		if err != nil {
			log.Warn().Err(err).Msg("semantic layer disabled (init failed)")
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			if err = sem.CheckEndpoint(ctx); err == nil {
				err = sem.Seed(ctx)
			}
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("semantic layer disabled (seeding failed)")
			} else {
				opts = append(opts, detect.WithSemanticLayer(sem))
				log.Info().Str("model", cfg.EmbeddingModel).Msg("semantic layer enabled")
			}
		}
	}
	return detect.NewDetector(reg, opts...)
}

func buildOrchestrator(cfg *config.Config, log zerolog.Logger) *llm.Orchestrator {
	primary, err := llm.NewBackend(cfg.PrimaryProvider, cfg.PrimaryAPIKey, cfg.PrimaryModel, cfg.BaseURLOverride)
	if err != nil {
		log.Warn().Err(err).Msg("primary backend disabled")
		primary = nil
	}
	secondary, err := llm.NewBackend(cfg.SecondaryProvider, cfg.SecondaryAPIKey, cfg.SecondaryModel, "")
	if err != nil {
		log.Warn().Err(err).Msg("secondary backend disabled")
		secondary = nil
	}

	if primary != nil {
		log.Info().Str("provider", cfg.PrimaryProvider).Msg("primary reply backend enabled")
	} else {
		log.Warn().Msg("no reply backend configured, agent replies disabled")
	}
	if secondary != nil {
		log.Info().Str("provider", cfg.SecondaryProvider).Msg("failover reply backend enabled")
	}

	return llm.NewOrchestrator(primary, secondary,
		llm.WithContextTurns(cfg.ContextTurns),
		llm.WithRetryBackoff(cfg.RetryBackoff),
		llm.WithCallTimeout(cfg.BackendTimeout),
		llm.WithConcurrencyLimit(cfg.MaxBackendCalls),
		llm.WithLogger(log))
}

// analyzeRequest accepts the evaluation harness's loose body shape.
// "message" arrives as either a bare string or an object carrying the
// text under "text" or "content". A "conversationHistory" field, when
// present, is ignored: the store's history is authoritative.
type analyzeRequest struct {
	SessionID      string          `json:"sessionId"`
	SessionIDSnake string          `json:"session_id"`
	Message        json.RawMessage `json:"message"`
}

func (r analyzeRequest) sessionID() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.SessionIDSnake
}

func (r analyzeRequest) messageText() string {
	if len(r.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.Message, &s); err == nil {
		return s
	}
	var obj struct {
		Text    string `json:"text"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(r.Message, &obj); err == nil {
		if obj.Text != "" {
			return obj.Text
		}
		return obj.Content
	}
	return ""
}

func runHTTPServer(port string) {
	log := newLogger()
	cfg := config.NewDefaultConfig()
	if port == "" {
		port = cfg.Port
	}

	reg := buildRegistry(cfg, log)
	detector := buildDetector(cfg, reg, log)
	extractor := detect.NewExtractor(reg)
	store := session.NewStore()
	orch := buildOrchestrator(cfg, log)

	engineOpts := []engine.Option{engine.WithEngineLogger(log)}
	if cfg.TemplateFallback {
		engineOpts = append(engineOpts, engine.WithFallbackResponder(llm.NewFallbackResponder()))
		log.Info().Msg("template fallback replies enabled")
	}
	eng := engine.New(store, detector, extractor, orch, engineOpts...)

	var reporter *report.Reporter
	if cfg.CallbackURL != "" {
		reporter = report.NewReporter(cfg.CallbackURL, report.WithReporterLogger(log))
	}
	var archive *report.Archive
	if cfg.ArchivePath != "" {
		a, err := report.OpenArchive(cfg.ArchivePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.ArchivePath).Msg("archive open")
		}
		archive = a
		defer archive.Close()
	}

	app := fiber.New(fiber.Config{
		AppName: "Honeypot API",
	})

	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: cfg.RateLimitWin,
	}))

	app.Use(func(c fiber.Ctx) error {
		if cfg.APIKey != "" && c.Get("X-API-Key") != cfg.APIKey {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or missing API key"})
		}
		return c.Next()
	})

	handleAnalyze := func(c fiber.Ctx) error {
		var req analyzeRequest
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		ctx, cancel := context.WithTimeout(c.Context(), cfg.RequestTimeout)
		defer cancel()

		res, err := eng.Handle(ctx, req.sessionID(), req.messageText())
		if err != nil {
			var verr *engine.ValidationError
			switch {
			case errors.As(err, &verr):
				return c.Status(400).JSON(fiber.Map{"error": verr.Error()})
			case errors.Is(err, session.ErrSessionClosed):
				return c.Status(409).JSON(fiber.Map{"error": "session already ended"})
			default:
				log.Error().Err(err).Msg("analyze failed")
				return c.Status(500).JSON(fiber.Map{"error": "internal error"})
			}
		}

		return c.JSON(fiber.Map{
			"status":        "success",
			"sessionId":     res.SessionID,
			"scamDetected":  res.ScamDetected,
			"agentResponse": res.AgentResponse,
			"engagementMetrics": fiber.Map{
				"engagementDurationSeconds": res.Metrics.DurationSeconds(),
				"totalMessagesExchanged":    res.Metrics.TotalMessagesExchanged,
			},
			"extractedIntelligence": res.Intelligence,
			"agentNotes":            res.AgentNotes,
		})
	}

	app.Post("/analyze", handleAnalyze)
	app.Post("/", handleAnalyze)

	app.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Honeypot API",
			"version": Version,
			"status":  "running",
		})
	})

	app.Get("/health", func(c fiber.Ctx) error {
		stats := store.Stats()
		return c.JSON(fiber.Map{
			"status":   "ok",
			"version":  Version,
			"sessions": stats,
		})
	})

	app.Get("/session/:id", func(c fiber.Ctx) error {
		snap, err := store.Get(c.Params("id"))
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		}
		return c.JSON(snap)
	})

	app.Delete("/session/:id", func(c fiber.Ctx) error {
		id := c.Params("id")
		snap, err := store.Finalize(id)
		switch {
		case errors.Is(err, session.ErrNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "session not found"})
		case errors.Is(err, session.ErrAlreadyEnded):
			return c.Status(409).JSON(fiber.Map{"error": "session already ended"})
		case err != nil:
			log.Error().Err(err).Str("session_id", id).Msg("finalize failed")
			return c.Status(500).JSON(fiber.Map{"error": "internal error"})
		}

		go deliverFinal(archive, reporter, snap, log)

		return c.JSON(fiber.Map{
			"sessionId": snap.ID,
			"status":    snap.Status,
			"reported":  reporter != nil && snap.ScamDetected,
		})
	})

	log.Info().Str("port", port).Msg("honeypot server starting")
	if err := app.Listen(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// deliverFinal archives the finalized session and fires the result
// callback. Both are best effort: failures are logged, never surfaced
// to the DELETE caller.
func deliverFinal(archive *report.Archive, reporter *report.Reporter, snap session.Snapshot, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if archive != nil {
		if err := archive.Save(ctx, snap); err != nil {
			log.Error().Err(err).Str("session_id", snap.ID).Msg("archive save failed")
		}
	}
	if reporter != nil && snap.ScamDetected {
		if err := reporter.Deliver(ctx, report.PayloadFromSnapshot(snap)); err != nil {
			log.Error().Err(err).Str("session_id", snap.ID).Msg("result callback failed")
		}
	}
}

// scanResult is the scan command's JSON output shape.
type scanResult struct {
	Text         string               `json:"text"`
	ScamDetected bool                 `json:"scamDetected"`
	Signals      []string             `json:"signals"`
	Keywords     []string             `json:"keywords"`
	Notes        string               `json:"notes"`
	Intelligence session.Intelligence `json:"intelligence"`
}

func runCLIScan(text string) {
	log := newLogger()
	cfg := config.NewDefaultConfig()

	reg := buildRegistry(cfg, log)
	detector := buildDetector(cfg, reg, log)
	extractor := detect.NewExtractor(reg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	verdict := detector.Detect(ctx, text)

	out, _ := json.MarshalIndent(scanResult{
		Text:         text,
		ScamDetected: verdict.IsScam,
		Signals:      verdict.Signals,
		Keywords:     verdict.Keywords,
		Notes:        verdict.Notes,
		Intelligence: extractor.Extract(text),
	}, "", "  ")
	fmt.Println(string(out))
}
