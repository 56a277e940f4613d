// cmd/navigator/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"license-navigator/internal/assembler"
	"license-navigator/internal/catalog"
	"license-navigator/internal/classifier"
	"license-navigator/internal/common/config"
	"license-navigator/internal/common/database"
	"license-navigator/internal/common/logger"
	"license-navigator/internal/common/observability"
	"license-navigator/internal/embedding"
	"license-navigator/internal/genai"
	"license-navigator/internal/livedata"
	"license-navigator/internal/matcher"
	"license-navigator/internal/models"
	"license-navigator/internal/pipeline"
	"license-navigator/internal/retriever"
	"license-navigator/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	jurisdictionFlag := flag.String("jurisdiction", "", "Two-letter jurisdiction code (e.g. FL)")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting license navigator...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("navigator")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Load Jurisdiction Registry ---
	reg, err := registry.LoadRegistry(cfg.Catalog.RegistryPath)
	if err != nil {
		zapLog.Fatal("jurisdiction registry load failed", zap.Error(err))
	}
	zapLog.Info("Jurisdiction registry loaded",
		zap.String("version", reg.Version),
		zap.Int("jurisdictions", len(reg.Jurisdictions)),
	)

	// --- Load Catalog Snapshot ---
	var snapshot *catalog.Snapshot
	switch cfg.Catalog.Source {
	case "postgres":
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		snapshot, err = catalog.LoadPostgres(ctx, pg.DB)
		if err != nil {
			zapLog.Fatal("catalog load from postgres failed", zap.Error(err))
		}
	default:
		snapshot, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			zapLog.Fatal("catalog load failed", zap.Error(err), zap.String("path", cfg.Catalog.Path))
		}
	}
	zapLog.Info("Catalog loaded",
		zap.String("version", snapshot.Version()),
		zap.Int("businessTypes", len(snapshot.ListTypes())),
	)

	// --- Init Redis (live-fetch cache, optional) ---
	var redisClient *database.RedisClient
	if cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redisClient, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, live-fetch caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Init Embedder (vector provider only) ---
	var embedder embedding.Embedder
	if cfg.Retrieval.Provider == "vector" {
		embedder, err = embedding.New(cfg.Embedding, &embeddingLoggerAdapter{log})
		if err != nil {
			zapLog.Fatal("embedder init failed", zap.Error(err))
		}
	}

	// --- Init Elasticsearch (elasticsearch provider only) ---
	var esClient *elasticsearch.Client
	if cfg.Retrieval.Provider == "elasticsearch" {
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping()
		}, 10, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		esClient = es.Client
	}

	// --- Select Retriever ---
	ret := retriever.New(ctx, cfg.Retrieval, snapshot, embedder, esClient, log)
	zapLog.Info("Retriever selected", zap.String("variant", ret.Name()))

	// --- Init Live Fetcher ---
	var fetcher pipeline.Fetcher
	if cfg.LiveFetch.APIKey != "" && cfg.LiveFetch.EngineID != "" {
		fetcher = livedata.NewFetcher(cfg.LiveFetch, redisClient, &liveFetchLoggerAdapter{log})
		zapLog.Info("Live fetch enabled")
	} else {
		zapLog.Warn("Live fetch disabled, no search API credentials configured")
	}

	// --- Wire Pipeline ---
	pipe := pipeline.New(
		cfg.Pipeline,
		snapshot,
		classifier.New(snapshot, cfg.Pipeline.ConfidenceThreshold, &classifierLoggerAdapter{log}),
		matcher.New(snapshot, log),
		ret,
		cfg.Retrieval.TopK,
		fetcher,
		livedata.NewMerger(cfg.Pipeline.PrecedencePolicy, log),
		assembler.New(snapshot, cfg.Pipeline.PromptBudget, log),
		log,
	)

	// --- Init GenAI Client ---
	var generator genai.Generator
	if cfg.GenAI.BaseURL != "" {
		generator = genai.NewClient(cfg.GenAI, &genaiLoggerAdapter{log})
		zapLog.Info("GenAI client initialized")
	} else {
		zapLog.Warn("GenAI disabled, replies will show the assembled prompt")
	}

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.MetricsAddr))
		if err := http.ListenAndServe(cfg.App.MetricsAddr, nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Chat Shell ---
	shell := &chatShell{
		pipeline:     pipe,
		generator:    generator,
		registry:     reg,
		jurisdiction: strings.ToUpper(strings.TrimSpace(*jurisdictionFlag)),
		historyLimit: cfg.Pipeline.HistoryTurns,
		log:          zapLog,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		shell.run(ctx, os.Stdin, os.Stdout)
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		zapLog.Info("Shutdown signal received")
	case <-done:
	}

	zapLog.Info("License navigator stopped gracefully")
}

// Logger adapters for components that have their own Logger interfaces
type classifierLoggerAdapter struct {
	logger.Logger
}

func (a *classifierLoggerAdapter) With(fields map[string]interface{}) classifier.Logger {
	return &classifierLoggerAdapter{a.Logger.With(fields)}
}

type embeddingLoggerAdapter struct {
	logger.Logger
}

func (a *embeddingLoggerAdapter) With(fields map[string]interface{}) embedding.Logger {
	return &embeddingLoggerAdapter{a.Logger.With(fields)}
}

type liveFetchLoggerAdapter struct {
	logger.Logger
}

func (a *liveFetchLoggerAdapter) With(fields map[string]interface{}) livedata.Logger {
	return &liveFetchLoggerAdapter{a.Logger.With(fields)}
}

type genaiLoggerAdapter struct {
	logger.Logger
}

func (a *genaiLoggerAdapter) With(fields map[string]interface{}) genai.Logger {
	return &genaiLoggerAdapter{a.Logger.With(fields)}
}

type chatShell struct {
	pipeline     *pipeline.Pipeline
	generator    genai.Generator
	registry     *registry.JurisdictionRegistry
	jurisdiction string
	historyLimit int
	history      []models.Turn
	log          *zap.Logger
}

func (s *chatShell) run(ctx context.Context, in *os.File, out *os.File) {
	fmt.Fprintln(out, "License Navigator. Describe your business, or :j CODE to set a jurisdiction, :quit to exit.")
	if s.jurisdiction != "" {
		fmt.Fprintf(out, "Jurisdiction: %s\n", s.jurisdiction)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if s.handleCommand(out, line) {
			continue
		}
		if line == ":quit" || line == ":q" {
			return
		}

		reply, err := s.ask(ctx, line)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply)
	}
}

// handleCommand processes shell directives, returns true when the line was
// consumed.
func (s *chatShell) handleCommand(out *os.File, line string) bool {
	if !strings.HasPrefix(line, ":j") {
		return false
	}
	code := strings.TrimSpace(strings.TrimPrefix(line, ":j"))
	if code == "" {
		fmt.Fprintf(out, "Jurisdiction: %s\n", s.jurisdiction)
		return true
	}
	j, ok := s.registry.Find(code)
	if !ok {
		fmt.Fprintf(out, "unknown jurisdiction %q, keeping %q\n", code, s.jurisdiction)
		return true
	}
	s.jurisdiction = j.Code
	fmt.Fprintf(out, "Jurisdiction set to %s (%s)\n", j.Code, j.Name)
	return true
}

func (s *chatShell) ask(ctx context.Context, query string) (string, error) {
	res, err := s.pipeline.ProcessQuery(ctx, query, s.jurisdiction, s.history)
	if err != nil {
		return "", err
	}

	reply := res.Prompt.NarrativeText
	if s.generator != nil {
		reply, err = s.generator.Generate(ctx, res.Prompt)
		if err != nil {
			s.log.Warn("generation failed, falling back to assembled prompt", zap.Error(err))
			reply = res.Prompt.NarrativeText
		}
	}

	if len(res.Degraded) > 0 {
		reply += fmt.Sprintf("\n\n(note: results may be incomplete: %s)", strings.Join(res.Degraded, ", "))
	}

	s.remember(models.Turn{UserInput: query, Response: reply})
	return reply, nil
}

func (s *chatShell) remember(turn models.Turn) {
	s.history = append(s.history, turn)
	if s.historyLimit > 0 && len(s.history) > s.historyLimit {
		s.history = s.history[len(s.history)-s.historyLimit:]
	}
}
