package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"pasassistant/internal/config"
	"pasassistant/internal/document"
	"pasassistant/internal/document/docx"
	"pasassistant/internal/document/xlsx"
	"pasassistant/internal/email/noop"
	"pasassistant/internal/email/ses"
	"pasassistant/internal/handler"
	"pasassistant/internal/intake"
	"pasassistant/internal/llm"
	_ "pasassistant/internal/llm/claude"
	_ "pasassistant/internal/llm/gemini"
	_ "pasassistant/internal/llm/openai"
	"pasassistant/internal/port"
	"pasassistant/internal/reference"
	"pasassistant/internal/repository/filesystem"
	"pasassistant/internal/router"
	"pasassistant/internal/service"
	s3storage "pasassistant/internal/storage/s3"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return eris.Wrap(err, "failed to init logger")
	}
	defer func() { _ = zap.L().Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize repositories
	projectRepo, err := filesystem.NewProjectRepo(cfg.Storage.ProjectsDir)
	if err != nil {
		return eris.Wrap(err, "failed to open project store")
	}
	documents := document.NewRegistry(xlsx.New(), docx.New())

	// Initialize text generation
	completer, err := llm.NewFromConfig(&cfg.LLM)
	if err != nil {
		return eris.Wrap(err, "failed to initialize llm provider")
	}
	llmSvc := llm.NewService(completer)

	archive, err := newArchive(&cfg.Archive)
	if err != nil {
		return eris.Wrap(err, "failed to initialize archive")
	}
	notifier, err := newNotifier(&cfg.Email)
	if err != nil {
		return eris.Wrap(err, "failed to initialize notifier")
	}

	// Initialize services
	authSvc := service.NewAuthService(cfg.JWT)
	projectSvc := service.NewProjectService(projectRepo, documents, llmSvc, archive, cfg.Storage)
	generationSvc := service.NewGenerationService(service.GenerationDeps{
		Repo:       projectRepo,
		Documents:  documents,
		LLM:        llmSvc,
		References: reference.NewSelector(cfg.Storage.CorpusDir, documents, cfg.Reference.MaxChars),
		Verbosity:  cfg.Verbosity,
		Reference:  cfg.Reference,
		Archive:    archive,
		Notifier:   notifier,
		AppURL:     cfg.Email.FrontendURL,
	})

	recovered, err := generationSvc.RecoverInterrupted(ctx)
	if err != nil {
		return eris.Wrap(err, "failed to recover interrupted generations")
	}
	if recovered > 0 {
		zap.L().Warn("marked interrupted generations as failed", zap.Int("count", recovered))
	}

	questions, err := intake.Load(cfg.Intake.QuestionsFile)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return eris.Wrap(err, "failed to load intake questions")
		}
		zap.L().Warn("intake questions file not found, serving verbosity question only",
			zap.String("path", cfg.Intake.QuestionsFile))
	}

	// Initialize handlers
	projectH := handler.NewProjectHandler(projectSvc, generationSvc,
		intake.NewCatalog(questions, cfg.Verbosity.Levels), cfg.Storage.MaxUploadBytes())
	healthH := handler.NewHealthHandler(cfg.Storage.ProjectsDir)

	// Setup router
	r := router.Setup(authSvc, projectH, healthH, cfg.Server.CORSOrigins...)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("server starting",
		zap.String("addr", cfg.Server.Port),
		zap.String("llm_model", completer.Model()),
		zap.String("projects_dir", cfg.Storage.ProjectsDir),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server failed")
	}

	// Running pipelines persist their own state; let them reach a terminal status.
	generationSvc.Wait()
	zap.L().Info("server stopped")
	return nil
}

// newArchive returns the configured object storage, or nil when archiving is disabled.
func newArchive(cfg *config.ArchiveConfig) (port.ObjectStorage, error) {
	switch cfg.Provider {
	case s3storage.ProviderName:
		return s3storage.NewArchive(cfg)
	case "", "noop":
		return nil, nil
	default:
		return nil, eris.Errorf("unknown archive provider %q", cfg.Provider)
	}
}

func newNotifier(cfg *config.EmailConfig) (port.Notifier, error) {
	switch cfg.Provider {
	case ses.ProviderName:
		return ses.NewSESNotifier(cfg)
	case "", "noop":
		return noop.NewNoopNotifier(), nil
	default:
		return nil, eris.Errorf("unknown email provider %q", cfg.Provider)
	}
}
