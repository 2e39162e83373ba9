package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sheet-uploader/backend/internal/api"
	"github.com/sheet-uploader/backend/internal/config"
	"github.com/sheet-uploader/backend/internal/db"
	"github.com/sheet-uploader/backend/internal/ingest"
	"github.com/sheet-uploader/backend/internal/jobs"
	"github.com/sheet-uploader/backend/internal/logging"
	"github.com/sheet-uploader/backend/internal/sheet"
	"github.com/sheet-uploader/backend/internal/storage"
	"github.com/sheet-uploader/backend/internal/upload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewServeCommand(info VersionInfo) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, info)
		},
	}

	cmd.Flags().Int("port", 0, "port to listen on (overrides server.port)")
	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, info VersionInfo) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	log := logging.New("server", cfg.Log)

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	fileStore, err := storage.NewLocalStore(cfg.Storage.UploadsDirectory)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	uploadMgr := upload.NewManager(store, fileStore, upload.Config{
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		MaxFileSize:       cfg.MaxFileSize(),
	}, log.Named("upload"))

	processor := sheet.NewProcessor()
	processor.PreviewLimit = cfg.Upload.PreviewRows
	ingestSvc := ingest.NewService(store, fileStore, sheet.NewRegistry(), processor, log.Named("ingest"))

	jobMgr := jobs.NewManager(ingestSvc, log.Named("jobs"))
	go jobMgr.RunCleanup(ctx,
		time.Duration(cfg.Jobs.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.Jobs.RetentionMinutes)*time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, cfg.Server, log.Named("http"))
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Files:   uploadMgr,
		Ingest:  ingestSvc,
		Jobs:    jobMgr,
		DB:      store,
		Log:     log,
		Version: info.Version,
	}))

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		Handler:      e,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, info)

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	timeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil {
		timeout = 10 * time.Second
	}
	log.Info("shutting down (timeout %s)", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	jobMgr.Wait()
	log.Info("server stopped")
	return nil
}

func printBanner(cfg *config.Config, info VersionInfo) {
	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Sheet Uploader Server                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", info.Version)
	fmt.Printf("║  Build Time: %-45s║\n", info.BuildTime)
	fmt.Printf("║  Database:   %-45s║\n", cfg.Database.Driver)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configSource())
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.ServerAddr())
	fmt.Printf("║  Uploads:   %-46s║\n", cfg.Storage.UploadsDirectory)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}

func configSource() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	return "defaults + environment"
}
