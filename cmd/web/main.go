// Web server for the merchant onboarding wizard and back office using Gin.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"

	"merchant-onboarding/internal/admin"
	"merchant-onboarding/internal/agent"
	"merchant-onboarding/internal/api"
	"merchant-onboarding/internal/cli"
	"merchant-onboarding/internal/config"
	"merchant-onboarding/internal/datastore"
	"merchant-onboarding/internal/fees"
	"merchant-onboarding/internal/migration"
	"merchant-onboarding/internal/registry"
	"merchant-onboarding/internal/renderer"
	"merchant-onboarding/internal/submission"
	"merchant-onboarding/internal/wizard"
)

const shutdownTimeout = 10 * time.Second

func main() {
	settings := config.Load()
	addr := flag.String("addr", settings.ListenAddr, "Listen address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings, *addr); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, settings config.Settings, addr string) error {
	if settings.RunMigrations && settings.Store.Type == datastore.PostgreSQLStore {
		if err := migration.Up(settings.Store.ConnectionString); err != nil {
			return err
		}
	}

	ds, err := datastore.NewDataStore(settings.Store)
	if err != nil {
		return err
	}
	defer ds.Close()
	if settings.Store.Type == datastore.MemoryStore {
		log.Printf("⚠️ Running with the in-memory store; data is lost on restart")
		if _, err := ds.GetActiveConfiguration(ctx); err != nil {
			if _, err := ds.SeedDefaultConfiguration(ctx, "default"); err != nil {
				return err
			}
		}
	}

	fx := cli.Connect(settings)
	defer fx.Close()
	c, pub := fx.Cache, fx.Events

	calc := fees.NewCalculator(fees.DefaultRates())
	modules := registry.New()
	registry.RegisterDefaults(modules, calc)

	hub := api.NewHub()
	go hub.Run(ctx)

	pipeline := submission.New(ds,
		submission.WithNotifier(hub),
		submission.WithCache(c),
		submission.WithEvents(pub),
		submission.WithFeeCalculator(calc))

	sessions := wizard.NewManager()
	go sessions.RunJanitor(ctx, time.Minute, settings.SessionTTL)
	wiz := wizard.NewService(ds, pipeline, renderer.New(modules), sessions,
		wizard.WithDebounce(settings.AutosaveDebounce),
		wizard.WithFeeCalculator(calc))

	adminOpts := []admin.Option{
		admin.WithCache(c),
		admin.WithEvents(pub),
		admin.WithNotifier(hub),
		admin.WithRegistry(modules),
	}
	translator, err := agent.NewAgent(ctx, settings.GeminiAPIKey)
	if err != nil {
		log.Printf("⚠️ Translation agent unavailable: %v", err)
	} else if translator != nil {
		defer translator.Close()
		adminOpts = append(adminOpts, admin.WithTranslator(translator))
		log.Printf("🤖 Translation suggestions enabled (%s)", agent.DefaultModel)
	}
	adm := admin.New(ds, adminOpts...)

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(wiz, adm, modules, hub, ds).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting Gin server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("🔌 Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Flush pending drafts of every open session.
	sessions.CleanupExpired(shutdownCtx, 0)
	return nil
}
