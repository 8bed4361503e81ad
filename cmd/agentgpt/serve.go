package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/stake-plus/agentgpt/src/agents"
	"github.com/stake-plus/agentgpt/src/api/webserver"
	"github.com/stake-plus/agentgpt/src/config"
	"github.com/stake-plus/agentgpt/src/data"
	"github.com/stake-plus/agentgpt/src/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// connectSettings opens the settings database when MYSQL_DSN is present.
func connectSettings() (*gorm.DB, string, error) {
	dsn, err := data.GetMySQLDSN()
	if errors.Is(err, data.ErrNoDSN) {
		return nil, "env", nil
	}
	if err != nil {
		return nil, "", err
	}
	db, err := data.ConnectMySQL(dsn)
	if err != nil {
		return nil, "", fmt.Errorf("mysql: %w", err)
	}
	if err := data.MigrateSettings(db); err != nil {
		return nil, "", fmt.Errorf("migrate settings: %w", err)
	}
	return db, "mysql", nil
}

func serve(parent context.Context) error {
	logger := logging.New("api")
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, settingsSource, err := connectSettings()
	if err != nil {
		return err
	}
	cfg := config.Load(db)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	rt, err := agents.Start(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	router, err := webserver.New(webserver.Options{
		Store:          rt.Store,
		Registry:       rt.Registry,
		Runner:         rt.Runner,
		Summaries:      rt.Summaries,
		Exporter:       rt.Exporter,
		Publisher:      rt.Publisher,
		Limiter:        webserver.NewRateLimiter(ctx, cfg.ExecuteRateLimit, cfg.ExecuteRateWindow),
		CORSOrigins:    cfg.CORSOrigins,
		RequestLog:     cfg.Debug,
		SettingsSource: settingsSource,
		EventSink:      rt.EventSink,
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSEnabled() {
			reloader, rerr := webserver.NewTLSReloader(ctx, cfg.TLSCertFile, cfg.TLSKeyFile, webserver.TLSReloadInterval, logging.New("tls"))
			if rerr != nil {
				errCh <- fmt.Errorf("tls: %w", rerr)
				return
			}
			httpSrv.TLSConfig = reloader.GetConfig()
			err = httpSrv.ListenAndServeTLS("", "")
		} else {
			err = httpSrv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Printf("AgentGPT API listening on %s (%s)", cfg.Addr(), cfg.Environment)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Printf("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutCtx)
}
