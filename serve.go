package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/radz2291/RZ-Property/internal/api"
	"github.com/radz2291/RZ-Property/internal/tasks"
)

const shutdownTimeout = 15 * time.Second

var runModes = []string{"api", "bg", "img", "all"}

func newServeCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and/or the background workers",
		Long: `Run the HTTP API and/or the asynq workers.

Modes:
  api  public and admin HTTP API
  bg   notification and deferred blob cleanup worker
  img  image normalization worker
  all  everything (default)

A service API on SERVICE_API_PORT always runs and accepts shutdown requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validMode(mode) {
				return fmt.Errorf("invalid mode %q: must be one of %v", mode, runModes)
			}
			return serve(cmd.Context(), mode)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "all", "run mode (api|bg|img|all)")
	return cmd
}

func validMode(mode string) bool {
	for _, m := range runModes {
		if m == mode {
			return true
		}
	}
	return false
}

func serve(ctx context.Context, mode string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, mode)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := a.cfg

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)
	fatal := make(chan error, 3)

	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(cfg, a.redisClient, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Service API listening on :%s", cfg.ServiceApiPort)
		if err := serviceSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal <- fmt.Errorf("service API: %w", err)
		}
	}()

	log.Printf("Starting application in '%s' mode...", mode)

	var apiSrv *http.Server
	if mode == "api" || mode == "all" {
		router := api.SetupRouter(cfg, api.Dependencies{
			Properties: a.properties,
			Inquiries:  a.inquiries,
			Content:    a.content,
			Agent:      a.agent,
			AdminAuth:  a.adminAuth,
			Analytics:  a.analytics,
			BlobStore:  a.blobStore,
			PageCache:  a.pageCache,
			Captcha:    a.verifier,
		})
		apiSrv = &http.Server{Addr: ":" + cfg.ApiPort, Handler: router}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("Main API listening on :%s", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				fatal <- fmt.Errorf("main API: %w", err)
			}
		}()
	}

	isBgWorker := mode == "bg" || mode == "all"
	isImageWorker := mode == "img" || mode == "all"
	var taskSrv *asynq.Server
	if srv, mux := tasks.SetupServer(a.redisClient, a.taskProcessor(), isImageWorker, isBgWorker); srv != nil {
		// Start returns once the workers are running; Shutdown drains them.
		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("failed to start task server: %w", err)
		}
		taskSrv = srv
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case sig := <-quit:
		log.Printf("Received signal: %s. Shutting down gracefully...", sig)
	case <-shutdownChan:
		log.Println("Shutdown requested via Service API. Shutting down gracefully...")
	case runErr = <-fatal:
		log.Printf("Server failed: %v. Shutting down...", runErr)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Printf("Service API server shutdown error: %v", err)
	}
	if apiSrv != nil {
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("Main API server shutdown error: %v", err)
		}
	}
	if taskSrv != nil {
		taskSrv.Shutdown()
	}

	wg.Wait()
	log.Println("Server gracefully stopped")
	return runErr
}
