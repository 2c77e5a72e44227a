package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"taskclock/internal/api"
	"taskclock/internal/executor"
	"taskclock/internal/runner"
	"taskclock/internal/store"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "HTTP bind address")
		dbPath      = flag.String("db", "taskclock.db", "SQLite DB path")
		poll        = flag.Duration("poll", time.Second, "executor poll interval")
		concurrency = flag.Int("concurrency", 8, "max concurrent task runs")
		webhookURL  = flag.String("webhook", "", "agent webhook URL (logs firings when empty)")
		debug       = flag.Bool("debug", false, "enable pprof debug routes")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=journal_mode(WAL)", *dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("open db")
	}
	defer db.Close()
	db.SetMaxOpenConns(1) // SQLite single writer

	if err := store.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("ensure schema")
	}
	repo := store.NewSQLiteRepo(db)

	var run executor.Runner = runner.Log{}
	if *webhookURL != "" {
		run = runner.NewWebhook(*webhookURL, 30*time.Second)
		log.Info().Str("url", *webhookURL).Msg("delivering firings via webhook")
	}

	ctx, cancel := context.WithCancel(context.Background())
	exec := executor.NewService(repo, run, *poll, *concurrency)
	go exec.Start(ctx)

	srv := &http.Server{Addr: *addr, Handler: api.NewServerWithDebug(repo, *debug)}
	go func() {
		log.Info().Str("addr", *addr).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info().Msg("shutting down")
	cancel()
	exec.Stop()
	ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTimeout()
	_ = srv.Shutdown(ctxTimeout)
}
