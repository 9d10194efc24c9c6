package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"dqx0.com/go/tinyhttp/httpx"
	"dqx0.com/go/tinyhttp/internal/fileserve"
	"dqx0.com/go/tinyhttp/internal/obs"
)

type config struct {
	dir          string
	gzip         bool
	maxConns     int
	readTimeout  time.Duration
	writeTimeout time.Duration
	logLevel     string
	logFormat    string
}

func parseFlags(args []string) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("tinyhttp", flag.ContinueOnError)
	fs.StringVar(&cfg.dir, "directory", "", "directory served under /files/")
	fs.BoolVar(&cfg.gzip, "gzip", true, "gzip text responses for clients that accept it")
	fs.IntVar(&cfg.maxConns, "max-conns", 1024, "maximum concurrent connections (0 = unbounded)")
	fs.DurationVar(&cfg.readTimeout, "read-timeout", 30*time.Second, "per-connection read timeout")
	fs.DurationVar(&cfg.writeTimeout, "write-timeout", 30*time.Second, "per-connection write timeout")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "debug, info, warn or error")
	fs.StringVar(&cfg.logFormat, "log-format", "console", "console or json")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if cfg.dir == "" && fs.NArg() > 0 {
		cfg.dir = fs.Arg(0)
	}
	return cfg, nil
}

func newLogger(cfg config, w io.Writer) (obs.Logger, error) {
	lvl, err := obs.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, err
	}
	switch cfg.logFormat {
	case "json":
	case "console", "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.logFormat)
	}
	z := zerolog.New(w).With().Timestamp().Str("svc", "tinyhttp").Logger()
	return obs.NewZerologLogger(z, lvl), nil
}

func run(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := parseFlags(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	if cfg.dir == "" {
		logger.Logf(obs.Warn, "no --directory given; /files/ routes are disabled")
	} else if fi, err := os.Stat(cfg.dir); err != nil || !fi.IsDir() {
		logger.Logf(obs.Warn, "serving directory %q is not usable yet: %v", cfg.dir, err)
	}

	s := &httpx.Server{
		Addr:         fileserve.ListenAddr,
		Handler:      fileserve.Routes(fileserve.Options{Dir: cfg.dir, Gzip: cfg.gzip, Logger: logger}),
		ReadTimeout:  cfg.readTimeout,
		WriteTimeout: cfg.writeTimeout,
		MaxConns:     cfg.maxConns,
		Logger:       logger,
	}
	errc := make(chan error, 1)
	go func() { errc <- s.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Logf(obs.Info, "shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, httpx.ErrServerClosed) {
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "tinyhttp:", err)
		os.Exit(1)
	}
}
