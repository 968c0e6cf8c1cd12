package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio"
	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/views"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("folio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := folio.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := folio.NewLogger(cfg.LogLevel, cfg.LogFormat)

	store, err := contact.NewStore(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open contact inbox: %w", err)
	}
	defer store.Close()

	var mailer contact.Mailer
	emailjs := &contact.EmailJS{
		ServiceID:  cfg.EmailJSServiceID,
		TemplateID: cfg.EmailJSTemplateID,
		PublicKey:  cfg.EmailJSPublicKey,
		PrivateKey: cfg.EmailJSPrivateKey,
		Endpoint:   cfg.EmailJSURL,
	}
	if emailjs.Configured() {
		mailer = emailjs
	} else {
		log.Info("EmailJS not configured, contact messages stay in the inbox")
	}

	opts := []folio.Option{
		folio.WithLogger(log),
		folio.WithContact(contact.NewService(store, mailer, log.WithField("component", "contact"))),
	}

	if cfg.RedisAddr != "" {
		limiter, err := redisLimiter(cfg, log)
		if err != nil {
			return err
		}
		opts = append(opts, folio.WithLoginLimiter(limiter))
	}

	app := folio.New(cfg, views.Default(), opts...)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Start()
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func redisLimiter(cfg folio.SiteConfig, log *logrus.Logger) (*folio.RedisLoginLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.RedisAddr, err)
	}
	log.WithField("addr", cfg.RedisAddr).Info("login limiter backed by redis")
	return folio.NewRedisLoginLimiter(rdb, "folio:login:", 5, time.Minute, log.WithField("component", "limiter")), nil
}

func printUsage() {
	fmt.Println(`folio - a portfolio site over a remote content API

Usage:
  folio [command]

Commands:
  serve         Start the web server (default)
  version       Print the folio version
  help          Show this help message

Configuration is read from the environment and an optional .env file.
API_URL and SESSION_SECRET are required.`)
}
