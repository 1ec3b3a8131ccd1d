package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/marketing-dashboard/internal/api"
	"github.com/ignite/marketing-dashboard/internal/config"
	"github.com/ignite/marketing-dashboard/internal/oauth"
	"github.com/ignite/marketing-dashboard/internal/pkg/distlock"
	"github.com/ignite/marketing-dashboard/internal/pkg/httpretry"
	"github.com/ignite/marketing-dashboard/internal/pkg/logger"
	"github.com/ignite/marketing-dashboard/internal/session"
)

// checkPortAvailable verifies that the target port is not already in use.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	log.Println("╔════════════════════════════════════════════════════════════╗")
	log.Println("║  IGNITE Marketing Dashboard (cmd/server/main.go)           ║")
	log.Println("║  Search Console, Google Ads and Meta reporting API         ║")
	log.Println("╚════════════════════════════════════════════════════════════╝")

	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		logger.SetLevel(logger.ParseLevel(v))
	}

	host := cfg.Server.GetHost()
	port := cfg.Server.Port
	if err := checkPortAvailable(host, port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}
	log.Printf("Pre-flight check passed: port %d is available", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis is optional. Without it OAuth state and refresh locks stay in
	// process, which is fine for a single instance.
	var redisClient *redis.Client
	var states oauth.StateStore = oauth.NewMemoryStateStore(cfg.Session.StateTTL())
	var locker distlock.Locker = distlock.NewLocalLocker()
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis ping failed at %s: %v", cfg.Redis.Addr, err)
		}
		pingCancel()
		defer redisClient.Close()

		states = oauth.NewRedisStateStore(redisClient, cfg.Redis.KeyPrefix, cfg.Session.StateTTL())
		// The local lock keeps same-process callers off Redis polling.
		locker = distlock.Chain{
			distlock.NewLocalLocker(),
			distlock.NewRedisLocker(redisClient, cfg.Redis.KeyPrefix, 30*time.Second),
		}
		log.Printf("Redis enabled at %s (OAuth state and refresh locks shared)", cfg.Redis.Addr)
	} else {
		log.Println("Redis not configured - OAuth state and refresh locks are in-process")
	}

	sessions := session.NewManager(cfg.Session, locker)
	sessions.StartCleanup(ctx, cfg.Session.CleanupInterval())

	authorizer := oauth.NewAuthorizer(oauth.Config{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		AuthURL:      cfg.Google.AuthURL,
		TokenURL:     cfg.Google.TokenURL,
	}, httpretry.NewClient(15*time.Second, httpretry.DefaultPolicy()))

	if cfg.Google.ClientID != "" {
		// Surface a bad client id/secret now rather than at first connect.
		log.Println("Validating Google OAuth client...")
		if err := authorizer.ValidateClient(ctx, cfg.RedirectURI()); err != nil {
			log.Fatalf("OAuth pre-flight FAILED: %v", err)
		}
		log.Printf("Google OAuth client validated (redirect: %s)", cfg.RedirectURI())
	} else {
		log.Println("Google OAuth not configured - Search Console and Google Ads are unavailable")
	}

	if cfg.Operator.PasswordHash == "" {
		log.Println("Warning: no operator password hash configured; login will always fail")
	}
	if len(cfg.Meta.AccountIDs) > 0 {
		log.Printf("Meta Ads enabled for %d account(s)", len(cfg.Meta.AccountIDs))
	}

	handlers := api.NewHandlers(cfg, sessions, authorizer, states)
	if redisClient != nil {
		handlers.SetHealthChecker(api.NewHealthChecker(redisClient, sessions))
	}
	server := api.NewServer(cfg.Server, handlers)
	log.Println("Health check routes registered: /health, /health/live, /health/ready")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	log.Println("All services initialized, server is ready")

	<-done
	log.Println("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
