package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/dorkfun/matchserver/internal/activeindex"
	"github.com/dorkfun/matchserver/internal/api"
	"github.com/dorkfun/matchserver/internal/chain"
	"github.com/dorkfun/matchserver/internal/config"
	"github.com/dorkfun/matchserver/internal/database"
	"github.com/dorkfun/matchserver/internal/ens"
	"github.com/dorkfun/matchserver/internal/gamemodule"
	"github.com/dorkfun/matchserver/internal/gamemodule/connectfour"
	"github.com/dorkfun/matchserver/internal/gamemodule/matatu"
	"github.com/dorkfun/matchserver/internal/gamemodule/tictactoe"
	"github.com/dorkfun/matchserver/internal/matchmaking"
	"github.com/dorkfun/matchserver/internal/matchservice"
	"github.com/dorkfun/matchserver/internal/migrations"
	"github.com/dorkfun/matchserver/internal/redisclient"
	"github.com/dorkfun/matchserver/internal/room"
	"github.com/dorkfun/matchserver/internal/settlement"
	"github.com/dorkfun/matchserver/internal/store"
	"github.com/dorkfun/matchserver/internal/ws"
)

// depositEventAdapter narrows chain.EscrowClient's PollDeposits (which
// also reports a per-event BlockNumber the Coordinator has no use for)
// down to the settlement.EscrowWatcher shape.
type depositEventAdapter struct {
	client *chain.EscrowClient
}

func (a depositEventAdapter) PollDeposits(ctx context.Context, fromBlock uint64) ([]settlement.DepositEvent, uint64, error) {
	events, next, err := a.client.PollDeposits(ctx, fromBlock)
	if err != nil {
		return nil, fromBlock, err
	}
	out := make([]settlement.DepositEvent, len(events))
	for i, e := range events {
		out[i] = settlement.DepositEvent{MatchID: e.MatchID, Player: e.Player}
	}
	return out, next, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if os.Getenv("MIGRATE_ON_START") == "true" {
		log.Println("↗ Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	rdb, err := redisclient.Connect(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	st := store.New(db)

	registry := gamemodule.NewRegistry()
	registry.Register(tictactoe.New())
	registry.Register(connectfour.New())
	registry.Register(matatu.New())

	queue := matchmaking.New(time.Duration(cfg.QueueTicketTTLSeconds) * time.Second)
	invites := matchmaking.NewInvites()
	pending := matchmaking.NewPendingMatches(time.Duration(cfg.PendingMatchTTLSeconds) * time.Second)
	rooms := room.NewManager()
	index := activeindex.New(rdb, time.Duration(cfg.ActiveIndexTTLSeconds)*time.Second)
	tokens := ws.NewTokens(time.Duration(cfg.WSTokenTTLSeconds) * time.Second)

	var coord *settlement.Coordinator
	var escrowClient *chain.EscrowClient
	if cfg.SettlementEnabled {
		escrowClient, err = chain.NewEscrowClient(cfg.RPCURL, cfg.EscrowAddress)
		if err != nil {
			log.Fatalf("Failed to build escrow client: %v", err)
		}
		settlementClient, err := chain.NewSettlementClient(context.Background(), cfg.RPCURL, cfg.SettlementAddress, cfg.ServerPrivateKey)
		if err != nil {
			log.Fatalf("Failed to build settlement client: %v", err)
		}
		coord = settlement.New(depositEventAdapter{client: escrowClient}, settlementClient, cfg.SettlementMaxAttempts)
		log.Println("[SETTLEMENT] On-chain staking and settlement enabled")
	} else {
		log.Println("[SETTLEMENT] SETTLEMENT_ENABLED is false; matches run unstaked only")
	}

	var stakeMinimum api.StakeMinimumFunc
	if escrowClient != nil {
		stakeMinimum = func(ctx context.Context, gameID string) (string, error) {
			min, err := escrowClient.MinimumStake(ctx)
			if err != nil {
				return "", err
			}
			return min.String(), nil
		}
	}

	matches := matchservice.New(matchservice.Config{
		Registry:             registry,
		Queue:                queue,
		Invites:              invites,
		Pending:              pending,
		Index:                index,
		Coordinator:          coord,
		Persistence:          st,
		EscrowAddress:        cfg.EscrowAddress,
		StakeMinimum:         stakeMinimum,
		CompletedEvictionAge: time.Duration(cfg.CompletedMatchEvictionMin) * time.Minute,
	})

	wsServer := ws.NewServer(matches, rooms, tokens)
	matches.SetNotifier(wsServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sweepLoop(ctx, 30*time.Second, func() {
		n := matches.CleanupStaleMatches(ctx, time.Duration(cfg.StaleMatchTimeoutMs)*time.Millisecond)
		if n > 0 {
			log.Printf("[SWEEP] force-drew %d stale matches", n)
		}
	})
	go sweepLoop(ctx, 5*time.Minute, func() {
		n := matches.CleanupCompletedMatches(time.Duration(cfg.CompletedMatchEvictionMin) * time.Minute)
		if n > 0 {
			log.Printf("[SWEEP] evicted %d completed matches from memory", n)
		}
	})
	if coord != nil {
		go coord.RunDepositSweep(ctx, 5*time.Second, 0)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, cfg, matches, registry, queue, st, wsServer, tokens, ens.NopResolver{}, stakeMinimum)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting dork.fun match server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("Shutting down...")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// sweepLoop runs fn on a ticker until ctx is cancelled, the same
// ticker-driven background loop shape the teacher uses for
// idle_worker.go and matchmaker_worker.go.
func sweepLoop(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
