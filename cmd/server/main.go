package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/starfall-games/starfall/pkg/api"
	"github.com/starfall-games/starfall/pkg/broadcast"
	"github.com/starfall-games/starfall/pkg/engine"
	"github.com/starfall-games/starfall/pkg/ledger"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/network"
	"github.com/starfall-games/starfall/pkg/repositories"
	"github.com/starfall-games/starfall/pkg/services"
	"github.com/starfall-games/starfall/pkg/specialists"
	"github.com/starfall-games/starfall/pkg/version"
	"github.com/starfall-games/starfall/pkg/workers"
)

func main() {
	apiPort := flag.Int("api-port", 8080, "HTTP API port to listen on")
	gatewayPort := flag.Int("gateway-port", 9000, "WebSocket gateway port to listen on")
	logLevel := flag.String("log-level", "info", "Log level")
	saveInterval := flag.Duration("save-interval", 10*time.Second, "Interval between full game saves")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)
	log.Info("Log level set to %s", parsedLogLevel)

	log.Info("Starting server version %s", version.Get())
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded: %v", err)
	}

	repository, achievementsRepository, err := newRepository(ctx)
	if err != nil {
		panic(fmt.Sprintf("Failed to create repository: %v", err))
	}
	defer repository.Close(ctx)

	broadcaster := broadcast.NewBroadcaster(broadcast.NewBroadcasterOptions{})

	var relay *broadcast.RedisRelay
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			panic(fmt.Sprintf("Failed to parse REDIS_URL: %v", err))
		}
		relay = broadcast.NewRedisRelay(broadcast.NewRedisRelayOptions{
			Client:      redis.NewClient(redisOpts),
			Broadcaster: broadcaster,
		})
		log.Info("Relaying events over redis")
	}

	gameEngine := engine.NewEngine(engine.NewEngineOptions{
		Repository:  repository,
		Broadcaster: broadcaster,
		Relay:       relay,
	})

	catalog := specialists.NewCatalog()
	currencyLedger := ledger.New()

	gameType := services.NewGameTypeService()
	achievements := services.NewAchievementsService(services.NewAchievementsServiceOptions{
		Repository: achievementsRepository,
		GameType:   gameType,
	})
	waypoints := services.NewWaypointService(services.NewWaypointServiceOptions{
		Catalog:    catalog,
		Repository: repository,
	})
	starUpgrade := services.NewStarUpgradeService(services.NewStarUpgradeServiceOptions{
		Catalog:      catalog,
		Ledger:       currencyLedger,
		Repository:   repository,
		Achievements: achievements,
	})
	specialist := services.NewSpecialistService(services.NewSpecialistServiceOptions{
		Catalog:      catalog,
		Ledger:       currencyLedger,
		Repository:   repository,
		Achievements: achievements,
		Waypoints:    waypoints,
		StarUpgrade:  starUpgrade,
	})
	shipTransfer := services.NewShipTransferService(services.NewShipTransferServiceOptions{
		Repository: repository,
	})
	trade := services.NewTradeService(services.NewTradeServiceOptions{
		Ledger:       currencyLedger,
		Repository:   repository,
		Achievements: achievements,
	})
	player := services.NewPlayerService(services.NewPlayerServiceOptions{
		Repository: repository,
	})

	saveWorker := workers.NewSaveGameWorker(workers.NewSaveGameWorkerOptions{
		Engine:   gameEngine,
		Interval: *saveInterval,
	})
	go saveWorker.Start(ctx)

	gateway := network.NewGateway(network.NewGatewayOptions{
		Port:        *gatewayPort,
		Engine:      gameEngine,
		Broadcaster: broadcaster,
		Relay:       relay,
	})
	go gateway.Start(ctx)

	apiServer := api.NewServer(api.NewServerOptions{
		Engine:       gameEngine,
		Catalog:      catalog,
		Specialist:   specialist,
		StarUpgrade:  starUpgrade,
		ShipTransfer: shipTransfer,
		Waypoints:    waypoints,
		Trade:        trade,
		Player:       player,
	})

	addr := fmt.Sprintf(":%d", *apiPort)
	log.Info("API listening on %s", addr)
	if err := http.ListenAndServe(addr, apiServer.Router()); err != nil {
		panic(fmt.Sprintf("API server error: %v", err))
	}
}

// newRepository prefers Postgres via DATABASE_URL and falls back to a
// local SQLite file.
func newRepository(ctx context.Context) (repositories.GameRepository, repositories.AchievementsRepository, error) {
	if connStr := os.Getenv("DATABASE_URL"); connStr != "" {
		repo, err := repositories.NewPostgresRepository(ctx, connStr)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using postgres repository")
		return repo, repo, nil
	}

	path := os.Getenv("SQLITE_PATH")
	if path == "" {
		path = "starfall.db"
	}
	repo, err := repositories.NewSQLiteRepository(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	log.Info("Using sqlite repository at %s", path)
	return repo, repo, nil
}
