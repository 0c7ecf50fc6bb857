package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/starfall-games/starfall/pkg/client"
	"github.com/starfall-games/starfall/pkg/log"
	"github.com/starfall-games/starfall/pkg/version"
)

func main() {
	gatewayURL := flag.String("gateway-url", "ws://localhost:9000/events", "WebSocket gateway URL")
	gameID := flag.String("game-id", "", "Game to mirror")
	userID := flag.String("user-id", "", "User identity")
	logLevel := flag.String("log-level", "info", "Log level")
	statusInterval := flag.Duration("status-interval", 10*time.Second, "Interval between status lines")
	flag.Parse()

	parsedLogLevel, err := log.ParseLogLevel(*logLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to parse log level: %v", err))
	}

	logger := log.New(os.Stdout, "", log.DefaultLoggerFlag, parsedLogLevel)
	log.SetDefaultLogger(logger)

	if *gameID == "" {
		panic("game-id is required")
	}

	log.Info("Starting client version %s", version.Get())
	ctx := context.Background()

	gameClient := client.NewGameClient(client.NewGameClientOptions{
		GatewayURL: *gatewayURL,
		GameID:     *gameID,
		UserID:     *userID,
	})

	go func() {
		ticker := time.NewTicker(*statusInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				game := gameClient.Game()
				if game == nil {
					log.Info("Waiting for snapshot of game %s", *gameID)
					continue
				}
				log.Info("Game %s at seq %d: %d stars, %d carriers",
					game.ID, gameClient.Seq(), len(game.Galaxy.Stars), len(game.Galaxy.Carriers))
			}
		}
	}()

	if err := gameClient.Run(ctx); err != nil {
		panic(fmt.Sprintf("Client error: %v", err))
	}
}
