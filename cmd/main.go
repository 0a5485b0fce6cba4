package main

import (
	"chat-core/internal"
	"chat-core/repositories"
	"chat-core/runtime"
	"chat-core/runtime/workers"
	"chat-core/services"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the daemon lifecycle, and
// centralizes error reporting, so that 'defer' statements (like database
// cleanup) execute before the program exits and the wiring stays testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & Services
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)
	roomRepository := repositories.NewRoomRepository(db)
	userRepository := repositories.NewUserRepository(db)

	roomService := services.NewChatRoomService(roomRepository, log)
	messageService := services.NewChatMessageService(messageRepository, roomService, log)
	userService := services.NewUserService(userRepository, log)

	// 4. Notification runtime
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewChannelDispatcher(log, config.BufferSize)
	fanout := workers.NewNotificationFanout(log, dispatcher.Events(), registry, config.SinkTimeout)
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(fanout)

	chatService := services.NewChatService(messageService, userService, dispatcher, log)

	if config.DebugServer {
		internal.StartDebugServer(db, config.DebugPort, nil)
		log.Info("Debug inspect server started", "port", config.DebugPort)
	}

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Supervised fan-out until shutdown
	// The transport adapter of the deployment drives chatService; the daemon
	// itself only reports what the previous run left behind.
	if online, err := chatService.ListOnline(ctx); err != nil {
		log.Warn("Could not list online users", "error", err)
	} else {
		log.Info("Users still marked ONLINE from previous run", "count", len(online))
	}

	log.Info("Starting chat core")
	go sup.Run(ctx)

	<-ctx.Done()
	log.Info("Shutting down gracefully...")
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
