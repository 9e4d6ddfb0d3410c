package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/homesim/internal/config"
	"github.com/berfenger/homesim/internal/core/port"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"
)

type Server struct {
	port             uint
	httpLog          bool
	operationTimeout time.Duration
	rootContext      *actor.RootContext
	masterActor      *actor.PID
	operations       port.OperationExecutor
	logger           *zap.Logger
}

// NewServer builds the HTTP server. Operations are listed from ops and run
// through the master actor.
func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID, ops port.OperationExecutor, logger *zap.Logger) *http.Server {
	NewServer := &Server{
		port:             cfg.Port,
		rootContext:      rootContext,
		masterActor:      masterActor,
		httpLog:          cfg.HttpLog,
		operationTimeout: cfg.OperationTimeout,
		operations:       ops,
		logger:           logger.With(zap.String("component", "http")),
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
