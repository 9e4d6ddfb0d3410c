package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	adactor "github.com/berfenger/homesim/internal/adapter/actor"
	"github.com/berfenger/homesim/internal/config"
	"github.com/berfenger/homesim/internal/core/actor"
	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"
	"github.com/berfenger/homesim/internal/server"
	"github.com/berfenger/homesim/internal/util/actorutil"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	slog.Info("Using", "config", cfg.Redacted(), "version", versioninfo.Short())

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// simulated environment, driven by the clock actor
	actorClock, err := clock.NewActorClock(as, logger)
	if err != nil {
		panic(err)
	}
	env, err := newEnvironment(cfg, actorClock, logger)
	if err != nil {
		panic(err)
	}
	env.Start()
	dispatcher := service.NewDispatcher(env, logger)

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, dispatcher, env, actorClock.PID(),
			modbusActorProvider(cfg, env, logger), mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid, dispatcher, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	env.Shutdown()
	actorClock.Stop()
	as.Shutdown()
}

func newEnvironment(cfg *config.Config, c clock.Clock, logger *zap.Logger) (*service.Environment, error) {
	rooms, err := domain.NewRooms(cfg.Rooms)
	if err != nil {
		return nil, err
	}
	places, err := domain.NewPlaces(cfg.Places)
	if err != nil {
		return nil, err
	}
	return service.NewEnvironment(rooms, places, service.EnvironmentOptions{
		Clock:        c,
		Tick:         cfg.Simulation.Tick,
		PollInterval: cfg.VehiclePollInterval(),
		Logger:       logger,
	}), nil
}

func modbusActorProvider(cfg *config.Config, env *service.Environment, logger *zap.Logger) actor.ModbusActorProvider {
	if !cfg.Modbus.Enabled {
		return nil
	}
	return func() *adactor.ModbusActor {
		return adactor.NewModbusActor(cfg.Modbus, env, logger)
	}
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	if !cfg.MQTT.Enabled {
		return nil
	}
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}
