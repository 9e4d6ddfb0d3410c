package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/homesim/internal/config"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"
	"github.com/berfenger/homesim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// ModbusActor owns a Modbus TCP server exposing the environment's register
// map. A failure to listen panics and is left to the supervisor.
type ModbusActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	config   config.ModbusConfig
	handler  *RegisterMap
	server   *modbus.ModbusServer
	logger   *zap.Logger
}

func NewModbusActor(cfg config.ModbusConfig, env *service.Environment, logger *zap.Logger) *ModbusActor {
	actorLogger := actorutil.ActorLogger(domain.ACTOR_ID_MODBUS, logger)
	act := &ModbusActor{
		config:   cfg,
		handler:  NewRegisterMap(env, cfg.UnitId, actorLogger),
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorLogger,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ModbusActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ModbusActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("modbus@starting started")
		server, err := modbus.NewServer(&modbus.ServerConfiguration{
			URL:        state.config.URL,
			Timeout:    30 * time.Second,
			MaxClients: 5,
		}, state.handler)
		if err != nil {
			panic(err)
		}
		if err := server.Start(); err != nil {
			panic(err)
		}
		state.server = server
		state.logger.Info("modbus server listening", zap.String("url", state.config.URL))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.stop()
	default:
		state.logger.Debug("modbus@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ModbusActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Restarting:
		state.stop()
	case *actor.Stopping:
		state.stop()
	case domain.ActorHealthRequest:
		state.logger.Debug("modbus@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_MODBUS,
			Healthy: state.server != nil,
			State:   "listening",
		})
	default:
		state.logger.Debug("modbus@default: ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ModbusActor) stop() {
	if state.server == nil {
		return
	}
	if err := state.server.Stop(); err != nil {
		state.logger.Warn("modbus server stop", zap.Error(err))
	}
	state.server = nil
}
