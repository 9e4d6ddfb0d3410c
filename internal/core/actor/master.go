package actor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	adactor "github.com/berfenger/homesim/internal/adapter/actor"
	"github.com/berfenger/homesim/internal/config"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/port"
	. "github.com/berfenger/homesim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/carlmjohnson/versioninfo"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type ModbusActorProvider func() *adactor.ModbusActor

// MasterOfPuppetsActor supervises the adapters and the telemetry loop, runs
// operations for the HTTP server and routes MQTT commands to the executor.
// A nil provider leaves that adapter out.
type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck  healthCheckResult
	eventStream         *eventstream.EventStream
	executor            port.OperationExecutor
	source              SnapshotSource
	clockActor          *actor.PID
	modbusActor         *actor.PID
	mqttActor           *actor.PID
	telemetryActor      *actor.PID
	modbusActorProvider ModbusActorProvider
	mqttActorProvider   MQTTActorProvider
	logger              *zap.Logger
}

type healthCheckResult struct {
	expected  map[string]*actor.PID
	healthy   map[string]bool
	received  int
	respondTo *actor.PID
}

// commandReply is the JSON payload published on a command's reply topic.
type commandReply struct {
	domain.OperationResult
	Error string `json:"error,omitempty"`
}

func NewMasterOfPuppetsActor(config config.Config, executor port.OperationExecutor, source SnapshotSource, clockActor *actor.PID,
	modbusActorProvider ModbusActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:              config,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         &eventstream.EventStream{},
		executor:            executor,
		source:              source,
		clockActor:          clockActor,
		modbusActorProvider: modbusActorProvider,
		mqttActorProvider:   mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		// start Modbus child
		if state.modbusActorProvider != nil {
			modbusActorPID, err := state.startModbusActor(ctx)
			if err != nil {
				panic(err)
			}
			state.modbusActor = modbusActorPID
		}

		// start MQTT child
		if state.mqttActorProvider != nil {
			mqttActorPID, err := state.startMQTTActor(ctx)
			if err != nil {
				panic(err)
			}
			state.mqttActor = mqttActorPID
		}

		// start Telemetry child
		telemetryActorPID, err := state.startTelemetryActor(ctx)
		if err != nil {
			panic(err)
		}
		state.telemetryActor = telemetryActorPID

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck = newHealthCheck(map[string]*actor.PID{
			domain.ACTOR_ID_CLOCK:     state.clockActor,
			domain.ACTOR_ID_MODBUS:    state.modbusActor,
			domain.ACTOR_ID_MQTT:      state.mqttActor,
			domain.ACTOR_ID_TELEMETRY: state.telemetryActor,
		})
		state.currentHealthCheck.respondTo = ForRequest(msg).ReplyTo(ctx)
		if state.currentHealthCheck.allReceived() {
			state.currentHealthCheck.respond(ctx)
			return
		}
		for id, pid := range state.currentHealthCheck.expected {
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.ActorHealthResponse{
					Id:      id,
					Healthy: false,
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.OperationRequest:
		state.logger.Debug("master@default OperationRequest", zap.String("operation", msg.Name))
		replyTo := ForRequest(msg).ReplyTo(ctx)
		if replyTo == nil {
			return
		}
		state.execute(ctx, msg.Name, msg.Args).PipeTo(replyTo)
	case adactor.ParsedCommand:
		// run the command and publish the result on its reply topic
		state.logger.Debug("master@default parsedCommand", zap.Any("command", msg.Command))
		if msg.Command == nil || state.mqttActor == nil {
			return
		}
		replyTopic := msg.ReplyTopic
		MapBackgroundTask(state.execute(ctx, msg.Command.Operation, msg.Command.Args), func(resp *domain.OperationResponse) *domain.PublishMessageRequest {
			return &domain.PublishMessageRequest{
				Topic:   replyTopic,
				Payload: replyPayload(*resp),
			}
		}).PipeTo(state.mqttActor)
	case domain.PublishMessageResponse:
		if msg.HasResponseError() {
			state.logger.Warn("master@default reply not published", zap.Error(msg.GetResponseError()))
		}
	case *actor.Terminated:
		// if some actor fails on boot, terminate
		if state.modbusActor != nil && msg.Who.Id == state.modbusActor.Id {
			state.logger.Error("master@default modbus error")
			panic(errors.New("modbus terminated"))
		}
	default:
		state.logger.Debug("master@default ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.received++
		state.currentHealthCheck.healthy[msg.Id] = msg.Healthy
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// execute runs an operation off the actor goroutine. Failures, panics and
// timeouts all come back as an OperationResponse carrying the error.
func (state *MasterOfPuppetsActor) execute(ctx actor.Context, name string, args map[string]any) *SafeBackgroundTask[domain.OperationResponse] {
	executor := state.executor
	logger := state.logger
	return NewBackgroundTask(ctx.ActorSystem().Root, func() (*domain.OperationResponse, error) {
		res, err := executor.Execute(name, args)
		if err != nil {
			return nil, err
		}
		return &domain.OperationResponse{Name: name, Result: res}, nil
	}).WithTimeout(state.config.OperationTimeout).Recover(func(err error) domain.OperationResponse {
		logger.Debug("master@operation failed", zap.String("operation", name), zap.Error(err))
		return domain.OperationResponse{
			ActorResponseMixIn: domain.FailedResponse(err),
			Name:               name,
		}
	})
}

func (state *MasterOfPuppetsActor) startModbusActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	modbusProps := actor.PropsFromProducer(func() actor.Actor {
		return state.modbusActorProvider()
	}, actor.WithSupervisor(supervisor))
	modbusActorPID, err := ctx.SpawnNamed(modbusProps, domain.ACTOR_ID_MODBUS)
	if err != nil {
		return nil, err
	}

	return modbusActorPID, nil
}

func (state *MasterOfPuppetsActor) startTelemetryActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, RestartDecider(state.logger))

	telemetryProps := actor.PropsFromProducer(func() actor.Actor {
		return NewTelemetryActor(state.config.Telemetry.Interval, state.source, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	telemetryActorPID, err := ctx.SpawnNamed(telemetryProps, domain.ACTOR_ID_TELEMETRY)
	if err != nil {
		return nil, err
	}

	return telemetryActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func replyPayload(resp domain.OperationResponse) string {
	reply := commandReply{OperationResult: resp.Result}
	if resp.HasResponseError() {
		reply.Error = resp.GetResponseError().Error()
	}
	b, err := json.Marshal(reply)
	if err != nil {
		b, _ = json.Marshal(commandReply{Error: err.Error()})
	}
	return string(b)
}

// newHealthCheck expects an answer from every child that is running.
func newHealthCheck(children map[string]*actor.PID) healthCheckResult {
	expected := make(map[string]*actor.PID, len(children))
	for id, pid := range children {
		if pid != nil {
			expected[id] = pid
		}
	}
	return healthCheckResult{
		expected: expected,
		healthy:  make(map[string]bool, len(expected)),
	}
}

func (state *healthCheckResult) allReceived() bool {
	return state.received >= len(state.expected)
}

func (state *healthCheckResult) allHealthy() bool {
	for id := range state.expected {
		if !state.healthy[id] {
			return false
		}
	}
	return true
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   fmt.Sprintf("%d/%d children healthy", state.healthyCount(), len(state.expected)),
		Version: versioninfo.Short(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}

func (state *healthCheckResult) healthyCount() int {
	n := 0
	for id := range state.expected {
		if state.healthy[id] {
			n++
		}
	}
	return n
}
