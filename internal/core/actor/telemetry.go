package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/events"
	"github.com/berfenger/homesim/internal/core/service"
	. "github.com/berfenger/homesim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// SnapshotSource is anything that can report the whole simulated state.
type SnapshotSource interface {
	Snapshot() service.Snapshot
}

// TelemetryActor periodically turns an environment snapshot into sensor
// update events on the event stream.
type TelemetryActor struct {
	ActorWithStates
	scheduler   *scheduler.TimerScheduler
	stash       *Stash
	source      SnapshotSource
	eventStream *eventstream.EventStream
	interval    time.Duration
	lastPublish time.Time

	logger *zap.Logger
}

type telemetryTick struct {
}

func NewTelemetryActor(interval time.Duration, source SnapshotSource, eventStream *eventstream.EventStream, logger *zap.Logger) *TelemetryActor {
	act := &TelemetryActor{
		stash:       &Stash{},
		source:      source,
		eventStream: eventStream,
		interval:    interval,
		logger:      ActorLogger(domain.ACTOR_ID_TELEMETRY, logger),
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(TMStartingState{
		actor: act,
	})
	return act
}

func (state *TelemetryActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

func (state *TelemetryActor) publish() int {
	evs := events.SnapshotToUpdateEvents(state.source.Snapshot())
	for _, ev := range evs {
		state.eventStream.Publish(ev)
	}
	state.lastPublish = time.Now()
	return len(evs)
}

// Starting state

type TMStartingState struct {
	ActorState
	actor *TelemetryActor
}

func (state TMStartingState) Name() string {
	return "starting"
}

func (state TMStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("telemetry@starting started")
		if state.actor.interval <= 0 {
			state.actor.Become(TMDisabledState{
				actor: state.actor,
			})
		} else {
			state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
			ctx.Send(ctx.Self(), telemetryTick{})
			state.actor.Become(TMPublishingState{
				actor: state.actor,
			})
		}
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("telemetry@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Publishing state

type TMPublishingState struct {
	ActorState
	actor *TelemetryActor
}

func (state TMPublishingState) Name() string {
	return "publishing"
}

func (state TMPublishingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case telemetryTick:
		n := state.actor.publish()
		state.actor.logger.Debug("telemetry@publishing tick", zap.Int("events", n))
		state.actor.scheduler.RequestOnce(state.actor.interval, ctx.Self(), telemetryTick{})
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("telemetry@publishing: ActorHealthRequest")
		// unhealthy once two ticks in a row are late
		healthy := time.Since(state.actor.lastPublish) < 2*state.actor.interval+time.Second
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TELEMETRY,
			Healthy: healthy,
			State:   state.actor.StateName(),
		})
	default:
		state.actor.logger.Debug("telemetry@publishing: ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Disabled state

type TMDisabledState struct {
	ActorState
	actor *TelemetryActor
}

func (state TMDisabledState) Name() string {
	return "disabled"
}

func (state TMDisabledState) Receive(ctx actor.Context) {
	switch ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_TELEMETRY,
			Healthy: true,
			State:   state.actor.StateName(),
		})
	}
}
