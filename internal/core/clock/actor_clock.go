package clock

import (
	"fmt"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// ActorClock delivers due timers as messages to a dedicated clock actor,
// which runs the callbacks one at a time and survives panics in them.
type ActorClock struct {
	root      *actor.RootContext
	pid       *actor.PID
	scheduler *scheduler.TimerScheduler
}

type timerFired struct {
	timer *timer
	fn    func()
}

type clockActor struct {
	logger *zap.Logger
}

func NewActorClock(system *actor.ActorSystem, logger *zap.Logger) (*ActorClock, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return &clockActor{logger: actorutil.ActorLogger(domain.ACTOR_ID_CLOCK, logger)}
	})
	pid, err := system.Root.SpawnNamed(props, domain.ACTOR_ID_CLOCK)
	if err != nil {
		return nil, fmt.Errorf("spawn clock actor: %w", err)
	}
	return &ActorClock{
		root:      system.Root,
		pid:       pid,
		scheduler: scheduler.NewTimerScheduler(system.Root),
	}, nil
}

func (c *ActorClock) Now() time.Time {
	return time.Now()
}

func (c *ActorClock) AfterFunc(d time.Duration, fn func()) Handle {
	t := &timer{}
	cancel := c.scheduler.SendOnce(nonNegative(d), c.pid, &timerFired{timer: t, fn: fn})
	t.setStop(cancel)
	return t
}

func (c *ActorClock) EveryFunc(initial, interval time.Duration, fn func()) Handle {
	t := &timer{}
	cancel := c.scheduler.SendRepeatedly(nonNegative(initial), interval, c.pid, &timerFired{timer: t, fn: fn})
	t.setStop(cancel)
	return t
}

// PID is the clock actor, exposed for health checks.
func (c *ActorClock) PID() *actor.PID {
	return c.pid
}

func (c *ActorClock) Stop() {
	c.root.Stop(c.pid)
}

func (state *clockActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("clock@started")
	case *timerFired:
		if msg.timer.Cancelled() {
			return
		}
		state.run(msg.fn)
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CLOCK,
			Healthy: true,
			State:   "ticking",
		})
	}
}

func (state *clockActor) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			state.logger.Error("clock@tick panic", zap.Any("reason", r), zap.Stack("stack"))
		}
	}()
	fn()
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
