package actor

import (
	"testing"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/util"
	"github.com/berfenger/homesim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	require := require.New(t)

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	published := make(chan domain.PublishMessageRequest, 1)
	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, published, logger) })
	pid := context.Spawn(props)

	msg := domain.ActorHealthRequest{}
	result, err := context.RequestFuture(pid, msg, 2*time.Second).Result()
	require.NoError(err)
	resp, ok := result.(domain.ActorHealthResponse)
	require.True(ok)
	require.Equal(domain.ACTOR_ID_MQTT, resp.Id)

	result, err = context.RequestFuture(pid, domain.PublishMessageRequest{
		Topic:   "homesim/reply/car_stop",
		Payload: `{"text":"Car is already stopped."}`,
	}, 2*time.Second).Result()
	require.NoError(err)
	_, ok = result.(domain.PublishMessageResponse)
	require.True(ok)

	select {
	case p := <-published:
		require.Equal("homesim/reply/car_stop", p.Topic)
	case <-time.After(time.Second):
		t.Fatal("message not published")
	}

	context.Stop(pid)

	as.Shutdown()
}

func TestEvent2MQTTMessage(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	act := NewTestMQTTActor(&cfg, nil, zap.NewNop())
	act.DummyReceive(startedContext{})

	m := act.event2MQTTMessage(domain.FloatSensor("kitchen_temperature", 21.456, 1))
	assert.Equal("homesim/sensor/kitchen_temperature/state", m.topic)
	assert.Equal("21.5", m.message)

	m = act.event2MQTTMessage(domain.BinarySensor("front_door_locked", true))
	assert.Equal("homesim/binary_sensor/front_door_locked/state", m.topic)
	assert.Equal("on", m.message)

	m = act.event2MQTTMessage(domain.TextSensor("car_location", "Office"))
	assert.Equal("Office", m.message)

	assert.Nil(act.event2MQTTMessage("not an event"))
}

func TestAnnounceOncePerSensor(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	cfg.MQTT.Discovery = true
	cfg.MQTT.DiscoveryPrefix = "homeassistant"
	act := NewTestMQTTActor(&cfg, nil, zap.NewNop())
	act.DummyReceive(startedContext{})

	d := act.announce(domain.FloatSensor("kitchen_humidity", 45, 1))
	if assert.NotNil(d) {
		assert.Equal("homeassistant/sensor/homesim/kitchen_humidity/config", d.topic)
		assert.True(d.retain)
		assert.Contains(d.message, `"state_topic":"homesim/sensor/kitchen_humidity/state"`)
		assert.Contains(d.message, `"unit_of_measurement":"%"`)
	}
	assert.Nil(act.announce(domain.FloatSensor("kitchen_humidity", 46, 1)), "already announced")
	assert.NotNil(act.announce(domain.BinarySensor("front_door_locked", true)))

	act.stop()
	assert.NotNil(act.announce(domain.FloatSensor("kitchen_humidity", 47, 1)), "a new connection announces again")

	cfg.MQTT.Discovery = false
	assert.Nil(act.announce(domain.FloatSensor("bedroom_humidity", 50, 1)))
}

// startedContext feeds a single *actor.Started into a receive function.
type startedContext struct {
	actor.Context
}

func (startedContext) Message() any {
	return &actor.Started{}
}
