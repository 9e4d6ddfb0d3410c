package domain

const (
	ACTOR_ID_MASTER    = "master"
	ACTOR_ID_CLOCK     = "clock"
	ACTOR_ID_TELEMETRY = "telemetry"
	ACTOR_ID_MQTT      = "mqtt"
	ACTOR_ID_MODBUS    = "modbus"
)

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
	Version string
}
