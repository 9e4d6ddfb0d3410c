package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	coreactor "github.com/berfenger/homesim/internal/core/actor"
	"github.com/berfenger/homesim/internal/core/clock"
	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"
	"github.com/berfenger/homesim/internal/util"
	"github.com/berfenger/homesim/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) http.Handler {
	cfg := util.LoadTestConfig()
	logger := zap.NewNop()

	as := actorutil.NewActorSystemWithZapLogger(logger)
	env := service.NewEnvironment(domain.MustDefaultRooms(), domain.MustDefaultPlaces(), service.EnvironmentOptions{
		Clock: clock.NewManualClock(time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)),
		Tick:  time.Minute,
	})
	dispatcher := service.NewDispatcher(env, logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return coreactor.NewMasterOfPuppetsActor(cfg, dispatcher, env, nil, nil, nil, logger)
	})
	pid, err := as.Root.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})

	return NewServer(cfg, as.Root, pid, dispatcher, logger).Handler
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {

	h := newTestServer(t)

	rec := doRequest(h, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "health_check: OK", rec.Body.String())
}

func TestListOperations(t *testing.T) {

	require := require.New(t)

	h := newTestServer(t)

	rec := doRequest(h, http.MethodGet, "/api/operations", "")
	require.Equal(http.StatusOK, rec.Code)

	var ops []domain.OperationInfo
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &ops))
	require.Len(ops, 45)
	require.Equal("thermostat_get_status", ops[0].Name)
	require.True(ops[0].ReadOnly)
}

func TestExecuteOperation(t *testing.T) {

	assert := assert.New(t)

	h := newTestServer(t)

	rec := doRequest(h, http.MethodPost, "/api/operations/blinds_set_state", `{"room":"Kitchen","percent":44}`)
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"text":"Blinds in Kitchen set to 40% open."}`, rec.Body.String())

	rec = doRequest(h, http.MethodPost, "/api/operations/car_get_info", "")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Contains(rec.Body.String(), "ACMECar")

	rec = doRequest(h, http.MethodPost, "/api/operations/thermostat_get_current_temperature", `{"room":"Garage"}`)
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"text":"Room not found"}`, rec.Body.String())
}

func TestExecuteOperationErrors(t *testing.T) {

	assert := assert.New(t)

	h := newTestServer(t)

	rec := doRequest(h, http.MethodPost, "/api/operations/teleport", `{}`)
	assert.Equal(http.StatusNotFound, rec.Code)

	rec = doRequest(h, http.MethodPost, "/api/operations/thermostat_set_temperature", `{"room":"Kitchen","temperature":"warm"}`)
	assert.Equal(http.StatusBadRequest, rec.Code)
	assert.Contains(rec.Body.String(), "temperature")

	rec = doRequest(h, http.MethodPost, "/api/operations/lights_get_status", `["Kitchen"]`)
	assert.Equal(http.StatusBadRequest, rec.Code)
}
