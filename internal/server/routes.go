package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/berfenger/homesim/internal/core/domain"
	"github.com/berfenger/homesim/internal/core/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)

	api := e.Group("/api")
	api.GET("/operations", s.ListOperationsHandler)
	api.POST("/operations/:name", s.ExecuteOperationHandler)

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) ListOperationsHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.operations.Operations())
}

// ExecuteOperationHandler runs the named operation with the JSON object body
// as arguments. An empty body means no arguments.
func (s *Server) ExecuteOperationHandler(c echo.Context) error {
	name := c.Param("name")
	args := map[string]any{}
	if err := (&echo.DefaultBinder{}).BindBody(c, &args); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "body must be a JSON object"})
	}

	// the master enforces operationTimeout; leave it room to answer
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.OperationRequest{Name: name, Args: args}, s.operationTimeout+time.Second).Result()
	if err != nil {
		s.logger.Warn("operation timed out", zap.String("operation", name), zap.Error(err))
		return c.JSON(http.StatusGatewayTimeout, errorResponse{Error: err.Error()})
	}
	resp, ok := res.(domain.OperationResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "unexpected response"})
	}
	if resp.HasResponseError() {
		return c.JSON(statusFor(resp.GetResponseError()), errorResponse{Error: resp.GetResponseError().Error()})
	}
	return c.JSON(http.StatusOK, resp.Result)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnknownOperation):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
