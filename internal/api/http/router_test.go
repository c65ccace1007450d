package http

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/api/dispatch"
	"github.com/spec-kit/user-service/internal/api/http/handlers"
	"github.com/spec-kit/user-service/internal/auth"
	"github.com/spec-kit/user-service/internal/config"
	"github.com/spec-kit/user-service/internal/domain"
	"github.com/spec-kit/user-service/internal/events"
	"github.com/spec-kit/user-service/internal/observability"
	"github.com/spec-kit/user-service/internal/repository"
	"github.com/spec-kit/user-service/internal/service"
	"github.com/spec-kit/user-service/internal/validation"
)

type testServer struct {
	app     *fiber.App
	tokens  *auth.TokenManager
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, authRequired bool) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := repository.NewMemoryUserStore(domain.Team{Name: "General"})
	users := service.NewUserService(config.Config{}, service.UserDependencies{
		Store:      store,
		Dispatcher: events.NewInMemoryDispatcher(),
	}, logger)

	d := dispatch.New(logger)
	handlers.NewUsersHandler(users, validation.New(validation.DefaultRules()), logger).Register(d)

	tokens := auth.NewTokenManager("test-secret", 5)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("user-service", "test", nil, metrics),
		Dispatcher:     d,
		AuthMiddleware: auth.NewAuthMiddleware(tokens, authRequired),
	})
	return &testServer{app: app, tokens: tokens, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, target, body, token string) (int, map[string]any, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var obj map[string]any
	_ = json.Unmarshal(raw, &obj)
	return resp.StatusCode, obj, string(raw)
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(domain.Principal{ID: "admin-1", Name: "Admin"})
	require.NoError(t, err)
	return token
}

func TestUsersRoundTripOverHTTP(t *testing.T) {
	s := newTestServer(t, true)
	token := s.token(t)

	status, body, _ := s.do(t, fiber.MethodPost, "/user/create",
		`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","teamId":1,"status":"ACTIVE"}`, token)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "User Created Successfully", body["message"])
	id := body["id"].(string)

	status, body, _ = s.do(t, fiber.MethodGet, "/user/"+id, "", token)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "ada@example.com", body["email"])
	require.Equal(t, "admin-1", body["createdBy"].(map[string]any)["id"])

	status, _, raw := s.do(t, fiber.MethodGet, "/user?team=General", "", token)
	require.Equal(t, fiber.StatusOK, status)
	var list []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &list))
	require.Len(t, list, 1)

	status, body, _ = s.do(t, fiber.MethodPut, "/user/"+id, `{"teamId":1,"firstName":"Augusta"}`, token)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "User Updated Successfully", body["message"])

	status, body, _ = s.do(t, fiber.MethodDelete, "/user/"+id, "", token)
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "User Deleted Successfully", body["message"])

	status, body, _ = s.do(t, fiber.MethodGet, "/user/"+id, "", token)
	require.Equal(t, fiber.StatusNotFound, status)
	require.Equal(t, "User not found", body["message"])
}

func TestUnknownRoutesAnswerNoSuchMethod(t *testing.T) {
	s := newTestServer(t, true)
	token := s.token(t)

	for _, tc := range []struct{ method, target string }{
		{fiber.MethodPatch, "/user/1"},
		{fiber.MethodGet, "/user/create"},
		{fiber.MethodPost, "/user"},
		{fiber.MethodGet, "/teams"},
	} {
		status, body, _ := s.do(t, tc.method, tc.target, "", token)
		require.Equal(t, fiber.StatusNotFound, status, tc.target)
		require.Equal(t, dispatch.MsgNoSuchMethod, body["message"])
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, true)

	status, body, _ := s.do(t, fiber.MethodGet, "/user", "", "")
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "missing authorization header", body["message"])

	status, body, _ = s.do(t, fiber.MethodGet, "/user", "", "not-a-jwt")
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "invalid token", body["message"])

	open := newTestServer(t, false)
	status, _, _ = open.do(t, fiber.MethodGet, "/user", "", "")
	require.Equal(t, fiber.StatusOK, status)

	status, body, _ = open.do(t, fiber.MethodPost, "/user/create",
		`{"firstName":"A","lastName":"B","email":"a@example.com","teamId":1,"status":"ACTIVE"}`, "")
	require.Equal(t, fiber.StatusUnauthorized, status)
	require.Equal(t, "Unauthorized", body["message"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, true)

	status, body, _ := s.do(t, fiber.MethodGet, "/health/live", "", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "alive", body["status"])

	status, body, _ = s.do(t, fiber.MethodGet, "/health/ready", "", "")
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "ready", body["status"])

	s.do(t, fiber.MethodGet, "/user", "", "")
	requests, errs := s.metrics.Snapshot()
	var total int64
	for _, n := range requests {
		total += n
	}
	require.Equal(t, int64(3), total)
	require.Len(t, errs, 1)
	for key, n := range errs {
		require.True(t, strings.HasSuffix(key, "|GET|401"), key)
		require.Equal(t, int64(1), n)
	}
}

func TestUnknownPathsShareOneMetricsKey(t *testing.T) {
	s := newTestServer(t, true)
	for i := 0; i < 25; i++ {
		status, _, _ := s.do(t, fiber.MethodGet, "/nope-"+strconv.Itoa(i), "", "")
		require.Equal(t, fiber.StatusNotFound, status)
	}

	requests, errs := s.metrics.Snapshot()
	require.Len(t, requests, 1)
	require.Equal(t, int64(25), requests[observability.UnmatchedRoute+"|GET|404"])
	require.Equal(t, int64(25), errs[observability.UnmatchedRoute+"|GET|404"])
}

func TestUnsupportedMethodsAnswerNoSuchMethodWithoutToken(t *testing.T) {
	s := newTestServer(t, true)

	for _, tc := range []struct{ method, target string }{
		{fiber.MethodPost, "/user"},
		{fiber.MethodPatch, "/user/1"},
		{fiber.MethodGet, "/user/create"},
	} {
		status, body, _ := s.do(t, tc.method, tc.target, "", "")
		require.Equal(t, fiber.StatusNotFound, status, "%s %s", tc.method, tc.target)
		require.Equal(t, dispatch.MsgNoSuchMethod, body["message"])
	}

	status, _, _ := s.do(t, fiber.MethodDelete, "/user/1", "", "")
	require.Equal(t, fiber.StatusUnauthorized, status)
}
