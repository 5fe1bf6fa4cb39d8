package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/triage-dashboard/internal/config"
	"github.com/spec-kit/triage-dashboard/internal/events"
	"github.com/spec-kit/triage-dashboard/internal/gateway"
	"github.com/spec-kit/triage-dashboard/internal/observability"
	"github.com/spec-kit/triage-dashboard/internal/repository"
	"github.com/spec-kit/triage-dashboard/internal/service"
	"github.com/spec-kit/triage-dashboard/internal/store"
	"github.com/spec-kit/triage-dashboard/internal/worker"
	"github.com/spec-kit/triage-dashboard/internal/workflow"
)

const upstreamTickets = `[
  {"id":1,"ticketNumber":"T-100","subject":"Pod stuck","status":"OPEN","priority":"HIGH","assignedTeamName":null,
   "requesterName":"John Doe","requesterEmail":"john@acme.io","createdAt":"2025-03-04T10:00:00",
   "teams":[{"team":"Networking","confidence":82,"rankOrder":1}]},
  {"id":2,"ticketNumber":"T-101","subject":"PVC pending","status":"RESOLVED","priority":"LOW","assignedTeamName":"Storage",
   "requesterName":"Ann Lee","requesterEmail":"ann@acme.io"}
]`

type upstream struct {
	failReassign atomic.Bool
	reassigns    atomic.Int32
	lastBody     atomic.Value
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/api/tickets":
		_, _ = io.WriteString(w, upstreamTickets)
	case r.URL.Path == "/api/teams":
		_, _ = io.WriteString(w, `[{"id":1,"name":"Networking"},{"id":2,"name":"Storage"}]`)
	case strings.HasSuffix(r.URL.Path, "/activities/reassign"):
		u.reassigns.Add(1)
		body, _ := io.ReadAll(r.Body)
		u.lastBody.Store(string(body))
		if u.failReassign.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":77,"humanAssignedTeam":"Networking","createdAt":"2025-03-04T11:00:00"}`)
	case strings.HasSuffix(r.URL.Path, "/activities"):
		_, _ = io.WriteString(w, `[{"id":5,"aiAssignedTeam":"","humanAssignedTeam":"Storage","aiSuggestedWrong":false,"teamReview":""}]`)
	default:
		http.NotFound(w, r)
	}
}

type testServer struct {
	app      *fiber.App
	upstream *upstream
	metrics  *observability.Metrics
}

type pingerFunc func(context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, journalPing handlers.Pinger) *testServer {
	t.Helper()
	up := &upstream{}
	server := httptest.NewServer(up)
	t.Cleanup(server.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	journal := repository.NewMemoryReassignmentJournal()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, journal, metrics, logger))

	client := gateway.NewClient(config.GatewayConfig{BaseURL: server.URL + "/api", TimeoutSeconds: 2}, logger, metrics)
	tickets := store.NewTicketStore(client, nil)
	dashboard := service.NewDashboardService(service.DashboardDependencies{
		Tickets:    tickets,
		Activities: client,
		Journal:    journal,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	teams := service.NewTeamService(client, nil, []string{"Storage"}, logger)
	reassignment := workflow.NewReassignment(tickets, client, dispatcher, logger)

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:    handlers.NewHealthHandler("triage-dashboard", "test", journalPing, nil),
		Dashboard: handlers.NewDashboardHandler(dashboard, teams),
		Reassign:  handlers.NewReassignHandler(reassignment),
	})
	return &testServer{app: app, upstream: up, metrics: metrics}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

type dashboardBody struct {
	Tickets []struct {
		TicketNumber  string  `json:"ticket_number"`
		Status        string  `json:"status"`
		AssignedTeam  *string `json:"assigned_team"`
		TopSuggestion *struct {
			Tier string `json:"tier"`
		} `json:"top_suggestion"`
	} `json:"tickets"`
	Stats struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
		Solved  int `json:"solved"`
	} `json:"stats"`
	Filter struct {
		Tab    string `json:"tab"`
		Search string `json:"search"`
	} `json:"filter"`
}

type modalBody struct {
	State        string `json:"state"`
	TicketNumber string `json:"ticket_number"`
	Form         struct {
		HumanAssignedTeam string `json:"human_assigned_team"`
		TeamReview        string `json:"team_review"`
	} `json:"form"`
	LastError string `json:"last_error"`
}

func loadTickets(t *testing.T, s *testServer) {
	t.Helper()
	status, env := s.do(t, fiber.MethodPost, "/api/dashboard/tickets/load", `{"team":""}`)
	require.Equal(t, fiber.StatusOK, status)
	result := decodeData[struct {
		Applied bool `json:"applied"`
		Count   int  `json:"count"`
	}](t, env)
	require.True(t, result.Applied)
	require.Equal(t, 2, result.Count)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	status, _ := s.do(t, fiber.MethodGet, "/health/live", "")
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, fiber.MethodGet, "/health/ready", "")
	assert.Equal(t, fiber.StatusOK, status)

	down := newTestServer(t, pingerFunc(func(context.Context) error { return errors.New("down") }))
	status, env := down.do(t, fiber.MethodGet, "/health/ready", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", env.Error.Code)
}

func TestDashboardLoadAndFilter(t *testing.T) {
	s := newTestServer(t, nil)
	loadTickets(t, s)

	status, env := s.do(t, fiber.MethodGet, "/api/dashboard", "")
	require.Equal(t, fiber.StatusOK, status)
	view := decodeData[dashboardBody](t, env)
	require.Len(t, view.Tickets, 2)
	assert.Equal(t, "Open", view.Tickets[0].Status)
	require.NotNil(t, view.Tickets[0].TopSuggestion)
	assert.Equal(t, "high", view.Tickets[0].TopSuggestion.Tier)
	assert.Equal(t, 2, view.Stats.Total)
	assert.Equal(t, 1, view.Stats.Solved)

	status, env = s.do(t, fiber.MethodPut, "/api/dashboard/filter", `{"tab":"open","search":"JOHN"}`)
	require.Equal(t, fiber.StatusOK, status)
	view = decodeData[dashboardBody](t, env)
	require.Len(t, view.Tickets, 1)
	assert.Equal(t, "T-100", view.Tickets[0].TicketNumber)
	assert.Equal(t, "Open", view.Filter.Tab)

	status, env = s.do(t, fiber.MethodPut, "/api/dashboard/filter", `{"tab":"archived"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestSelectionAndReplies(t *testing.T) {
	s := newTestServer(t, nil)
	loadTickets(t, s)

	status, env := s.do(t, fiber.MethodGet, "/api/dashboard/selection", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "SELECTION_REQUIRED", env.Error.Code)

	status, env = s.do(t, fiber.MethodPut, "/api/dashboard/selection/T-404", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, _ = s.do(t, fiber.MethodPut, "/api/dashboard/selection/T-100", "")
	require.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/selection/replies", `{"text":"  thanks  "}`)
	require.Equal(t, fiber.StatusCreated, status)
	msg := decodeData[struct {
		By   string `json:"by"`
		Text string `json:"text"`
	}](t, env)
	assert.Equal(t, "Agent", msg.By)
	assert.Equal(t, "thanks", msg.Text)

	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/selection/replies", `{"text":"   "}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.do(t, fiber.MethodGet, "/api/dashboard/selection", "")
	require.Equal(t, fiber.StatusOK, status)
	detail := decodeData[struct {
		Conversation []struct {
			Text string `json:"text"`
		} `json:"conversation"`
	}](t, env)
	require.Len(t, detail.Conversation, 1)

	status, env = s.do(t, fiber.MethodGet, "/api/dashboard/selection/activities", "")
	require.Equal(t, fiber.StatusOK, status)
	activities := decodeData[[]struct {
		ID int64 `json:"id"`
	}](t, env)
	require.Len(t, activities, 1)

	status, _ = s.do(t, fiber.MethodDelete, "/api/dashboard/selection", "")
	assert.Equal(t, fiber.StatusNoContent, status)
}

func TestSelectionSurvivesLaterRequests(t *testing.T) {
	s := newTestServer(t, nil)
	loadTickets(t, s)

	status, _ := s.do(t, fiber.MethodPut, "/api/dashboard/selection/T-100", "")
	require.Equal(t, fiber.StatusOK, status)

	status, _ = s.do(t, fiber.MethodPut, "/api/dashboard/selection/Z-999", "")
	require.Equal(t, fiber.StatusNotFound, status)
	status, _ = s.do(t, fiber.MethodGet, "/api/dashboard/teams", "")
	require.Equal(t, fiber.StatusOK, status)

	status, env := s.do(t, fiber.MethodGet, "/api/dashboard/selection", "")
	require.Equal(t, fiber.StatusOK, status)
	detail := decodeData[struct {
		TicketNumber string `json:"ticket_number"`
	}](t, env)
	assert.Equal(t, "T-100", detail.TicketNumber)

	status, _ = s.do(t, fiber.MethodPost, "/api/dashboard/selection/replies", `{"text":"on it"}`)
	assert.Equal(t, fiber.StatusCreated, status)
}

func TestReassignHappyPath(t *testing.T) {
	s := newTestServer(t, nil)
	loadTickets(t, s)

	status, env := s.do(t, fiber.MethodPost, "/api/dashboard/reassign/open", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "SELECTION_REQUIRED", env.Error.Code)

	status, _ = s.do(t, fiber.MethodPut, "/api/dashboard/selection/T-100", "")
	require.Equal(t, fiber.StatusOK, status)
	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/reassign/open", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "open", decodeData[modalBody](t, env).State)

	status, _ = s.do(t, fiber.MethodPut, "/api/dashboard/reassign/form", `{"human_assigned_team":"Networking"}`)
	require.Equal(t, fiber.StatusOK, status)

	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/reassign/submit", "")
	require.Equal(t, fiber.StatusOK, status)
	result := decodeData[struct {
		Ticket struct {
			AssignedTeam *string `json:"assigned_team"`
		} `json:"ticket"`
		Activity struct {
			ID int64 `json:"id"`
		} `json:"activity"`
		Modal modalBody `json:"modal"`
	}](t, env)
	require.NotNil(t, result.Ticket.AssignedTeam)
	assert.Equal(t, "Networking", *result.Ticket.AssignedTeam)
	assert.Equal(t, int64(77), result.Activity.ID)
	assert.Equal(t, "closed", result.Modal.State)

	assert.Equal(t, int32(1), s.upstream.reassigns.Load())
	assert.JSONEq(t,
		`{"aiAssignedTeam":"","humanAssignedTeam":"Networking","aiSuggestedWrong":false,"teamReview":""}`,
		s.upstream.lastBody.Load().(string))

	status, env = s.do(t, fiber.MethodGet, "/api/dashboard/selection/journal", "")
	require.Equal(t, fiber.StatusOK, status)
	journal := decodeData[[]struct {
		Outcome    string `json:"outcome"`
		ActivityID *int64 `json:"activity_id"`
	}](t, env)
	require.Len(t, journal, 1)
	assert.Equal(t, "confirmed", journal[0].Outcome)
	assert.Equal(t, int64(1), s.metrics.Snapshot()["outcome|ticket_reassigned"])
}

func TestReassignValidationAndFailure(t *testing.T) {
	s := newTestServer(t, nil)
	loadTickets(t, s)
	status, _ := s.do(t, fiber.MethodPut, "/api/dashboard/selection/T-100", "")
	require.Equal(t, fiber.StatusOK, status)
	status, _ = s.do(t, fiber.MethodPost, "/api/dashboard/reassign/open", "")
	require.Equal(t, fiber.StatusOK, status)

	status, env := s.do(t, fiber.MethodPost, "/api/dashboard/reassign/submit", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Zero(t, s.upstream.reassigns.Load())

	s.upstream.failReassign.Store(true)
	status, _ = s.do(t, fiber.MethodPut, "/api/dashboard/reassign/form", `{"human_assigned_team":"Networking","team_review":"dns"}`)
	require.Equal(t, fiber.StatusOK, status)
	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/reassign/submit", "")
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "SUBMISSION_FAILED", env.Error.Code)

	status, env = s.do(t, fiber.MethodGet, "/api/dashboard/reassign", "")
	require.Equal(t, fiber.StatusOK, status)
	modal := decodeData[modalBody](t, env)
	assert.Equal(t, "open", modal.State)
	assert.Equal(t, "Networking", modal.Form.HumanAssignedTeam)
	assert.Equal(t, "dns", modal.Form.TeamReview)
	assert.NotEmpty(t, modal.LastError)

	status, env = s.do(t, fiber.MethodGet, "/api/dashboard/selection", "")
	require.Equal(t, fiber.StatusOK, status)
	ticket := decodeData[struct {
		AssignedTeam *string `json:"assigned_team"`
	}](t, env)
	assert.Nil(t, ticket.AssignedTeam)

	status, env = s.do(t, fiber.MethodDelete, "/api/dashboard/reassign", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "closed", decodeData[modalBody](t, env).State)

	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/reassign/submit", "")
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, "MODAL_CLOSED", env.Error.Code)
}

func TestTeams(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, fiber.MethodGet, "/api/dashboard/teams", "")
	require.Equal(t, fiber.StatusOK, status)
	teams := decodeData[struct {
		Teams []struct {
			Name string `json:"name"`
		} `json:"teams"`
		Source string `json:"source"`
	}](t, env)
	assert.Equal(t, service.TeamSourceGateway, teams.Source)
	assert.Len(t, teams.Teams, 2)
}

func TestUnknownRouteAndBadPayload(t *testing.T) {
	s := newTestServer(t, nil)

	status, env := s.do(t, fiber.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, fiber.StatusNotFound, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = s.do(t, fiber.MethodPut, "/api/dashboard/filter", `{"tab":`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	status, env = s.do(t, fiber.MethodPost, "/api/dashboard/selection/replies", `{}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "text")
}

func TestRequestIDEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(fiber.MethodGet, "/health/live", nil)
	req.Header.Set(requestIDHeader, "req-123")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "req-123", resp.Header.Get(requestIDHeader))
}
