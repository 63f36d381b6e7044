package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/maintenance-service/internal/actor"
	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/classify"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
)

type ticketEnvelope struct {
	Data domain.Ticket `json:"data"`
}

type ticketListEnvelope struct {
	Data []domain.Ticket `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestApp(t *testing.T) (*fiber.App, *events.Hub) {
	t.Helper()
	logger := zap.NewNop()
	hub := events.NewHub(16, logger)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repository.NewMemoryTicketRepository(),
		Classifier:  classify.NewEngine(),
		Broadcaster: hub,
	})

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Tickets: handlers.NewTicketsHandler(ticketService),
		Stream:  handlers.NewStreamHandler(hub, time.Second, logger),
		ActorMiddleware: actor.NewMiddleware(
			actor.NewTokenManager("test-secret"),
		),
	})
	return app, hub
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func createTicket(t *testing.T, app *fiber.App, body map[string]any) domain.Ticket {
	t.Helper()
	status, raw := doJSON(t, app, "POST", "/api/tickets", body)
	require.Equal(t, fiber.StatusCreated, status, string(raw))
	var envelope ticketEnvelope
	require.NoError(t, json.Unmarshal(raw, &envelope))
	return envelope.Data
}

func TestCreateTicketEndpoint(t *testing.T) {
	t.Run("valid report is classified", func(t *testing.T) {
		app, _ := newTestApp(t)

		ticket := createTicket(t, app, map[string]any{
			"residentName": "Anita",
			"residentAge":  40,
			"description":  "water leak in kitchen",
		})

		assert.NotEmpty(t, ticket.ID)
		assert.Equal(t, domain.CategoryPlumbing, ticket.Category)
		assert.Equal(t, domain.PriorityHigh, ticket.Priority)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.Equal(t, domain.LocationNotTagged, ticket.Location)
	})

	t.Run("missing description is a validation failure", func(t *testing.T) {
		app, _ := newTestApp(t)

		status, raw := doJSON(t, app, "POST", "/api/tickets", map[string]any{
			"residentName": "Anita",
		})

		assert.Equal(t, fiber.StatusBadRequest, status)
		var envelope errorEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "VALIDATION_FAILED", envelope.Error.Code)
	})

	t.Run("resident name falls back to actor header", func(t *testing.T) {
		app, _ := newTestApp(t)

		payload, err := json.Marshal(map[string]any{"description": "bulb out in corridor"})
		require.NoError(t, err)
		req := httptest.NewRequest("POST", "/api/tickets", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Actor-Name", "Ravi")

		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		var envelope ticketEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "Ravi", envelope.Data.ResidentName)
	})
}

func TestListTicketsEndpoint(t *testing.T) {
	app, _ := newTestApp(t)
	createTicket(t, app, map[string]any{"residentName": "Anita", "description": "leak"})
	createTicket(t, app, map[string]any{"residentName": "Ravi", "description": "bulb out"})

	t.Run("lists all tickets", func(t *testing.T) {
		status, raw := doJSON(t, app, "GET", "/api/tickets", nil)

		require.Equal(t, fiber.StatusOK, status)
		var envelope ticketListEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Len(t, envelope.Data, 2)
	})

	t.Run("filters by resident name", func(t *testing.T) {
		status, raw := doJSON(t, app, "GET", "/api/tickets?residentName=Anita", nil)

		require.Equal(t, fiber.StatusOK, status)
		var envelope ticketListEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		require.Len(t, envelope.Data, 1)
		assert.Equal(t, "Anita", envelope.Data[0].ResidentName)
	})
}

func TestStatusEndpoint(t *testing.T) {
	t.Run("resolves an open ticket", func(t *testing.T) {
		app, hub := newTestApp(t)
		sub := hub.Subscribe(events.TopicTickets)
		defer sub.Close()
		ticket := createTicket(t, app, map[string]any{"residentName": "Anita", "description": "leak"})

		status, raw := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/status", map[string]any{
			"status": "Resolved",
		})

		require.Equal(t, fiber.StatusOK, status)
		var envelope ticketEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, domain.TicketStatusResolved, envelope.Data.Status)

		created := <-sub.C
		assert.Equal(t, events.EventTicketCreated, created.Type)
		updated := <-sub.C
		assert.Equal(t, events.EventTicketUpdated, updated.Type)
		assert.Equal(t, domain.TicketStatusResolved, updated.Ticket.Status)
	})

	t.Run("unknown id is 404 and not broadcast", func(t *testing.T) {
		app, hub := newTestApp(t)
		sub := hub.Subscribe(events.TopicTickets)
		defer sub.Close()

		status, raw := doJSON(t, app, "PATCH", "/api/tickets/nope/status", map[string]any{
			"status": "Resolved",
		})

		assert.Equal(t, fiber.StatusNotFound, status)
		var envelope errorEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "NOT_FOUND", envelope.Error.Code)

		select {
		case event := <-sub.C:
			t.Fatalf("unexpected broadcast %q", event.Type)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("re-resolving is 409", func(t *testing.T) {
		app, _ := newTestApp(t)
		ticket := createTicket(t, app, map[string]any{"residentName": "Anita", "description": "leak"})
		status, _ := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/status", map[string]any{"status": "Resolved"})
		require.Equal(t, fiber.StatusOK, status)

		status, raw := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/status", map[string]any{"status": "Resolved"})

		assert.Equal(t, fiber.StatusConflict, status)
		var envelope errorEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, "CONFLICT", envelope.Error.Code)
	})
}

func TestFeedbackEndpoint(t *testing.T) {
	resolved := func(t *testing.T, app *fiber.App) domain.Ticket {
		t.Helper()
		ticket := createTicket(t, app, map[string]any{"residentName": "Anita", "description": "leak"})
		status, _ := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/status", map[string]any{"status": "Resolved"})
		require.Equal(t, fiber.StatusOK, status)
		return ticket
	}

	t.Run("records feedback on a resolved ticket", func(t *testing.T) {
		app, _ := newTestApp(t)
		ticket := resolved(t, app)

		status, raw := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/feedback", map[string]any{
			"rating":   5,
			"feedback": "Great job",
		})

		require.Equal(t, fiber.StatusOK, status)
		var envelope ticketEnvelope
		require.NoError(t, json.Unmarshal(raw, &envelope))
		assert.Equal(t, 5, envelope.Data.Rating)
		assert.Equal(t, "Great job", envelope.Data.Feedback)
	})

	t.Run("second submission is 409", func(t *testing.T) {
		app, _ := newTestApp(t)
		ticket := resolved(t, app)
		status, _ := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/feedback", map[string]any{"rating": 5, "feedback": "Great job"})
		require.Equal(t, fiber.StatusOK, status)

		status, _ = doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/feedback", map[string]any{"rating": 2, "feedback": "actually no"})

		assert.Equal(t, fiber.StatusConflict, status)
	})

	t.Run("open ticket is 409", func(t *testing.T) {
		app, _ := newTestApp(t)
		ticket := createTicket(t, app, map[string]any{"residentName": "Anita", "description": "leak"})

		status, _ := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/feedback", map[string]any{"rating": 4, "feedback": "fast"})

		assert.Equal(t, fiber.StatusConflict, status)
	})

	t.Run("rating out of range is 400", func(t *testing.T) {
		app, _ := newTestApp(t)
		ticket := resolved(t, app)

		status, _ := doJSON(t, app, "PATCH", "/api/tickets/"+ticket.ID+"/feedback", map[string]any{"rating": 9, "feedback": "nope"})

		assert.Equal(t, fiber.StatusBadRequest, status)
	})
}
