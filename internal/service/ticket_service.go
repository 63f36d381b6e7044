package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/maintenance-service/internal/classify"
	"github.com/spec-kit/maintenance-service/internal/domain"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/repository"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util"
)

// DefaultResidentAge is assumed when a report omits the reporter's age.
const DefaultResidentAge = 30

// TicketService coordinates ticket creation and mutation. Every
// successful write is followed by a broadcast of the full record;
// broadcast failures never fail the originating mutation.
type TicketService struct {
	tickets     repository.TicketRepository
	classifier  *classify.Engine
	broadcaster events.Publisher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	Classifier  *classify.Engine
	Broadcaster events.Publisher
}

// TicketCreateInput describes the ticket creation payload.
type TicketCreateInput struct {
	ResidentName string
	ResidentAge  int
	Description  string
	Image        string
	Location     string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	ResidentName *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		classifier:  deps.Classifier,
		broadcaster: deps.Broadcaster,
	}
}

// Create validates the report, classifies it and persists the new
// ticket, then broadcasts the full record to connected viewers.
func (s *TicketService) Create(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	name := strings.TrimSpace(input.ResidentName)
	description := strings.TrimSpace(input.Description)
	if name == "" {
		return nil, apperrors.NewValidationError("residentName required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	age := input.ResidentAge
	if age <= 0 {
		age = DefaultResidentAge
	}
	location := strings.TrimSpace(input.Location)
	if location == "" {
		location = domain.LocationNotTagged
	}

	result := s.classifier.Classify(description, age)
	now := time.Now().UTC()
	ticket := &domain.Ticket{
		ID:           uuid.NewString(),
		ResidentName: name,
		ResidentAge:  age,
		Description:  description,
		Category:     result.Category,
		Priority:     result.Priority,
		AssignedTo:   result.AssignedTo,
		Status:       domain.TicketStatusOpen,
		AlertLevel:   result.AlertLevel,
		Image:        input.Image,
		Location:     location,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	s.publish(ctx, events.EventTicketCreated, ticket)
	return ticket, nil
}

// SetStatus applies a status transition. Only Open to Resolved is
// modeled; anything else, including re-resolving, is a conflict.
func (s *TicketService) SetStatus(ctx context.Context, id string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if newStatus != domain.TicketStatusOpen && newStatus != domain.TicketStatusResolved {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	updated, err := s.tickets.UpdateStatus(ctx, id, ticket.Status, newStatus)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// lost the race to a concurrent transition
			return nil, apperrors.NewConflict("ticket status changed concurrently", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	s.publish(ctx, events.EventTicketUpdated, updated)
	return updated, nil
}

// SetFeedback records rating and feedback together, once, after the
// ticket has been resolved.
func (s *TicketService) SetFeedback(ctx context.Context, id string, rating int, feedback string) (*domain.Ticket, error) {
	feedback = strings.TrimSpace(feedback)
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": rating})
	}
	if feedback == "" {
		return nil, apperrors.NewValidationError("feedback required", nil)
	}

	ticket, err := s.getTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusResolved {
		return nil, apperrors.NewConflict("feedback requires a resolved ticket", map[string]any{"status": ticket.Status})
	}
	if ticket.Rated() {
		return nil, apperrors.NewConflict("feedback already submitted", map[string]any{"rating": ticket.Rating})
	}

	updated, err := s.tickets.UpdateFeedback(ctx, id, rating, feedback)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewConflict("feedback already submitted", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	s.publish(ctx, events.EventTicketUpdated, updated)
	return updated, nil
}

// List returns tickets newest-first, optionally restricted to one resident.
func (s *TicketService) List(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{ResidentName: filter.ResidentName})
	if err != nil {
		return nil, apperrors.NewStoreUnavailable(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

func (s *TicketService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.NewStoreUnavailable(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticket *domain.Ticket) {
	if s.broadcaster == nil {
		return
	}
	_ = s.broadcaster.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Topic:     events.TopicTickets,
		Timestamp: time.Now().UTC(),
		Ticket:    *ticket,
	})
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:     {domain.TicketStatusResolved},
	domain.TicketStatusResolved: {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
