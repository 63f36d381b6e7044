package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// memoryTicketRepository is a mutex-guarded map store. It backs tests
// and development mode when no postgres DSN is configured, with the
// same guarded-update semantics as the SQL implementation.
type memoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
}

// NewMemoryTicketRepository instantiates the in-memory repository.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{tickets: make(map[string]domain.Ticket)}
}

func (r *memoryTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		if filter.ResidentName != nil && strings.TrimSpace(*filter.ResidentName) != "" {
			if ticket.ResidentName != strings.TrimSpace(*filter.ResidentName) {
				continue
			}
		}
		result = append(result, ticket)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *memoryTicketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != from {
		return nil, ErrNotFound
	}
	ticket.Status = to
	ticket.UpdatedAt = time.Now().UTC()
	r.tickets[id] = ticket
	return &ticket, nil
}

func (r *memoryTicketRepository) UpdateFeedback(ctx context.Context, id string, rating int, feedback string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != domain.TicketStatusResolved || ticket.Rating != 0 {
		return nil, ErrNotFound
	}
	ticket.Rating = rating
	ticket.Feedback = feedback
	ticket.UpdatedAt = time.Now().UTC()
	r.tickets[id] = ticket
	return &ticket, nil
}
