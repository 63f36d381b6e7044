package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

func seedTicket(t *testing.T, repo TicketRepository, id, resident string, createdAt time.Time, status domain.TicketStatus) {
	t.Helper()
	err := repo.Create(context.Background(), &domain.Ticket{
		ID:           id,
		ResidentName: resident,
		Description:  "test incident",
		Category:     domain.CategoryGeneral,
		Priority:     domain.PriorityMedium,
		AssignedTo:   "General Maintenance Pool",
		Status:       status,
		AlertLevel:   domain.AlertNormal,
		Location:     domain.LocationNotTagged,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	require.NoError(t, err)
}

func TestMemoryRepositoryGet(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	now := time.Now().UTC()
	seedTicket(t, repo, "t1", "Anita", now, domain.TicketStatusOpen)

	t.Run("returns stored ticket", func(t *testing.T) {
		ticket, err := repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Anita", ticket.ResidentName)
	})

	t.Run("returned ticket is a copy", func(t *testing.T) {
		ticket, err := repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		ticket.ResidentName = "mutated"

		again, err := repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Anita", again.ResidentName)
	})

	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryRepositoryList(t *testing.T) {
	repo := NewMemoryTicketRepository()
	ctx := context.Background()
	base := time.Now().UTC()
	seedTicket(t, repo, "t1", "Anita", base.Add(-2*time.Minute), domain.TicketStatusOpen)
	seedTicket(t, repo, "t2", "Ravi", base.Add(-time.Minute), domain.TicketStatusOpen)
	seedTicket(t, repo, "t3", "Anita", base, domain.TicketStatusOpen)

	t.Run("orders newest first", func(t *testing.T) {
		tickets, err := repo.List(ctx, TicketFilter{})
		require.NoError(t, err)
		require.Len(t, tickets, 3)
		assert.Equal(t, "t3", tickets[0].ID)
		assert.Equal(t, "t2", tickets[1].ID)
		assert.Equal(t, "t1", tickets[2].ID)
	})

	t.Run("filters by resident", func(t *testing.T) {
		name := "Anita"
		tickets, err := repo.List(ctx, TicketFilter{ResidentName: &name})
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, "t3", tickets[0].ID)
		assert.Equal(t, "t1", tickets[1].ID)
	})

	t.Run("applies limit", func(t *testing.T) {
		tickets, err := repo.List(ctx, TicketFilter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "t3", tickets[0].ID)
	})
}

func TestMemoryRepositoryGuardedUpdates(t *testing.T) {
	ctx := context.Background()

	t.Run("status update applies only from expected state", func(t *testing.T) {
		repo := NewMemoryTicketRepository()
		seedTicket(t, repo, "t1", "Anita", time.Now().UTC(), domain.TicketStatusOpen)

		updated, err := repo.UpdateStatus(ctx, "t1", domain.TicketStatusOpen, domain.TicketStatusResolved)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusResolved, updated.Status)

		_, err = repo.UpdateStatus(ctx, "t1", domain.TicketStatusOpen, domain.TicketStatusResolved)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("feedback update requires resolved and unrated", func(t *testing.T) {
		repo := NewMemoryTicketRepository()
		seedTicket(t, repo, "t1", "Anita", time.Now().UTC(), domain.TicketStatusOpen)

		_, err := repo.UpdateFeedback(ctx, "t1", 5, "great")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = repo.UpdateStatus(ctx, "t1", domain.TicketStatusOpen, domain.TicketStatusResolved)
		require.NoError(t, err)

		updated, err := repo.UpdateFeedback(ctx, "t1", 5, "great")
		require.NoError(t, err)
		assert.Equal(t, 5, updated.Rating)
		assert.Equal(t, "great", updated.Feedback)

		_, err = repo.UpdateFeedback(ctx, "t1", 1, "again")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
