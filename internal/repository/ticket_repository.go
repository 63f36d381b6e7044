package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// ErrNotFound reports that no ticket row matched the lookup, or that a
// guarded update found the row in a different state than expected.
var ErrNotFound = errors.New("ticket not found")

// TicketFilter captures listing parameters. Results are always ordered
// by creation time, newest first.
type TicketFilter struct {
	ResidentName *string
	Limit        int
}

// TicketRepository encapsulates ticket persistence. Point updates are
// guarded: they only apply when the stored record still satisfies the
// precondition baked into the statement, so concurrent mutations of the
// same ticket cannot interleave field writes.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	// UpdateStatus transitions a ticket from one status to another in a
	// single atomic statement. ErrNotFound means no row was in the
	// expected state.
	UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (*domain.Ticket, error)
	// UpdateFeedback records rating and feedback together, only when the
	// ticket is resolved and still unrated.
	UpdateFeedback(ctx context.Context, id string, rating int, feedback string) (*domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, resident_name, resident_age, description, category, priority,
               assigned_to, status, alert_level, image, location, rating, feedback,
               created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, resident_name, resident_age, description, category, priority,
                             assigned_to, status, alert_level, image, location, rating, feedback,
                             created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`
	_, err := r.pool.Exec(ctx, query,
		ticket.ID,
		ticket.ResidentName,
		ticket.ResidentAge,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.Status,
		ticket.AlertLevel,
		ticket.Image,
		ticket.Location,
		ticket.Rating,
		ticket.Feedback,
		ticket.CreatedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ResidentName != nil && strings.TrimSpace(*filter.ResidentName) != "" {
		args = append(args, strings.TrimSpace(*filter.ResidentName))
		clauses = append(clauses, fmt.Sprintf("resident_name=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query = fmt.Sprintf("%s LIMIT %d", query, filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TicketStatus) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET status=$3, updated_at=NOW()
        WHERE id=$1 AND status=$2
        RETURNING %s`, ticketColumns)
	return r.fetchSingle(ctx, query, id, from, to)
}

func (r *ticketRepository) UpdateFeedback(ctx context.Context, id string, rating int, feedback string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`
        UPDATE tickets SET rating=$2, feedback=$3, updated_at=NOW()
        WHERE id=$1 AND status=$4 AND rating=0
        RETURNING %s`, ticketColumns)
	return r.fetchSingle(ctx, query, id, rating, feedback, domain.TicketStatusResolved)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticket.ID,
		&ticket.ResidentName,
		&ticket.ResidentAge,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.AssignedTo,
		&ticket.Status,
		&ticket.AlertLevel,
		&ticket.Image,
		&ticket.Location,
		&ticket.Rating,
		&ticket.Feedback,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.ResidentName,
			&ticket.ResidentAge,
			&ticket.Description,
			&ticket.Category,
			&ticket.Priority,
			&ticket.AssignedTo,
			&ticket.Status,
			&ticket.AlertLevel,
			&ticket.Image,
			&ticket.Location,
			&ticket.Rating,
			&ticket.Feedback,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
