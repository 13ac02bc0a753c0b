package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PgxPool is the subset of pgxpool.Pool the repository needs.
type PgxPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores leads in the relational database.
type PostgresRepository struct {
	pool PgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool PgxPool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Create inserts a new row. The unique (business_id, phone) index decides
// races between concurrent submissions.
func (r *PostgresRepository) Create(ctx context.Context, req *CreateLeadRequest) (*Lead, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO leads (id, business_id, name, phone, email, service_interest, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (business_id, phone) DO NOTHING
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		req.BusinessID,
		req.Name,
		req.Phone,
		req.Email,
		req.ServiceInterest,
		string(StatusNew),
	).Scan(&createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
			return nil, ErrDuplicateLead
		}
		return nil, fmt.Errorf("leads: insert failed: %w", err)
	}

	return &Lead{
		ID:              id.String(),
		BusinessID:      req.BusinessID,
		Name:            req.Name,
		Phone:           req.Phone,
		Email:           req.Email,
		ServiceInterest: req.ServiceInterest,
		Status:          StatusNew,
		CreatedAt:       createdAt,
	}, nil
}

// FindByPhone fetches the lead for (business, phone).
func (r *PostgresRepository) FindByPhone(ctx context.Context, businessID, phone string) (*Lead, error) {
	query := `
		SELECT id, business_id, name, phone, email, service_interest, status, created_at
		FROM leads
		WHERE business_id = $1 AND phone = $2
	`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, businessID, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// ListByBusiness returns leads newest first.
func (r *PostgresRepository) ListByBusiness(ctx context.Context, businessID string, filter ListLeadsFilter) ([]*Lead, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	filter = filter.normalized()

	query := `
		SELECT id, business_id, name, phone, email, service_interest, status, created_at
		FROM leads
		WHERE business_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, businessID, string(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	return out, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var (
		lead   Lead
		status string
	)
	if err := row.Scan(
		&lead.ID,
		&lead.BusinessID,
		&lead.Name,
		&lead.Phone,
		&lead.Email,
		&lead.ServiceInterest,
		&status,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	lead.Status = Status(status)
	return &lead, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
