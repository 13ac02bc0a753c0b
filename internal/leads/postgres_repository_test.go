package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var leadColumns = []string{"id", "business_id", "name", "phone", "email", "service_interest", "status", "created_at"}

func newMockRepository(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewPostgresRepository(mock), mock
}

func validRequest() *CreateLeadRequest {
	return &CreateLeadRequest{
		BusinessID:      "biz-1",
		Name:            "John Doe",
		Phone:           "5551234567",
		Email:           "j@x.com",
		ServiceInterest: "Veneers",
	}
}

func TestPostgresRepository_Create(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "biz-1", "John Doe", "5551234567", "j@x.com", "Veneers", "new").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	lead, err := repo.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Status != StatusNew || !lead.CreatedAt.Equal(now) {
		t.Fatalf("unexpected lead: %+v", lead)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateConflictIsDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "biz-1", "John Doe", "5551234567", "j@x.com", "Veneers", "new").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Create(context.Background(), validRequest()); !errors.Is(err, ErrDuplicateLead) {
		t.Fatalf("expected ErrDuplicateLead, got %v", err)
	}
}

func TestPostgresRepository_CreateUniqueViolationIsDuplicate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "biz-1", "John Doe", "5551234567", "j@x.com", "Veneers", "new").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "leads_business_id_phone_key"})

	if _, err := repo.Create(context.Background(), validRequest()); !errors.Is(err, ErrDuplicateLead) {
		t.Fatalf("expected ErrDuplicateLead, got %v", err)
	}
}

func TestPostgresRepository_CreateOtherError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "biz-1", "John Doe", "5551234567", "j@x.com", "Veneers", "new").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), validRequest())
	if err == nil || errors.Is(err, ErrDuplicateLead) {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
}

func TestPostgresRepository_FindByPhone(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("biz-1", "5551234567").
		WillReturnRows(pgxmock.NewRows(leadColumns).
			AddRow("lead-1", "biz-1", "John Doe", "5551234567", "j@x.com", "Veneers", "contacted", now))

	lead, err := repo.FindByPhone(context.Background(), "biz-1", "5551234567")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Name != "John Doe" || lead.Status != StatusContacted {
		t.Fatalf("unexpected lead: %+v", lead)
	}
}

func TestPostgresRepository_FindByPhoneNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("biz-1", "5550000000").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByPhone(context.Background(), "biz-1", "5550000000"); !errors.Is(err, ErrLeadNotFound) {
		t.Fatalf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestPostgresRepository_ListByBusiness(t *testing.T) {
	repo, mock := newMockRepository(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT id, business_id").
		WithArgs("biz-1", "new", 10, 0).
		WillReturnRows(pgxmock.NewRows(leadColumns).
			AddRow("lead-2", "biz-1", "Jane", "5552220000", "jane@x.com", "Botox", "new", now).
			AddRow("lead-1", "biz-1", "John", "5551110000", "john@x.com", DefaultServiceInterest, "new", now.Add(-time.Hour)))

	leads, err := repo.ListByBusiness(context.Background(), "biz-1", ListLeadsFilter{Status: StatusNew, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 2 || leads[0].ID != "lead-2" {
		t.Fatalf("unexpected leads: %+v", leads)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
