package leads

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRepository_Create(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	req := &CreateLeadRequest{
		BusinessID:      "biz-1",
		Name:            "Jane Smith",
		Email:           "jane@example.com",
		Phone:           "5559876543",
		ServiceInterest: "Veneers",
	}

	lead, err := repo.Create(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.ID == "" {
		t.Error("expected lead ID to be set")
	}
	if lead.Status != StatusNew {
		t.Errorf("expected status new, got %s", lead.Status)
	}
	if lead.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestRepository_CreateRejectsDuplicatePhone(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	req := &CreateLeadRequest{BusinessID: "biz-1", Name: "Jane", Phone: "5551234567", Email: "j@x.com"}

	if _, err := repo.Create(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := repo.Create(ctx, req); !errors.Is(err, ErrDuplicateLead) {
		t.Fatalf("expected ErrDuplicateLead, got %v", err)
	}

	other := *req
	other.BusinessID = "biz-2"
	if _, err := repo.Create(ctx, &other); err != nil {
		t.Fatalf("same phone at another business should be allowed: %v", err)
	}
}

func TestRepository_CreateValidates(t *testing.T) {
	repo := NewInMemoryRepository()
	cases := map[string]*CreateLeadRequest{
		"missing business": {Name: "A", Phone: "5551234567", Email: "a@b.co"},
		"missing name":     {BusinessID: "b", Phone: "5551234567", Email: "a@b.co"},
		"missing email":    {BusinessID: "b", Name: "A", Phone: "5551234567"},
	}
	for name, req := range cases {
		if _, err := repo.Create(context.Background(), req); !errors.Is(err, ErrInvalidLead) {
			t.Errorf("%s: expected ErrInvalidLead, got %v", name, err)
		}
	}
}

func TestRepository_FindByPhoneNotFound(t *testing.T) {
	repo := NewInMemoryRepository()
	if _, err := repo.FindByPhone(context.Background(), "biz-1", "5550000000"); err != ErrLeadNotFound {
		t.Errorf("expected ErrLeadNotFound, got %v", err)
	}
}

func TestRepository_ConcurrentCreateKeepsOneRow(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		dupes   int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, &CreateLeadRequest{BusinessID: "biz-1", Name: "Jane", Phone: "5551234567", Email: "j@x.com"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrDuplicateLead):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || dupes != 19 {
		t.Fatalf("expected 1 created and 19 duplicates, got %d and %d", created, dupes)
	}
}
