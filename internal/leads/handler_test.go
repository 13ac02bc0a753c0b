package leads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/leadchat/pkg/logging"
)

func seedLead(t *testing.T, repo Repository, businessID, name, phone string) *Lead {
	t.Helper()
	lead, err := repo.Create(context.Background(), &CreateLeadRequest{
		BusinessID:      businessID,
		Name:            name,
		Phone:           phone,
		Email:           "lead@example.com",
		ServiceInterest: DefaultServiceInterest,
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return lead
}

func serveList(handler *Handler, target string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Get("/admin/businesses/{businessID}/leads", handler.ListLeads)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestListLeads_ScopedToBusiness(t *testing.T) {
	repo := NewInMemoryRepository()
	seedLead(t, repo, "biz-1", "Jane Smith", "5551110000")
	seedLead(t, repo, "biz-1", "John Doe", "5552220000")
	seedLead(t, repo, "biz-2", "Other Person", "5553330000")

	w := serveList(NewHandler(repo, logging.Default()), "/admin/businesses/biz-1/leads")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Fatalf("expected 2 leads, got %d", resp.Count)
	}
	if resp.Leads[0].Name != "John Doe" {
		t.Errorf("expected newest lead first, got %s", resp.Leads[0].Name)
	}
	if resp.Limit != 50 {
		t.Errorf("expected default limit 50, got %d", resp.Limit)
	}
}

func TestListLeads_Pagination(t *testing.T) {
	repo := NewInMemoryRepository()
	seedLead(t, repo, "biz-1", "A One", "5550000001")
	seedLead(t, repo, "biz-1", "B Two", "5550000002")
	seedLead(t, repo, "biz-1", "C Three", "5550000003")

	w := serveList(NewHandler(repo, nil), "/admin/businesses/biz-1/leads?limit=1&offset=1")
	var resp ListLeadsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 1 || resp.Leads[0].Name != "B Two" {
		t.Fatalf("unexpected page: %+v", resp.Leads)
	}
}

func TestListLeads_InvalidStatus(t *testing.T) {
	w := serveList(NewHandler(NewInMemoryRepository(), nil), "/admin/businesses/biz-1/leads?status=bogus")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

type failingRepository struct{}

func (failingRepository) Create(context.Context, *CreateLeadRequest) (*Lead, error) {
	return nil, errors.New("boom")
}

func (failingRepository) FindByPhone(context.Context, string, string) (*Lead, error) {
	return nil, errors.New("boom")
}

func (failingRepository) ListByBusiness(context.Context, string, ListLeadsFilter) ([]*Lead, error) {
	return nil, errors.New("boom")
}

func TestListLeads_RepositoryError(t *testing.T) {
	w := serveList(NewHandler(failingRepository{}, nil), "/admin/businesses/biz-1/leads")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected %d, got %d", http.StatusInternalServerError, w.Code)
	}
}
