package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/leadchat/pkg/logging"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Handler serves the admin lead listing.
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListLeadsResponse is one page of a business's leads, newest first.
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /admin/businesses/{businessID}/leads. Out-of-range
// paging values fall back to the defaults; an unknown status is a 400.
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	businessID := chi.URLParam(r, "businessID")
	if businessID == "" {
		writeError(w, http.StatusBadRequest, "missing business id")
		return
	}

	filter := pageFilter(r.URL.Query())
	leads, err := h.repo.ListByBusiness(r.Context(), businessID, filter)
	if err != nil {
		if errors.Is(err, ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
		h.logger.Error("failed to list leads", "business_id", businessID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list leads")
		return
	}
	if leads == nil {
		leads = []*Lead{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Offset: filter.Offset,
		Limit:  filter.Limit,
	})
}

func pageFilter(q url.Values) ListLeadsFilter {
	filter := ListLeadsFilter{Limit: defaultPageSize, Status: Status(q.Get("status"))}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit <= maxPageSize {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset >= 0 {
		filter.Offset = offset
	}
	return filter
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
