package http

import (
	"log/slog"
	"net/http"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/domain"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/service"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/httputil"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/pagination"
)

// AuditHandler serves the recorded event trail.
type AuditHandler struct {
	service *service.AuditService
	logger  *slog.Logger
}

// NewAuditHandler creates a new audit HTTP handler.
func NewAuditHandler(svc *service.AuditService, logger *slog.Logger) *AuditHandler {
	return &AuditHandler{service: svc, logger: logger}
}

// ListEntries handles GET /api/v1/admin/audit?aggregate_id=&event_type=
func (h *AuditHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := pagination.FromQuery(q)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	entries, total, err := h.service.List(r.Context(), actorFrom(r), domain.AuditFilter{
		AggregateID: q.Get("aggregate_id"),
		EventType:   q.Get("event_type"),
	}, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(entries, total, page),
	})
}
