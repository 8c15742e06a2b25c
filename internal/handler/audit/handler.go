package audit

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

type Handler struct {
	service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{service: service}
}

type listResponse struct {
	Items []*model.AuditLog `json:"items"`
	Total int64             `json:"total"`
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	a := r.Group("/audit", adminOnly)
	{
		a.GET("/logs", h.ListLogs)
	}
}

// ListLogs filters by userId, entityType, entityId and an RFC 3339 from/to window.
func (h *Handler) ListLogs(c *gin.Context) {
	filter, ok := parseFilter(c)
	if !ok {
		return
	}

	logs, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if logs == nil {
		logs = []*model.AuditLog{}
	}
	httputil.RespondWithSuccess(c, listResponse{Items: logs, Total: total})
}

func parseFilter(c *gin.Context) (model.AuditFilter, bool) {
	filter := model.AuditFilter{EntityType: c.Query("entityType")}
	details := map[string]string{}

	var ok bool
	if filter.UserID, ok = handler.QueryUUID(c, "userId"); !ok {
		return filter, false
	}
	if filter.EntityID, ok = handler.QueryUUID(c, "entityId"); !ok {
		return filter, false
	}

	for name, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if raw := c.Query(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				details[name] = "must be an RFC 3339 timestamp"
				continue
			}
			*dst = t
		}
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if raw := c.Query(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				details[name] = "must be a non-negative integer"
				continue
			}
			*dst = n
		}
	}

	if len(details) > 0 {
		handler.Fail(c, apperrors.NewValidation("invalid audit filter", details))
		return filter, false
	}
	return filter, true
}
