package report

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reports/minutes.xlsx", h.MinutesWorkbook)
}

// MinutesWorkbook exports tracked minutes, optionally narrowed by userId,
// clinicId, startDate and endDate.
func (h *Handler) MinutesWorkbook(c *gin.Context) {
	var filter model.MinuteFilter
	var ok bool
	if filter.UserID, ok = handler.QueryUUID(c, "userId"); !ok {
		return
	}
	if filter.ClinicID, ok = handler.QueryUUID(c, "clinicId"); !ok {
		return
	}
	start, ok := handler.QueryDate(c, "startDate")
	if !ok {
		return
	}
	end, ok := handler.QueryDate(c, "endDate")
	if !ok {
		return
	}
	if start != nil {
		filter.StartDate = *start
	}
	if end != nil {
		filter.EndDate = *end
	}
	if start != nil && end != nil && end.Before(*start) {
		handler.Fail(c, apperrors.NewValidation("invalid date range", map[string]string{"endDate": "must not be before startDate"}))
		return
	}

	file, err := h.service.MinutesXLSX(c.Request.Context(), filter)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithFile(c, file.ContentType, file.Name, file.Data)
}
