package clinic

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	clinicService "github.com/jwalitptl/collabcare-api/internal/service/clinic"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

// ConsultantLister finds the psychiatric consultants working at a clinic.
type ConsultantLister interface {
	ListConsultants(ctx context.Context, clinicID uuid.UUID) ([]*model.User, error)
}

type Handler struct {
	service     clinicService.ClinicServicer
	consultants ConsultantLister
}

func NewHandler(service clinicService.ClinicServicer, consultants ConsultantLister) *Handler {
	return &Handler{service: service, consultants: consultants}
}

// RegisterRoutes mounts the clinic routes. Writes additionally pass through adminOnly.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, adminOnly gin.HandlerFunc) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", adminOnly, h.CreateClinic)
		clinics.GET("", h.ListClinics)
		clinics.GET("/:id", h.GetClinic)
		clinics.PUT("/:id", adminOnly, h.UpdateClinic)
		clinics.DELETE("/:id", adminOnly, h.DeleteClinic)
		clinics.GET("/:id/users", h.ListUsers)
		clinics.GET("/:id/consultants", h.ListConsultants)
		clinics.GET("/:id/dashboard", h.Dashboard)
	}
}

func (h *Handler) CreateClinic(c *gin.Context) {
	var req model.ClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	clinic, err := h.service.CreateClinic(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, clinic)
}

func (h *Handler) ListClinics(c *gin.Context) {
	clinics, err := h.service.ListClinics(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinics)
}

func (h *Handler) GetClinic(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.service.GetClinic(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.ClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	clinic, err := h.service.UpdateClinic(c.Request.Context(), id, &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) DeleteClinic(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteClinic(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.NoContent(c)
}

func (h *Handler) ListUsers(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	users, err := h.service.ListUsers(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) ListConsultants(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	users, err := h.consultants.ListConsultants(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, users)
}

func (h *Handler) Dashboard(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dashboard)
}
