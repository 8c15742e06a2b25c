package psych

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/psych"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

// Handler serves the psychiatric consultant workspace. Every view is scoped
// to the authenticated consultant.
type Handler struct {
	service *psych.Service
}

func NewHandler(service *psych.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	p := r.Group("/psych")
	{
		p.GET("/dashboard", h.Dashboard)
		p.GET("/recent", h.RecentPatients)
		p.GET("/patients", h.AssignedPatients)
		p.POST("/consult", h.Consult)
		p.GET("/history/:patientId", h.History)
		p.GET("/notes/:patientId", h.CareManagerNotes)
	}
}

func (h *Handler) Dashboard(c *gin.Context) {
	consultantID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	clinicID, ok := handler.QueryUUID(c, "clinicId")
	if !ok {
		return
	}

	dashboard, err := h.service.Dashboard(c.Request.Context(), consultantID, clinicID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, dashboard)
}

func (h *Handler) RecentPatients(c *gin.Context) {
	consultantID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}

	patients, err := h.service.RecentPatients(c.Request.Context(), consultantID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) AssignedPatients(c *gin.Context) {
	consultantID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	clinicID, ok := handler.QueryUUID(c, "clinicId")
	if !ok {
		return
	}

	patients, err := h.service.AssignedPatients(c.Request.Context(), consultantID, clinicID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Consult(c *gin.Context) {
	callerID, ok := handler.CurrentUser(c)
	if !ok {
		return
	}
	var req model.ConsultRequest
	if !handler.BindJSON(c, &req) {
		return
	}
	if req.UserID != callerID {
		handler.Fail(c, apperrors.NewForbidden("consultations can only be recorded by the consultant"))
		return
	}

	consultation, err := h.service.Consult(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, consultation)
}

func (h *Handler) History(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	history, err := h.service.History(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) CareManagerNotes(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	notes, err := h.service.CareManagerNotes(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, notes)
}
