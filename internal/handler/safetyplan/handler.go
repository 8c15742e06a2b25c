package safetyplan

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	"github.com/jwalitptl/collabcare-api/internal/service/safetyplan"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

type Handler struct {
	service *safetyplan.Service
	reports *report.Service
}

func NewHandler(service *safetyplan.Service, reports *report.Service) *Handler {
	return &Handler{
		service: service,
		reports: reports,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/safety-plan-flag", h.CreateFlag)
	r.POST("/complete-safety-plan", h.Complete)
	r.GET("/safety-plan-status/:patientId", h.Status)
	r.GET("/safety-plan-history/:patientId", h.History)

	r.POST("/safety-plan", h.SaveDocument)
	r.GET("/safety-plan/:patientId/latest", h.Latest)
	r.GET("/safety-plans/:id", h.Get)
	r.GET("/safety-plans/:id/export", h.Export)
}

func (h *Handler) CreateFlag(c *gin.Context) {
	var req model.SafetyPlanFlagRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.CreateFlag(c.Request.Context(), req.PatientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Complete(c *gin.Context) {
	var req model.CompleteSafetyPlanRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Complete(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) Status(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, status)
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

func (h *Handler) SaveDocument(c *gin.Context) {
	var req model.CreateSafetyPlanRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.service.SaveDocument(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

func (h *Handler) Latest(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "patientId")
	if !ok {
		return
	}

	plan, err := h.service.Latest(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, plan)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	plan, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, plan)
}

func (h *Handler) Export(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	file, err := h.reports.SafetyPlanPDF(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithFile(c, file.ContentType, file.Name, file.Data)
}
