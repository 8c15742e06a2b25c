package clinical

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/clinical"
	"github.com/jwalitptl/collabcare-api/internal/service/patient"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

// Handler serves the clinical write endpoints and the documents they produce.
type Handler struct {
	clinical *clinical.Service
	records  *patient.Service
	reports  *report.Service
}

func NewHandler(clinicalSvc *clinical.Service, records *patient.Service, reports *report.Service) *Handler {
	return &Handler{
		clinical: clinicalSvc,
		records:  records,
		reports:  reports,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/initial-assessment", h.SubmitInitialAssessment)
	r.POST("/followup-assessment", h.SubmitFollowupAssessment)

	r.POST("/patient-intake", h.CreateIntake)
	r.GET("/intakes/:id", h.GetIntake)
	r.GET("/intakes/:id/export", h.ExportIntake)

	r.POST("/patients/:id/deactivate", h.DeactivatePatient)

	r.POST("/contact-attempts", h.RecordContactAttempt)
	r.GET("/contact-attempts/:id", h.GetContactAttempt)
	r.GET("/contact-attempts/:id/export", h.ExportContactAttempt)
}

func (h *Handler) SubmitInitialAssessment(c *gin.Context) {
	h.submitAssessment(c, true)
}

func (h *Handler) SubmitFollowupAssessment(c *gin.Context) {
	h.submitAssessment(c, false)
}

func (h *Handler) submitAssessment(c *gin.Context, initial bool) {
	var req model.SubmitAssessmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.clinical.SubmitAssessment(c.Request.Context(), &req, initial)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) CreateIntake(c *gin.Context) {
	var req model.CreateIntakeRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.clinical.CreateIntake(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

func (h *Handler) GetIntake(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	intake, err := h.records.GetIntake(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, intake)
}

func (h *Handler) ExportIntake(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	file, err := h.reports.IntakePDF(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithFile(c, file.ContentType, file.Name, file.Data)
}

func (h *Handler) DeactivatePatient(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.DeactivatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	if err := h.clinical.DeactivatePatient(c.Request.Context(), id, req.Reason); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, handler.Message{Message: "Patient deactivated successfully"})
}

func (h *Handler) RecordContactAttempt(c *gin.Context) {
	var req model.RecordContactAttemptRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.clinical.RecordContactAttempt(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, result)
}

func (h *Handler) GetContactAttempt(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	attempt, err := h.records.GetContactAttempt(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, attempt)
}

func (h *Handler) ExportContactAttempt(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	file, err := h.reports.ContactAttemptPDF(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithFile(c, file.ContentType, file.Name, file.Data)
}
