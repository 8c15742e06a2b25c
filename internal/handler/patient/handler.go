package patient

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/patient"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	apperrors "github.com/jwalitptl/collabcare-api/pkg/errors"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

// DashboardInvalidator drops cached clinic statistics after a patient joins.
type DashboardInvalidator interface {
	InvalidateDashboard(clinicID uuid.UUID)
}

type Handler struct {
	service    *patient.Service
	reports    *report.Service
	dashboards DashboardInvalidator
}

func NewHandler(service *patient.Service, reports *report.Service, dashboards DashboardInvalidator) *Handler {
	return &Handler{
		service:    service,
		reports:    reports,
		dashboards: dashboards,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patients := r.Group("/patients")
	{
		patients.POST("", h.CreatePatient)
		patients.GET("", h.ListPatients)
		patients.GET("/:id", h.GetPatient)
		patients.GET("/:id/flags", h.GetFlags)

		patients.GET("/:id/assessments/latest", h.LatestAssessments)
		patients.GET("/:id/assessments/history", h.AssessmentHistory)
		patients.GET("/:id/assessments/:contactDate/:type", h.GetAssessment)
		patients.GET("/:id/assessments/:contactDate/:type/export", h.ExportAssessment)
		patients.GET("/:id/last-update", h.LastUpdate)

		patients.GET("/:id/last-contact", h.LastContact)
		patients.GET("/:id/treatment-history", h.TreatmentHistory)
		patients.GET("/:id/contact-attempts", h.ContactAttempts)
		patients.GET("/:id/intake/latest", h.LatestIntake)
		patients.GET("/:id/documents", h.Documents)
		patients.GET("/:id/deactivation", h.LatestDeactivation)
	}
}

func (h *Handler) CreatePatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if h.dashboards != nil {
		h.dashboards.InvalidateDashboard(p.ClinicID)
	}
	httputil.RespondWithCreated(c, p)
}

// ListPatients requires clinicId; scope is active (default), enrolled or inactive.
func (h *Handler) ListPatients(c *gin.Context) {
	clinicID, ok := handler.QueryUUID(c, "clinicId")
	if !ok {
		return
	}
	if clinicID == nil {
		handler.Fail(c, apperrors.NewValidation("clinicId is required", map[string]string{"clinicId": "is required"}))
		return
	}

	scope := patient.ListScope(c.DefaultQuery("scope", string(patient.ScopeActive)))
	list, err := h.service.List(c.Request.Context(), *clinicID, scope)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	detail, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, detail)
}

func (h *Handler) GetFlags(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	flags, err := h.service.Flags(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"patientId": id, "flags": flags})
}

func (h *Handler) LatestAssessments(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	latest, err := h.service.LatestAssessments(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, latest)
}

func (h *Handler) AssessmentHistory(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	history, err := h.service.AssessmentHistory(c.Request.Context(), id, model.AssessmentType(c.Query("type")))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func assessmentKey(c *gin.Context) (uuid.UUID, model.Date, model.AssessmentType, bool) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return uuid.Nil, model.Date{}, "", false
	}
	date, err := model.ParseDate(c.Param("contactDate"))
	if err != nil {
		handler.Fail(c, apperrors.NewValidation("invalid contactDate", map[string]string{"contactDate": err.Error()}))
		return uuid.Nil, model.Date{}, "", false
	}
	t := model.AssessmentType(c.Param("type"))
	if !t.Valid() {
		handler.Fail(c, apperrors.NewValidation("invalid assessment type", map[string]string{"type": "must be PHQ-9 or GAD-7"}))
		return uuid.Nil, model.Date{}, "", false
	}
	return id, date, t, true
}

func (h *Handler) GetAssessment(c *gin.Context) {
	id, date, t, ok := assessmentKey(c)
	if !ok {
		return
	}
	a, err := h.service.GetAssessment(c.Request.Context(), id, t, date)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func (h *Handler) ExportAssessment(c *gin.Context) {
	id, date, t, ok := assessmentKey(c)
	if !ok {
		return
	}
	file, err := h.reports.AssessmentPDF(c.Request.Context(), id, date, t)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithFile(c, file.ContentType, file.Name, file.Data)
}

func (h *Handler) LastUpdate(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	update, err := h.service.LastUpdate(c.Request.Context(), id, model.AssessmentType(c.Query("type")))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, update)
}

func (h *Handler) LastContact(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	date, err := h.service.LastContact(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"patientId": id, "lastContactDate": date})
}

func (h *Handler) TreatmentHistory(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	history, err := h.service.TreatmentHistory(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) ContactAttempts(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	attempts, err := h.service.ContactAttempts(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, attempts)
}

func (h *Handler) LatestIntake(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	intake, err := h.service.LatestIntake(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, intake)
}

func (h *Handler) Documents(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	folder, err := h.service.Documents(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, folder)
}

func (h *Handler) LatestDeactivation(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	d, err := h.service.LatestDeactivation(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
