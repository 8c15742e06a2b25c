package reminder

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/collabcare-api/internal/handler"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/service/reminder"
	"github.com/jwalitptl/collabcare-api/pkg/httputil"
)

type Handler struct {
	service *reminder.Service
}

func NewHandler(service *reminder.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reminders := r.Group("/reminders")
	{
		reminders.POST("", h.Create)
		reminders.GET("/pending", h.ListPending)
		reminders.GET("/overdue", h.ListOverdue)
		reminders.GET("/today", h.ListDueToday)
		reminders.GET("/stats", h.Stats)
		reminders.GET("/patient/:patientId", h.ListForPatient)
		reminders.GET("/patient/:patientId/history", h.History)
		reminders.PUT("/:id/complete", h.Complete)
		reminders.PUT("/:id/dismiss", h.Dismiss)
		reminders.DELETE("/:id", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateReminderRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Schedule(c.Request.Context(), &req)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithCreated(c, created)
}

// ListPending and the other care-manager lists read careManagerId and default to the caller.
func (h *Handler) ListPending(c *gin.Context) {
	managerID, ok := handler.UserOrSelf(c, "careManagerId")
	if !ok {
		return
	}
	list, err := h.service.ListPending(c.Request.Context(), managerID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) ListOverdue(c *gin.Context) {
	managerID, ok := handler.UserOrSelf(c, "careManagerId")
	if !ok {
		return
	}
	list, err := h.service.ListOverdue(c.Request.Context(), managerID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) ListDueToday(c *gin.Context) {
	managerID, ok := handler.UserOrSelf(c, "careManagerId")
	if !ok {
		return
	}
	list, err := h.service.ListDueToday(c.Request.Context(), managerID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Stats(c *gin.Context) {
	managerID, ok := handler.UserOrSelf(c, "careManagerId")
	if !ok {
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), managerID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, stats)
}

func (h *Handler) ListForPatient(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "patientId")
	if !ok {
		return
	}
	list, err := h.service.ListForPatient(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) History(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "patientId")
	if !ok {
		return
	}
	list, err := h.service.History(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, list)
}

func (h *Handler) Complete(c *gin.Context) {
	id, req, ok := bindResolve(c)
	if !ok {
		return
	}
	if err := h.service.Complete(c.Request.Context(), id, req.UserID); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, handler.Message{Message: "Reminder marked as completed"})
}

func (h *Handler) Dismiss(c *gin.Context) {
	id, req, ok := bindResolve(c)
	if !ok {
		return
	}
	if err := h.service.Dismiss(c.Request.Context(), id, req.UserID); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, handler.Message{Message: "Reminder dismissed"})
}

func bindResolve(c *gin.Context) (uuid.UUID, *model.UpdateReminderRequest, bool) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return uuid.Nil, nil, false
	}
	var req model.UpdateReminderRequest
	if !handler.BindJSON(c, &req) {
		return uuid.Nil, nil, false
	}
	return id, &req, true
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	httputil.RespondWithSuccess(c, handler.Message{Message: "Reminder deleted"})
}
