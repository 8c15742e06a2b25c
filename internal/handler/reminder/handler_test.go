package reminder

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/internal/service/reminder"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

func TestReminderLifecycle(t *testing.T) {
	store := memory.NewStore()
	clinic := store.MustClinic("Riverside")
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)
	p := store.MustPatient(clinic.ID, "MRN1", model.PatientStatusActive)

	h := NewHandler(reminder.NewService(store, event.NewEmitter(true), metrics.NewNop()))
	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: manager.ID, Role: model.RoleBHCM})
	h.RegisterRoutes(api)

	w := handlertest.Do(t, r, http.MethodPost, "/api/v1/reminders", map[string]interface{}{
		"patientId":      p.ID,
		"careManagerId":  manager.ID,
		"assessmentType": "PHQ-9",
		"contactDate":    "2024-02-25",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Reminder
	handlertest.Decode(t, w, &created)
	assert.Equal(t, "2024-03-03", created.DueDate.String())

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/reminders/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []model.ReminderView
	handlertest.Decode(t, w, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, "MRN1", pending[0].MRN)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/reminders/pending?careManagerId="+uuid.NewString(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	handlertest.Decode(t, w, &pending)
	assert.Empty(t, pending)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/reminders/pending?careManagerId=nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/v1/reminders/" + created.ID.String()
	w = handlertest.Do(t, r, http.MethodPut, path+"/complete", map[string]interface{}{"userId": manager.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = handlertest.Do(t, r, http.MethodPut, path+"/dismiss", map[string]interface{}{"userId": manager.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/reminders/patient/"+p.ID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.ReminderView
	handlertest.Decode(t, w, &history)
	require.Len(t, history, 1)
	assert.Equal(t, model.ReminderCompleted, history[0].Status)

	w = handlertest.Do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = handlertest.Do(t, r, http.MethodPut, path+"/complete", map[string]interface{}{"userId": manager.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreate_Validation(t *testing.T) {
	store := memory.NewStore()
	h := NewHandler(reminder.NewService(store, event.NewEmitter(true), metrics.NewNop()))
	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: uuid.New(), Role: model.RoleBHCM})
	h.RegisterRoutes(api)

	w := handlertest.Do(t, r, http.MethodPost, "/api/v1/reminders", map[string]interface{}{
		"patientId":      uuid.New(),
		"careManagerId":  uuid.New(),
		"assessmentType": "PHQ-9",
		"contactDate":    "03/01/2024",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	handlertest.Decode(t, w, &body)
	assert.Contains(t, body.Details, "contactDate")
}
