package clinical

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/clinical"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/internal/service/patient"
	"github.com/jwalitptl/collabcare-api/internal/service/reminder"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	"github.com/jwalitptl/collabcare-api/pkg/logger"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

type fixture struct {
	store   *memory.Store
	router  *gin.Engine
	clinic  *model.Clinic
	manager *model.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clinic := store.MustClinic("Riverside")
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)

	m := metrics.NewNop()
	events := event.NewEmitter(true)
	auditor := audit.NewService(store.Audit())
	h := NewHandler(
		clinical.NewService(store, reminder.NewService(store, events, m), events, auditor, m, logger.Nop()),
		patient.NewService(store, events, auditor, m),
		report.NewService(store),
	)

	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: manager.ID, Role: model.RoleBHCM})
	h.RegisterRoutes(api)
	return &fixture{store: store, router: r, clinic: clinic, manager: manager}
}

func (f *fixture) assessment(patientID uuid.UUID) map[string]interface{} {
	return map[string]interface{}{
		"patientId":       patientID,
		"createdBy":       f.manager.ID,
		"contactDate":     "2024-01-01",
		"phq9Score":       10,
		"gad7Score":       7,
		"phq9Answers":     []int{1, 1, 1, 1, 1, 1, 1, 1, 2},
		"gad7Answers":     []int{1, 1, 1, 1, 1, 1, 1},
		"sessionType":     "by_phone",
		"sessionDuration": 30,
	}
}

func TestSubmitInitialAssessment(t *testing.T) {
	f := setup(t)
	p := f.store.MustPatient(f.clinic.ID, "MRN1", model.PatientStatusActive)

	w := handlertest.Do(t, f.router, http.MethodPost, "/api/v1/initial-assessment", f.assessment(p.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var res model.AssessmentResult
	handlertest.Decode(t, w, &res)
	assert.True(t, res.SafetyPlanFlagged)
	assert.Equal(t, "Moderate", res.PHQ9Severity)
	assert.NotEmpty(t, res.Message)
}

func TestSubmitAssessment_Errors(t *testing.T) {
	f := setup(t)
	p := f.store.MustPatient(f.clinic.ID, "MRN1", model.PatientStatusActive)

	missing := f.assessment(p.ID)
	delete(missing, "contactDate")
	shortAnswers := f.assessment(p.ID)
	shortAnswers["phq9Answers"] = []int{1, 1}

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"malformed json", `{"patientId":`, http.StatusBadRequest},
		{"missing contact date", missing, http.StatusBadRequest},
		{"wrong answer count", shortAnswers, http.StatusBadRequest},
		{"unknown patient", f.assessment(uuid.New()), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := handlertest.Do(t, f.router, http.MethodPost, "/api/v1/followup-assessment", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var body struct {
				Error string `json:"error"`
			}
			handlertest.Decode(t, w, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestDeactivateThenAssess(t *testing.T) {
	f := setup(t)
	p := f.store.MustPatient(f.clinic.ID, "MRN1", model.PatientStatusActive)

	w := handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/deactivate",
		map[string]string{"reason": "No longer enrolled"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patients/"+p.ID.String()+"/deactivate",
		map[string]string{"reason": "Moved away"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Len(t, f.store.Deactivations(p.ID), 2)
	d, err := f.store.Patients().LatestDeactivation(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Moved away", d.Reason)

	w = handlertest.Do(t, f.router, http.MethodPost, "/api/v1/initial-assessment", f.assessment(p.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patients/not-a-uuid/deactivate",
		map[string]string{"reason": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateIntakeAndExport(t *testing.T) {
	f := setup(t)
	p := f.store.MustPatient(f.clinic.ID, "MRN1", model.PatientStatusEnrolled)

	body := map[string]interface{}{
		"patientId":   p.ID,
		"createdBy":   f.manager.ID,
		"contactDate": "2024-02-01",
		"minutes":     45,
		"symptoms":    map[string]bool{"sleepProblems": true},
	}
	w := handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patient-intake", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res model.IntakeResult
	handlertest.Decode(t, w, &res)
	assert.True(t, res.StatusUpdated)

	got, err := f.store.Patients().Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientStatusActive, got.Status)

	w = handlertest.Do(t, f.router, http.MethodGet, "/api/v1/intakes/"+res.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = handlertest.Do(t, f.router, http.MethodGet, "/api/v1/intakes/"+res.ID.String()+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.True(t, len(w.Body.Bytes()) > 4 && string(w.Body.Bytes()[:5]) == "%PDF-")

	w = handlertest.Do(t, f.router, http.MethodGet, "/api/v1/intakes/"+uuid.NewString()+"/export", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecordContactAttempt(t *testing.T) {
	f := setup(t)
	p := f.store.MustPatient(f.clinic.ID, "MRN1", model.PatientStatusActive)

	body := map[string]interface{}{
		"patientId":       p.ID,
		"userId":          f.manager.ID,
		"attemptDate":     "2024-02-03",
		"minutes":         10,
		"interactionMode": "by_video",
	}
	w := handlertest.Do(t, f.router, http.MethodPost, "/api/v1/contact-attempts", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res model.ContactAttemptResult
	handlertest.Decode(t, w, &res)
	assert.Equal(t, 10, res.Minutes)

	w = handlertest.Do(t, f.router, http.MethodGet, "/api/v1/contact-attempts/"+res.AttemptID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	body["interactionMode"] = "in_group"
	w = handlertest.Do(t, f.router, http.MethodPost, "/api/v1/contact-attempts", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
