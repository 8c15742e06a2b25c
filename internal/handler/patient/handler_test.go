package patient

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/internal/service/patient"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

type recordingInvalidator struct {
	clinics []uuid.UUID
}

func (r *recordingInvalidator) InvalidateDashboard(clinicID uuid.UUID) {
	r.clinics = append(r.clinics, clinicID)
}

type fixture struct {
	store       *memory.Store
	router      *gin.Engine
	clinic      *model.Clinic
	manager     *model.User
	invalidator *recordingInvalidator
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clinic := store.MustClinic("Riverside")
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)

	inv := &recordingInvalidator{}
	svc := patient.NewService(store, event.NewEmitter(true), audit.NewService(store.Audit()), metrics.NewNop())
	h := NewHandler(svc, report.NewService(store), inv)

	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: manager.ID, Role: model.RoleBHCM})
	h.RegisterRoutes(api)
	return &fixture{store: store, router: r, clinic: clinic, manager: manager, invalidator: inv}
}

func TestCreatePatient(t *testing.T) {
	f := setup(t)

	body := map[string]interface{}{
		"clinicId":       f.clinic.ID,
		"mrn":            "A1001",
		"firstName":      "Lee",
		"lastName":       "Park",
		"dob":            "1975-06-15",
		"enrollmentDate": "2024-03-01",
		"careManagerId":  f.manager.ID,
	}
	w := handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patients", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created model.Patient
	handlertest.Decode(t, w, &created)
	assert.Equal(t, model.PatientStatusEnrolled, created.Status)
	assert.Equal(t, []uuid.UUID{f.clinic.ID}, f.invalidator.clinics)

	w = handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patients", body)
	assert.Equal(t, http.StatusConflict, w.Code)

	body["mrn"] = "A-1001"
	w = handlertest.Do(t, f.router, http.MethodPost, "/api/v1/patients", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errBody struct {
		Details map[string]string `json:"details"`
	}
	handlertest.Decode(t, w, &errBody)
	assert.Equal(t, "must be alphanumeric", errBody.Details["mrn"])

	w = handlertest.Do(t, f.router, http.MethodGet, "/api/v1/patients/"+created.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail model.PatientDetail
	handlertest.Decode(t, w, &detail)
	assert.Equal(t, "Riverside", detail.ClinicName)
	require.Len(t, detail.Providers, 1)
	assert.Equal(t, model.ProviderBHCM, detail.Providers[0].ProviderType)
}

func TestListPatients(t *testing.T) {
	f := setup(t)
	f.store.MustPatient(f.clinic.ID, "E1", model.PatientStatusEnrolled)
	f.store.MustPatient(f.clinic.ID, "A1", model.PatientStatusActive)
	f.store.MustPatient(f.clinic.ID, "R1", model.PatientStatusRelapsePrevention)

	base := "/api/v1/patients?clinicId=" + f.clinic.ID.String()
	tests := []struct {
		query string
		code  int
		count int
	}{
		{"", http.StatusOK, 2},
		{"&scope=enrolled", http.StatusOK, 1},
		{"&scope=inactive", http.StatusOK, 0},
		{"&scope=everyone", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := handlertest.Do(t, f.router, http.MethodGet, base+tt.query, nil)
			require.Equal(t, tt.code, w.Code, w.Body.String())
			if tt.code == http.StatusOK {
				var list []model.PatientSummary
				handlertest.Decode(t, w, &list)
				assert.Len(t, list, tt.count)
			}
		})
	}

	w := handlertest.Do(t, f.router, http.MethodGet, "/api/v1/patients", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssessmentRoutes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.store.MustPatient(f.clinic.ID, "A1", model.PatientStatusActive)
	date := model.NewDate(2024, time.February, 1)
	require.NoError(t, f.store.Assessments().Create(ctx, &model.Assessment{
		PatientID: p.ID,
		Type:      model.AssessmentPHQ9,
		Score:     12,
		Date:      date,
		Answers:   model.Answers{2, 2, 1, 1, 1, 1, 2, 2, 0},
	}))
	require.NoError(t, f.store.Contacts().Create(ctx, &model.Contact{
		PatientID:       p.ID,
		ContactDate:     date,
		ContactType:     model.ContactInitialAssessment,
		InteractionMode: model.ModeByVideo,
		DurationMinutes: 30,
		CreatedBy:       f.manager.ID,
	}))
	base := "/api/v1/patients/" + p.ID.String()

	w := handlertest.Do(t, f.router, http.MethodGet, base+"/assessments/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest model.LatestAssessments
	handlertest.Decode(t, w, &latest)
	require.NotNil(t, latest.PHQ9)
	assert.Equal(t, "Moderate", latest.PHQ9.Severity)
	assert.Nil(t, latest.GAD7)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/assessments/2024-02-01/PHQ-9", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/assessments/2024-02-01/PHQ-9/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "PHQ9_Assessment_Stone_Ada_2024-02-01.pdf")

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/assessments/2024-02-01/GAD-7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/assessments/2024-02-01/BDI", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/assessments/history?type=PHQ-9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.AssessmentView
	handlertest.Decode(t, w, &history)
	assert.Len(t, history, 1)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/last-update?type=GAD-7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var update model.LastUpdate
	handlertest.Decode(t, w, &update)
	assert.Nil(t, update.Date)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/treatment-history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var treatment []model.TreatmentHistoryEntry
	handlertest.Decode(t, w, &treatment)
	require.Len(t, treatment, 1)
	assert.Equal(t, "Video", treatment[0].Mode)

	w = handlertest.Do(t, f.router, http.MethodGet, base+"/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var folder model.DocumentFolder
	handlertest.Decode(t, w, &folder)
	assert.NotEmpty(t, folder.Files)
}

func TestNotFound(t *testing.T) {
	f := setup(t)
	missing := "/api/v1/patients/" + uuid.NewString()

	for _, path := range []string{"", "/flags", "/last-contact", "/documents", "/deactivation", "/intake/latest"} {
		w := handlertest.Do(t, f.router, http.MethodGet, missing+path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}
