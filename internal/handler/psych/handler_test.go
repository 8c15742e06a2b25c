package psych

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/internal/service/psych"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

func engineFor(t *testing.T, store *memory.Store, caller *model.User) *gin.Engine {
	t.Helper()
	h := NewHandler(psych.NewService(store, event.NewEmitter(true), audit.NewService(store.Audit()), metrics.NewNop()))
	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: caller.ID, Role: caller.Role})
	h.RegisterRoutes(api)
	return r
}

func TestConsultFlow(t *testing.T) {
	store := memory.NewStore()
	clinic := store.MustClinic("Riverside")
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)
	consultant := store.MustUser("Sam Ortiz", "sam@example.com", model.RolePsychiatricConsultant, clinic.ID)
	p := store.MustPatient(clinic.ID, "A1", model.PatientStatusActive)

	require.NoError(t, store.Contacts().Create(context.Background(), &model.Contact{
		PatientID:               p.ID,
		ContactDate:             model.NewDate(2024, 2, 1),
		ContactType:             model.ContactFollowupAssessment,
		InteractionMode:         model.ModeByPhone,
		DurationMinutes:         20,
		DiscussWithConsultant:   true,
		CreatedBy:               manager.ID,
		PsychiatricConsultantID: &consultant.ID,
	}))

	body := map[string]interface{}{
		"patientId":       p.ID,
		"userId":          consultant.ID,
		"consultDate":     "2024-02-10",
		"minutes":         25,
		"recommendations": "increase dose",
	}

	asManager := engineFor(t, store, manager)
	w := handlertest.Do(t, asManager, http.MethodPost, "/api/v1/psych/consult", body)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = handlertest.Do(t, asManager, http.MethodGet, "/api/v1/psych/dashboard", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	asConsultant := engineFor(t, store, consultant)
	w = handlertest.Do(t, asConsultant, http.MethodPost, "/api/v1/psych/consult", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = handlertest.Do(t, asConsultant, http.MethodGet, "/api/v1/psych/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard model.PsychDashboard
	handlertest.Decode(t, w, &dashboard)
	assert.Equal(t, 1, dashboard.AssignedPatients)
	assert.Equal(t, 25, dashboard.TotalMinutesTracked)

	w = handlertest.Do(t, asConsultant, http.MethodGet, "/api/v1/psych/history/"+p.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.ConsultationView
	handlertest.Decode(t, w, &history)
	assert.Len(t, history, 1)

	delete(body, "recommendations")
	w = handlertest.Do(t, asConsultant, http.MethodPost, "/api/v1/psych/consult", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
