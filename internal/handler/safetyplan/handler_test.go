package safetyplan

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/event"
	"github.com/jwalitptl/collabcare-api/internal/service/report"
	"github.com/jwalitptl/collabcare-api/internal/service/safetyplan"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
)

func setup(t *testing.T) (*memory.Store, *gin.Engine, *model.Clinic, *model.User) {
	t.Helper()
	store := memory.NewStore()
	clinic := store.MustClinic("Riverside")
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, clinic.ID)

	h := NewHandler(safetyplan.NewService(store, event.NewEmitter(true), metrics.NewNop()), report.NewService(store))
	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: manager.ID, Role: model.RoleBHCM})
	h.RegisterRoutes(api)
	return store, r, clinic, manager
}

func TestFlagWorkflow(t *testing.T) {
	store, r, clinic, manager := setup(t)
	p := store.MustPatient(clinic.ID, "MRN1", model.PatientStatusActive)
	pid := p.ID.String()

	w := handlertest.Do(t, r, http.MethodPost, "/api/v1/complete-safety-plan",
		map[string]interface{}{"patientId": p.ID, "resolverId": manager.ID, "minutes": 5})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = handlertest.Do(t, r, http.MethodPost, "/api/v1/safety-plan-flag", map[string]interface{}{"patientId": p.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res model.SafetyPlanResult
	handlertest.Decode(t, w, &res)
	assert.True(t, res.FlagChanged)

	w = handlertest.Do(t, r, http.MethodPost, "/api/v1/safety-plan-flag", map[string]interface{}{"patientId": p.ID})
	require.Equal(t, http.StatusOK, w.Code)
	handlertest.Decode(t, w, &res)
	assert.False(t, res.FlagChanged)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/safety-plan-status/"+pid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status model.SafetyPlanStatus
	handlertest.Decode(t, w, &status)
	assert.True(t, status.Active)

	w = handlertest.Do(t, r, http.MethodPost, "/api/v1/complete-safety-plan",
		map[string]interface{}{"patientId": p.ID, "resolverId": manager.ID, "minutes": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/safety-plan-history/"+pid, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []model.SafetyPlanHistory
	handlertest.Decode(t, w, &history)
	require.Len(t, history, 2)
	assert.Equal(t, model.SafetyPlanResolved, history[0].Action)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/safety-plan-status/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveDocumentAndExport(t *testing.T) {
	store, r, clinic, manager := setup(t)
	p := store.MustPatient(clinic.ID, "MRN1", model.PatientStatusActive)

	w := handlertest.Do(t, r, http.MethodPost, "/api/v1/safety-plan", map[string]interface{}{
		"patientId":   p.ID,
		"createdBy":   manager.ID,
		"contactDate": "2024-02-10",
		"minutes":     20,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res model.SafetyPlanResult
	handlertest.Decode(t, w, &res)
	assert.True(t, res.FlagActive)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/safety-plan/"+p.ID.String()+"/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var plan model.SafetyPlan
	handlertest.Decode(t, w, &plan)
	assert.Equal(t, res.ID, plan.ID)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/safety-plans/"+res.ID.String()+"/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	w = handlertest.Do(t, r, http.MethodPost, "/api/v1/safety-plan", map[string]interface{}{
		"patientId":   p.ID,
		"createdBy":   manager.ID,
		"contactDate": "2024-02-10",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
