package clinic

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/collabcare-api/internal/handler/handlertest"
	"github.com/jwalitptl/collabcare-api/internal/middleware"
	"github.com/jwalitptl/collabcare-api/internal/model"
	"github.com/jwalitptl/collabcare-api/internal/repository/memory"
	"github.com/jwalitptl/collabcare-api/internal/service/audit"
	"github.com/jwalitptl/collabcare-api/internal/service/clinic"
	"github.com/jwalitptl/collabcare-api/internal/service/user"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

func engineFor(t *testing.T, store *memory.Store, caller *model.User) *gin.Engine {
	t.Helper()
	auditor := audit.NewService(store.Audit())
	h := NewHandler(
		clinic.NewService(store.Clinics(), auditor, clinic.DefaultConfig()),
		user.NewService(store, security.NewBcryptHasher(bcrypt.MinCost), auditor),
	)
	r, api := handlertest.Engine(t, &model.TokenClaims{UserID: caller.ID, Role: caller.Role})
	h.RegisterRoutes(api, middleware.NewAuthMiddleware(nil).RequireRole(model.RoleAdmin))
	return r
}

func TestClinicWritesRequireAdmin(t *testing.T) {
	store := memory.NewStore()
	manager := store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM)

	r := engineFor(t, store, manager)
	w := handlertest.Do(t, r, http.MethodPost, "/api/v1/clinics", map[string]string{"name": "Riverside"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = handlertest.Do(t, r, http.MethodGet, "/api/v1/clinics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestClinicCRUD(t *testing.T) {
	store := memory.NewStore()
	admin := store.MustUser("Ari Admin", "ari@example.com", model.RoleAdmin)
	r := engineFor(t, store, admin)

	w := handlertest.Do(t, r, http.MethodPost, "/api/v1/clinics", map[string]string{"name": "Riverside"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created model.Clinic
	handlertest.Decode(t, w, &created)
	assert.Equal(t, "Riverside", created.Name)

	path := "/api/v1/clinics/" + created.ID.String()
	consultant := store.MustUser("Sam Ortiz", "sam@example.com", model.RolePsychiatricConsultant, created.ID)
	store.MustUser("Dana Reyes", "dana@example.com", model.RoleBHCM, created.ID)

	w = handlertest.Do(t, r, http.MethodPut, path, map[string]string{"name": "Riverside North", "email": "front@riverside.example"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated model.Clinic
	handlertest.Decode(t, w, &updated)
	assert.Equal(t, "Riverside North", updated.Name)

	w = handlertest.Do(t, r, http.MethodGet, path+"/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []model.UserRef
	handlertest.Decode(t, w, &users)
	assert.Len(t, users, 2)

	w = handlertest.Do(t, r, http.MethodGet, path+"/consultants", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var consultants []model.User
	handlertest.Decode(t, w, &consultants)
	require.Len(t, consultants, 1)
	assert.Equal(t, consultant.ID, consultants[0].ID)

	store.MustPatient(created.ID, "A1", model.PatientStatusActive)
	w = handlertest.Do(t, r, http.MethodGet, path+"/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dashboard model.ClinicDashboard
	handlertest.Decode(t, w, &dashboard)
	assert.Equal(t, 1, dashboard.TotalPatients)

	w = handlertest.Do(t, r, http.MethodPut, path, map[string]string{"name": "x", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = handlertest.Do(t, r, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = handlertest.Do(t, r, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
