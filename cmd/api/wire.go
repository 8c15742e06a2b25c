package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/collabcare-api/internal/config"
	auditHandler "github.com/jwalitptl/collabcare-api/internal/handler/audit"
	authHandler "github.com/jwalitptl/collabcare-api/internal/handler/auth"
	clinicHandler "github.com/jwalitptl/collabcare-api/internal/handler/clinic"
	clinicalHandler "github.com/jwalitptl/collabcare-api/internal/handler/clinical"
	"github.com/jwalitptl/collabcare-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/collabcare-api/internal/handler/patient"
	promHandler "github.com/jwalitptl/collabcare-api/internal/handler/prometheus"
	psychHandler "github.com/jwalitptl/collabcare-api/internal/handler/psych"
	reminderHandler "github.com/jwalitptl/collabcare-api/internal/handler/reminder"
	reportHandler "github.com/jwalitptl/collabcare-api/internal/handler/report"
	safetyPlanHandler "github.com/jwalitptl/collabcare-api/internal/handler/safetyplan"
	userHandler "github.com/jwalitptl/collabcare-api/internal/handler/user"
	"github.com/jwalitptl/collabcare-api/internal/middleware"
	"github.com/jwalitptl/collabcare-api/internal/repository"
	"github.com/jwalitptl/collabcare-api/internal/router"
	auditService "github.com/jwalitptl/collabcare-api/internal/service/audit"
	authService "github.com/jwalitptl/collabcare-api/internal/service/auth"
	clinicService "github.com/jwalitptl/collabcare-api/internal/service/clinic"
	clinicalService "github.com/jwalitptl/collabcare-api/internal/service/clinical"
	eventService "github.com/jwalitptl/collabcare-api/internal/service/event"
	patientService "github.com/jwalitptl/collabcare-api/internal/service/patient"
	psychService "github.com/jwalitptl/collabcare-api/internal/service/psych"
	reminderService "github.com/jwalitptl/collabcare-api/internal/service/reminder"
	reportService "github.com/jwalitptl/collabcare-api/internal/service/report"
	safetyPlanService "github.com/jwalitptl/collabcare-api/internal/service/safetyplan"
	userService "github.com/jwalitptl/collabcare-api/internal/service/user"
	"github.com/jwalitptl/collabcare-api/pkg/auth"
	"github.com/jwalitptl/collabcare-api/pkg/logger"
	"github.com/jwalitptl/collabcare-api/pkg/metrics"
	"github.com/jwalitptl/collabcare-api/pkg/security"
)

const metricsNamespace = "collabcare"

// buildRouter wires services and handlers over store.
func buildRouter(cfg *config.Config, store repository.Store, lg *logger.Logger, registry *prometheus.Registry) (*router.Router, error) {
	m := metrics.NewMetrics(metricsNamespace, registry)
	events := eventService.NewEmitter(cfg.Outbox.Enabled)
	auditor := auditService.NewService(store.Audit())
	hasher := security.NewBcryptHasher(bcrypt.DefaultCost)

	// Services
	authSvc := authService.NewService(store.Users(), auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry), hasher, auditor)
	reminderSvc := reminderService.NewService(store, events, m)
	clinicalSvc := clinicalService.NewService(store, reminderSvc, events, auditor, m, lg)
	patientSvc := patientService.NewService(store, events, auditor, m)
	safetyPlanSvc := safetyPlanService.NewService(store, events, m)
	psychSvc := psychService.NewService(store, events, auditor, m)
	reportSvc := reportService.NewService(store)
	userSvc := userService.NewService(store, hasher, auditor)
	clinicSvc := clinicService.NewService(store.Clinics(), auditor, clinicService.Config{
		CacheDuration:   cfg.Cache.DefaultTTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	})

	handlers := router.Handlers{
		Auth:       authHandler.NewHandler(authSvc),
		Patient:    patientHandler.NewHandler(patientSvc, reportSvc, clinicSvc),
		Clinical:   clinicalHandler.NewHandler(clinicalSvc, patientSvc, reportSvc),
		SafetyPlan: safetyPlanHandler.NewHandler(safetyPlanSvc, reportSvc),
		Reminder:   reminderHandler.NewHandler(reminderSvc),
		Psych:      psychHandler.NewHandler(psychSvc),
		Report:     reportHandler.NewHandler(reportSvc),
		Clinic:     clinicHandler.NewHandler(clinicSvc, userSvc),
		User:       userHandler.NewHandler(userSvc, patientSvc),
		Audit:      auditHandler.NewHandler(auditor),
	}

	healthH := health.NewHandler(map[string]health.Check{"database": store.Ping})

	return router.NewRouter(
		cfg,
		middleware.NewAuthMiddleware(authSvc),
		handlers,
		healthH,
		promHandler.New(metricsNamespace, registry),
	)
}
