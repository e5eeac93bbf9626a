package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/clinic-backend/internal/billing"
	"github.com/hackgods/clinic-backend/internal/clinical"
	"github.com/hackgods/clinic-backend/internal/inventory"
	"github.com/hackgods/clinic-backend/internal/request"
	"github.com/hackgods/clinic-backend/internal/scheduling"
)

type RouterConfig struct {
	Scheduler *scheduling.Scheduler
	Workflow  *request.Workflow
	Saga      *clinical.Saga
	Invoices  *billing.Factory
	Ledger    *inventory.Ledger
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Appointment endpoints
	r.Post("/appointments", scheduleAppointmentHandler(cfg.Scheduler))
	r.Get("/appointments", listAppointmentsHandler(cfg.Scheduler))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Scheduler))
	r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Scheduler))

	// Appointment request workflow
	r.Post("/requests", createRequestHandler(cfg.Workflow))
	r.Get("/requests", listRequestsHandler(cfg.Workflow))
	r.Get("/requests/{id}", getRequestHandler(cfg.Workflow))
	r.Post("/requests/{id}/approve", approveRequestHandler(cfg.Workflow))
	r.Post("/requests/{id}/reject", rejectRequestHandler(cfg.Workflow))
	r.Post("/requests/{id}/cancel", cancelRequestHandler(cfg.Workflow))

	// Service execution
	r.Post("/executions", executeServiceHandler(cfg.Saga))
	r.Get("/executions", listExecutionsHandler(cfg.Saga))
	r.Get("/executions/{id}", getExecutionHandler(cfg.Saga))

	// Invoices
	r.Get("/invoices", listInvoicesHandler(cfg.Invoices))
	r.Get("/invoices/{id}", getInvoiceHandler(cfg.Invoices))
	r.Post("/invoices/{id}/pay", payInvoiceHandler(cfg.Invoices))
	r.Post("/invoices/{id}/void", voidInvoiceHandler(cfg.Invoices))

	// Inventory
	r.Get("/products/{id}", getProductHandler(cfg.Ledger))
	r.Get("/products/{id}/movements", listMovementsHandler(cfg.Ledger))
	r.Post("/products/{id}/adjust", adjustStockHandler(cfg.Ledger))

	return r
}
