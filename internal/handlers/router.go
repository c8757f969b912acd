package handlers

import (
	"net/http"
	"strconv"
	"time"

	"brigadez/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter собирает все маршруты. authenticate оборачивает защищённые маршруты.
func NewRouter(h *Handler, authenticate func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		r.Get("/readyz", h.ReadyHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			// клиенты
			r.Post("/clients", h.CreateClientHandler)
			r.Get("/clients", h.GetClientsHandler)

			// заявки
			r.Post("/enquiries", h.CreateEnquiryHandler)
			r.Get("/enquiries", h.GetEnquiriesHandler)
			r.Get("/enquiries/{enquiryId}", h.GetEnquiryHandler)
			r.Get("/enquiries/{enquiryId}/schedules", h.GetSchedulesHandler)

			// список приоритетов
			r.Patch("/enquiries/{enquiryId}/priority", h.UpdatePriorityHandler)
			r.Get("/priority/list", h.GetPriorityListHandler)
			r.Post("/priority/reorder", h.ReorderPriorityHandler)

			// отметки прогресса
			r.Get("/enquiries/{enquiryId}/milestone", h.GetMilestoneHandler)
			r.Post("/enquiries/{enquiryId}/milestone/toggle", h.ToggleCheckpointHandler)
			r.Put("/enquiries/{enquiryId}/milestone/rectification-note", h.SetRectificationNoteHandler)
			r.Post("/enquiries/{enquiryId}/rectification-task", h.CreateRectificationTaskHandler)
			r.Post("/enquiries/{enquiryId}/rectification", h.FlagRectificationHandler)
		})
	})

	return r
}

// RequestLogger пишет одну строку на запрос и наблюдает длительность в метриках
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			took := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			// сырой путь в метку не попадает, иначе число серий не ограничено
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(status), took)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("took", took),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
