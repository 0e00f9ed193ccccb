package httpapi

import (
	"net/http"

	"github.com/drillscope/panel-api/internal/platform/logging"
)

func NewRouter(
	handler *Handler,
	logger *logging.Logger,
	corsAllowedOrigins []string,
	panelToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerPublicRoutes(mux, handler)
	registerPanelRoutes(mux, handler, panelToken)

	return RequestTracing(RequestLogging(logger, CORS(corsAllowedOrigins, recoverPanic(logger, mux))))
}

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/events", handler.ListEvents)
	mux.HandleFunc("GET /v1/events/{eventID}/status", handler.GetEventStatus)
	mux.HandleFunc("GET /v1/events/{eventID}/assignments", handler.GetEventAssignments)
}

func registerPanelRoutes(mux *http.ServeMux, handler *Handler, panelToken string) {
	mux.Handle("POST /v1/assignments/refresh", RequirePanelToken(panelToken, http.HandlerFunc(handler.RefreshAssignments)))
	mux.Handle("POST /v1/events/{eventID}/assignments", RequirePanelToken(panelToken, http.HandlerFunc(handler.SubmitAssignments)))
	mux.Handle("DELETE /v1/events/{eventID}/assignments/{personID}", RequirePanelToken(panelToken, http.HandlerFunc(handler.RemoveAssignment)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
