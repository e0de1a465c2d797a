package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/sudoku-race/internal/api/apierr"
	"github.com/mcoot/sudoku-race/internal/middleware"
)

// Chain returns the API middleware stack: panics become internal_error
// JSON bodies, and every request is logged under the http component.
func Chain(logger *slog.Logger) []func(http.Handler) http.Handler {
	httpLogger := logger.With(slog.String("component", "http"))
	return []func(http.Handler) http.Handler{
		middleware.Recovery(httpLogger, writePanic),
		middleware.Logging(httpLogger),
	}
}

func writePanic(w http.ResponseWriter, _ *http.Request, _ any) {
	apierr.WriteError(w, apierr.NewInternalError())
}
