package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	dErrors "ludendorff/pkg/domain-errors"
	"ludendorff/pkg/requestcontext"
)

// writeError keeps the failure surface opaque: every domain failure maps to
// one generic envelope with no structured code, so callers cannot tell a
// permission failure from a downstream outage.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": dErrors.MessageOf(err),
	})
}

func writeBadRequest(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "invalid request body",
	})
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) logFailure(r *http.Request, op string, err error) {
	h.logger.WarnContext(r.Context(), "callable operation failed",
		"operation", op,
		"code", dErrors.CodeOf(err),
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err,
	)
}

// requestIDMiddleware assigns each request a correlation id for log lines.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
