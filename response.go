package gtfsrtrelay

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/theoremus-urban-solutions/gtfsrt-relay/download"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/filter"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/gtfsrt"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/locator"
)

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// statusFor maps an error to its HTTP status and client-facing message.
// Upstream details are logged, not returned.
func statusFor(err error) (int, string) {
	var qe *filter.QueryError
	var rl *download.RateLimitedError
	switch {
	case errors.As(err, &qe):
		return http.StatusBadRequest, qe.Msg
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.As(err, &rl):
		return http.StatusTooManyRequests, rl.Error()
	case errors.Is(err, download.ErrInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, gtfsrt.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, "Failed to fetch data from MTA API. Please try again later."
	case errors.Is(err, ErrStaticUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, locator.ErrLocationUnavailable):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, download.ErrInvalidArchive):
		return http.StatusBadGateway, err.Error()
	}
	return http.StatusInternalServerError, "An unexpected error occurred"
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)

	var rl *download.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.Remaining.Seconds()))))
	}

	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")

	writeJSON(w, status, errorResponse{Error: msg, Status: status})
}
