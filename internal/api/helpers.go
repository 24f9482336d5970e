package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/utakatalp/goal-forecaster/internal/telemetry"
)

const dateLayout = "2006-01-02"

// APIError is the body of every error response.
type APIError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		telemetry.Errorf("api: encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIError{Error: message})
}

// parseDate reads a YYYY-MM-DD value, falling back to today when empty.
func parseDate(v string, now time.Time) (time.Time, error) {
	if v == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return day, nil
}

// parsePositive reads a positive integer, falling back to def when empty.
func parsePositive(name, v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q, want a positive integer", name, v)
	}
	return n, nil
}

// logWriter turns access log lines into log records.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	telemetry.Infof("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}
