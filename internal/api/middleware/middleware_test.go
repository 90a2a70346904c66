package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

type nopLogger struct{}

func (nopLogger) Warn(string, ...interface{}) {}

func TestAuth(t *testing.T) {
	var (
		gotID    int64
		gotStaff bool
	)
	h := Auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		gotStaff = IsStaff(r.Context())
	}))

	tests := []struct {
		name      string
		userID    string
		role      string
		wantCode  int
		wantID    int64
		wantStaff bool
	}{
		{name: "client by default", userID: "7", wantCode: http.StatusOK, wantID: 7},
		{name: "staff", userID: "100", role: "Staff", wantCode: http.StatusOK, wantID: 100, wantStaff: true},
		{name: "missing id", wantCode: http.StatusUnauthorized},
		{name: "bad id", userID: "abc", wantCode: http.StatusUnauthorized},
		{name: "negative id", userID: "-1", wantCode: http.StatusUnauthorized},
		{name: "unknown role", userID: "7", role: "admin", wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotStaff = 0, false
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userID != "" {
				req.Header.Set(HeaderUserID, tt.userID)
			}
			if tt.role != "" {
				req.Header.Set(HeaderUserRole, tt.role)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantID, gotID)
			assert.Equal(t, tt.wantStaff, gotStaff)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2, nopLogger{})
	l.now = func() time.Time { return now }

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	call := func(userID int64) int {
		req := httptest.NewRequest(http.MethodPost, "/appointments", nil)
		req = req.WithContext(WithUser(req.Context(), userID, RoleClient))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call(7))
	assert.Equal(t, http.StatusOK, call(7))
	assert.Equal(t, http.StatusTooManyRequests, call(7))

	// Другой клиент не затронут
	assert.Equal(t, http.StatusOK, call(8))

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, call(7))

	// Неактивные ограничители удаляются
	now = now.Add(limiterIdleTTL + limiterSweepEvery + time.Second)
	assert.Equal(t, http.StatusOK, call(9))
	assert.Len(t, l.limiters, 1)
}

func TestMetricsMiddleware(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), "test")

	r := mux.NewRouter()
	r.Use(MetricsMiddleware(m))
	r.HandleFunc("/appointments/{appointmentId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	for _, id := range []string{"1", "2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/appointments/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/appointments/{appointmentId}", "404")))
}
