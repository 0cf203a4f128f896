package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"shopfront.dev/pkg/shopfront/logging"
	"shopfront.dev/pkg/shopfront/testutil"
)

var (
	errConnRefused = errors.New("dial tcp: connection refused")
	errAuth        = errors.New("NOAUTH Authentication required")
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	return db, mock
}

func expectPostgres(mock sqlmock.Sqlmock, up bool) {
	if up {
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		return
	}

	mock.ExpectQuery("SELECT 1").WillReturnError(errConnRefused)
}

func expectRedis(cache *MockCacheStore, up bool) {
	if up {
		cache.EXPECT().Ping(gomock.Any()).Return(redis.NewStatusResult("PONG", nil))

		return
	}

	cache.EXPECT().Ping(gomock.Any()).Return(redis.NewStatusResult("", errAuth))
}

func quietLogger() Logger {
	return logging.NewMockLogger(logging.FATAL)
}

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		desc     string
		postgres bool
		redis    bool
		expected Report
	}{
		{"both reachable", true, true, Report{Status: StatusOK, Postgres: true, Redis: true}},
		{"postgres down", false, true, Report{Status: StatusError, Postgres: false, Redis: true}},
		{"redis down", true, false, Report{Status: StatusError, Postgres: true, Redis: false}},
		{"both down", false, false, Report{Status: StatusError, Postgres: false, Redis: false}},
	}

	for i, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			db, mock := newSQLMock(t)
			cache := NewMockCacheStore(gomock.NewController(t))

			expectPostgres(mock, tc.postgres)
			expectRedis(cache, tc.redis)

			report := New(db, cache, WithLogger(quietLogger())).Check(context.Background())

			assert.Equal(t, tc.expected, report, "TEST[%d], Failed.\n%s", i, tc.desc)
			assert.Equal(t, report.Postgres && report.Redis, report.Healthy())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestChecker_ServeHTTP_AlwaysOK(t *testing.T) {
	tests := []struct {
		desc     string
		postgres bool
		redis    bool
		body     string
	}{
		{"healthy", true, true, `{"status":"ok","postgres":true,"redis":true}`},
		{"postgres down", false, true, `{"status":"error","postgres":false,"redis":true}`},
		{"redis down", true, false, `{"status":"error","postgres":true,"redis":false}`},
		{"both down", false, false, `{"status":"error","postgres":false,"redis":false}`},
	}

	for i, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			db, mock := newSQLMock(t)
			cache := NewMockCacheStore(gomock.NewController(t))

			expectPostgres(mock, tc.postgres)
			expectRedis(cache, tc.redis)

			rec := httptest.NewRecorder()
			New(db, cache, WithLogger(quietLogger())).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

			assert.Equal(t, http.StatusOK, rec.Code, "TEST[%d], Failed.\n%s", i, tc.desc)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.body, rec.Body.String(), "TEST[%d], Failed.\n%s", i, tc.desc)
		})
	}
}

func TestChecker_ServeHTTP_FailureStatus(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))
	checker := New(db, cache, WithLogger(quietLogger()), WithFailureStatus(http.StatusServiceUnavailable))

	expectPostgres(mock, true)
	expectRedis(cache, false)

	rec := httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"error","postgres":true,"redis":false}`, rec.Body.String())

	expectPostgres(mock, true)
	expectRedis(cache, true)

	rec = httptest.NewRecorder()
	checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","postgres":true,"redis":true}`, rec.Body.String())
}

func TestWithFailureStatus_IgnoresOtherCodes(t *testing.T) {
	c := New(nil, nil, WithFailureStatus(http.StatusTeapot))

	assert.Equal(t, http.StatusOK, c.failureStatus)
}

func TestReport_JSONShape(t *testing.T) {
	b, err := json.Marshal(Report{Status: StatusError, Postgres: true, Redis: false})
	require.NoError(t, err)

	var fields map[string]any

	require.NoError(t, json.Unmarshal(b, &fields))

	assert.Len(t, fields, 3)
	assert.IsType(t, "", fields["status"])
	assert.IsType(t, true, fields["postgres"])
	assert.IsType(t, true, fields["redis"])
}

func TestChecker_Check_UnexpectedSentinel(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(2))
	expectRedis(cache, true)

	var report Report

	logs := testutil.StderrOutputForFunc(func() {
		report = New(db, cache, WithLogger(logging.NewMockLogger(logging.ERROR))).Check(context.Background())
	})

	assert.Equal(t, Report{Status: StatusError, Postgres: false, Redis: true}, report)
	assert.Contains(t, logs, "health check for postgres failed")
	assert.Contains(t, logs, "returned 2")
}

func TestChecker_Check_ScanError(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow("one"))
	expectRedis(cache, true)

	report := New(db, cache, WithLogger(quietLogger())).Check(context.Background())

	assert.False(t, report.Postgres)
	assert.Equal(t, StatusError, report.Status)
}

func TestChecker_Check_LogsEachFailure(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	expectPostgres(mock, false)
	expectRedis(cache, false)

	logs := testutil.StderrOutputForFunc(func() {
		New(db, cache, WithLogger(logging.NewMockLogger(logging.ERROR))).Check(context.Background())
	})

	assert.Contains(t, logs, "health check for postgres failed: dial tcp: connection refused")
	assert.Contains(t, logs, "health check for redis failed: NOAUTH Authentication required")
}

func TestChecker_Check_NoCaching(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))
	checker := New(db, cache, WithLogger(quietLogger()))

	expectPostgres(mock, true)
	expectRedis(cache, true)

	first := checker.Check(context.Background())

	expectPostgres(mock, true)
	expectRedis(cache, true)

	second := checker.Check(context.Background())

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet(), "every call must reach the store")

	expectPostgres(mock, false)
	expectRedis(cache, true)

	assert.Equal(t, Report{Status: StatusError, Postgres: false, Redis: true}, checker.Check(context.Background()))
}

func TestChecker_Check_NilHandles(t *testing.T) {
	report := New(nil, nil, WithLogger(quietLogger())).Check(context.Background())

	assert.Equal(t, Report{Status: StatusError, Postgres: false, Redis: false}, report)
}

func TestChecker_Check_TimeoutBoundsHungStore(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	expectPostgres(mock, true)
	// the hung store ignores its context entirely
	cache.EXPECT().Ping(gomock.Any()).DoAndReturn(func(context.Context) *redis.StatusCmd {
		<-release

		return redis.NewStatusResult("PONG", nil)
	})

	start := time.Now()
	report := New(db, cache, WithLogger(quietLogger()), WithTimeout(50*time.Millisecond)).Check(context.Background())

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, Report{Status: StatusError, Postgres: true, Redis: false}, report)
}

func TestChecker_Check_SlowQueryHonoursTimeout(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	mock.ExpectQuery("SELECT 1").WillDelayFor(time.Second).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	expectRedis(cache, true)

	report := New(db, cache, WithLogger(quietLogger()), WithTimeout(20*time.Millisecond)).Check(context.Background())

	assert.False(t, report.Postgres)
	assert.True(t, report.Redis)
}

func TestChecker_Check_PanickingProbe(t *testing.T) {
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	expectPostgres(mock, true)
	cache.EXPECT().Ping(gomock.Any()).DoAndReturn(func(context.Context) *redis.StatusCmd {
		panic("client closed")
	})

	var report Report

	logs := testutil.StderrOutputForFunc(func() {
		report = New(db, cache, WithLogger(logging.NewMockLogger(logging.ERROR))).Check(context.Background())
	})

	assert.Equal(t, Report{Status: StatusError, Postgres: true, Redis: false}, report)
	assert.Contains(t, logs, "probe panicked: client closed")
}

func TestChecker_Check_CancelledRequest(t *testing.T) {
	db, _ := newSQLMock(t)
	cache := NewMockCacheStore(gomock.NewController(t))

	cache.EXPECT().Ping(gomock.Any()).DoAndReturn(func(ctx context.Context) *redis.StatusCmd {
		return redis.NewStatusResult("", ctx.Err())
	}).AnyTimes()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(db, cache, WithLogger(quietLogger())).Check(ctx)

	assert.Equal(t, Report{Status: StatusError, Postgres: false, Redis: false}, report)
}

func TestChecker_Check_RecordsMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(ctrl)
	metrics := NewMockMetrics(ctrl)

	expectPostgres(mock, true)
	expectRedis(cache, false)

	metrics.EXPECT().IncrementCounter(gomock.Any(), "app_health_probe_total", "store", "postgres", "result", "up")
	metrics.EXPECT().IncrementCounter(gomock.Any(), "app_health_probe_total", "store", "redis", "result", "down")
	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_health_probe_duration", gomock.Any(), "store", "postgres")
	metrics.EXPECT().RecordHistogram(gomock.Any(), "app_health_probe_duration", gomock.Any(), "store", "redis")

	New(db, cache, WithLogger(quietLogger()), WithMetrics(metrics)).Check(context.Background())
}

func TestChecker_Check_WithMockLogger(t *testing.T) {
	ctrl := gomock.NewController(t)
	db, mock := newSQLMock(t)
	cache := NewMockCacheStore(ctrl)
	logger := NewMockLogger(ctrl)

	expectPostgres(mock, true)
	expectRedis(cache, false)

	logger.EXPECT().Errorf("health check for %s failed: %v", "redis", errAuth)

	New(db, cache, WithLogger(logger)).Check(context.Background())
}

func TestWithTimeout_IgnoresNonPositive(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(nil, nil, WithTimeout(0)).timeout)
	assert.Equal(t, time.Second, New(nil, nil, WithTimeout(time.Second)).timeout)
}
