package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	httperr "github.com/aevon-lab/salespulse/internal/core/errors"
	"github.com/aevon-lab/salespulse/internal/core/storage"
	"github.com/aevon-lab/salespulse/internal/core/storage/memory"
	storagemocks "github.com/aevon-lab/salespulse/internal/mocks/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, svc *Service, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	svc.RegisterRoutes(r.Group("/api/analytics"))

	req := httptest.NewRequest(method, "/api/analytics/history", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestHistory_ListsNewestFirst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := NewService(memory.NewStore(0))

	for _, date := range []string{"2024-01-01", "2024-03-01", "2024-02-01"} {
		body := fmt.Sprintf(`{"reportDate":"%sT00:00:00Z","totalRevenue":100,"avgOrderValue":50}`, date)
		resp := do(t, svc, http.MethodPost, body)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	}

	resp := do(t, svc, http.MethodGet, "")
	require.Equal(t, http.StatusOK, resp.Code)

	var reports []v1.Report
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &reports))
	require.Len(t, reports, 3)
	assert.Equal(t, time.March, reports[0].ReportDate.Month())
	assert.Equal(t, time.February, reports[1].ReportDate.Month())
	assert.Equal(t, time.January, reports[2].ReportDate.Month())
}

func TestHistory_SaveDefaultsReportDate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	now := time.Date(2026, 10, 18, 7, 0, 0, 0, time.UTC)
	archive := storagemocks.NewReportArchive(t)
	archive.EXPECT().
		AppendReport(mock.Anything, mock.MatchedBy(func(r *v1.Report) bool {
			return r.ReportDate.Equal(now) && r.TotalRevenue.String() == "700" && r.AvgOrderValue.String() == "350"
		})).
		RunAndReturn(func(_ context.Context, r *v1.Report) (*v1.Report, error) {
			stored := *r
			stored.ID = "42"
			return &stored, nil
		}).
		Once()

	svc := NewService(archive)
	svc.nowFn = func() time.Time { return now }

	resp := do(t, svc, http.MethodPost, `{"totalRevenue":700,"avgOrderValue":350}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.JSONEq(t,
		`{"id":"42","reportDate":"2026-10-18T07:00:00Z","totalRevenue":700,"avgOrderValue":350}`,
		resp.Body.String())
}

func TestHistory_SaveValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		body         string
		expectedType string
	}{
		{"missing totalRevenue", `{"avgOrderValue":1}`, httperr.HttpValidationError},
		{"missing avgOrderValue", `{"totalRevenue":1}`, httperr.HttpValidationError},
		{"negative totalRevenue", `{"totalRevenue":-1,"avgOrderValue":1}`, httperr.HttpValidationError},
		{"malformed body", `{"totalRevenue":`, httperr.HttpInvalidJsonError},
		{"non-numeric revenue", `{"totalRevenue":"lots","avgOrderValue":1}`, httperr.HttpInvalidJsonError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(storagemocks.NewReportArchive(t))
			resp := do(t, svc, http.MethodPost, tc.body)

			require.Equal(t, http.StatusBadRequest, resp.Code)
			var body httperr.ErrorResponse
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
			assert.Equal(t, tc.expectedType, body.ErrorType)
		})
	}
}

func TestHistory_StoreFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	archive := storagemocks.NewReportArchive(t)
	archive.EXPECT().
		ListReports(mock.Anything).
		Return(nil, fmt.Errorf("%w: list reports: %w", storage.ErrStoreUnavailable, errors.New("dial tcp"))).
		Once()
	archive.EXPECT().
		AppendReport(mock.Anything, mock.Anything).
		Return(nil, errors.New("disk full")).
		Once()

	svc := NewService(archive)

	resp := do(t, svc, http.MethodGet, "")
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	resp = do(t, svc, http.MethodPost, `{"totalRevenue":1,"avgOrderValue":1}`)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestHistory_EmptyListIsArray(t *testing.T) {
	gin.SetMode(gin.TestMode)

	resp := do(t, NewService(memory.NewStore(0)), http.MethodGet, "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.JSONEq(t, `[]`, resp.Body.String())
}
