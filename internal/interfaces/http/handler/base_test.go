package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/loomerp/backend/internal/domain/shared"
	"github.com/loomerp/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			err:        shared.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "insufficient stock is a business rule rejection",
			err:        shared.NewDomainError(shared.CodeInsufficientStock, "not enough"),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "INSUFFICIENT_STOCK",
		},
		{
			name:       "wrapped domain error is unwrapped",
			err:        fmt.Errorf("saving batch: %w", shared.NewDomainError(shared.CodeLossExceedsInput, "loss too high")),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "LOSS_EXCEEDS_INPUT",
		},
		{
			name:       "invalid input",
			err:        shared.NewDomainError("INVALID_QUANTITY", "must be positive"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_QUANTITY",
		},
		{
			name:       "unknown errors stay opaque",
			err:        fmt.Errorf("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			r := gin.New()
			r.GET("/fail", func(c *gin.Context) {
				h.HandleError(c, tt.err)
			})

			w := performRequest(r, http.MethodGet, "/fail", "")
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_HandleError_NeverLeaksInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/fail", func(c *gin.Context) {
		h.HandleError(c, fmt.Errorf("dial tcp 10.0.0.3:5432: i/o timeout"))
	})

	w := performRequest(r, http.MethodGet, "/fail", "")
	assert.NotContains(t, w.Body.String(), "10.0.0.3")
}
