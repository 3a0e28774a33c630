package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpark_manager/internal/api/middleware"
	"carpark_manager/internal/domain"
	"carpark_manager/internal/repository/sqlite"
	"carpark_manager/internal/service"
)

type testApp struct {
	router *gin.Engine
	token  string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "carpark.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	authService := service.NewAuthService(sqlite.NewUserRepository(db), "test-secret", time.Hour)
	require.NoError(t, authService.EnsureDefaultAdmin(context.Background(), "admin", "admin"))

	carParkService := service.NewCarParkService(sqlite.NewCarParkRepository(db), &noopPrinter{}, nil)
	require.NoError(t, carParkService.LoadOrCreate(context.Background(), 3, 2.0))

	router := SetupRouter(authService, carParkService, middleware.NewAuthMiddleware(authService))

	app := &testApp{router: router}
	resp := app.do(t, "POST", "/auth/login", gin.H{"username": "admin", "password": "admin"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var auth domain.AuthResponseDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &auth))
	app.token = auth.Token
	return app
}

type noopPrinter struct{}

func (noopPrinter) Print(string) error { return nil }

func (a *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestStateRequiresAuth(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, "GET", "/api/state", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = app.do(t, "GET", "/api/state", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = app.do(t, "GET", "/api/state", nil, app.token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, "POST", "/auth/login", gin.H{"username": "admin", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestParkRemoveFlow(t *testing.T) {
	app := newTestApp(t)

	resp := app.do(t, "POST", "/api/park", gin.H{"plate": "HTTP-1"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	var parked struct {
		Parked bool `json:"parked"`
		Spot   int  `json:"spot"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &parked))
	assert.True(t, parked.Parked)
	assert.Equal(t, 1, parked.Spot)

	resp = app.do(t, "POST", "/api/remove", gin.H{"spot": parked.Spot}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tx))
	assert.Equal(t, "HTTP-1", tx.Plate)
	assert.False(t, tx.Paid)

	// Removing the now-free spot is a 404.
	resp = app.do(t, "POST", "/api/remove", gin.H{"spot": parked.Spot}, app.token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestParkWhenFull(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 3; i++ {
		resp := app.do(t, "POST", "/api/park", gin.H{"plate": "FILL"}, app.token)
		require.Equal(t, http.StatusOK, resp.Code)
	}

	resp := app.do(t, "POST", "/api/park", gin.H{"plate": "OVER"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	var out struct {
		Parked  bool   `json:"parked"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.False(t, out.Parked)
	assert.NotEmpty(t, out.Message)
}

func TestSetupAndRateRequireAdmin(t *testing.T) {
	app := newTestApp(t)

	// Create a plain user and log in as them.
	resp := app.do(t, "POST", "/auth/register", gin.H{"username": "clerk", "password": "clerk1"}, app.token)
	require.Equal(t, http.StatusCreated, resp.Code)
	resp = app.do(t, "POST", "/auth/login", gin.H{"username": "clerk", "password": "clerk1"}, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var auth domain.AuthResponseDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &auth))

	resp = app.do(t, "POST", "/api/setup", gin.H{"capacity": 9}, auth.Token)
	assert.Equal(t, http.StatusForbidden, resp.Code)
	resp = app.do(t, "POST", "/api/rate", gin.H{"rate_per_hour": 5.0}, auth.Token)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = app.do(t, "POST", "/api/setup", gin.H{"capacity": 9}, app.token)
	assert.Equal(t, http.StatusCreated, resp.Code)
	resp = app.do(t, "POST", "/api/rate", gin.H{"rate_per_hour": 5.0}, app.token)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestSetupRejectsBadCapacity(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, "POST", "/api/setup", gin.H{"capacity": -2}, app.token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSearchEndpoint(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, "POST", "/api/park", gin.H{"plate": "FIND-ME"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(t, "GET", "/api/search?q=find", nil, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	var result domain.SearchResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Len(t, result.ParkedCars, 1)
	assert.Equal(t, "FIND-ME", result.ParkedCars[0].Plate)

	resp = app.do(t, "GET", "/api/search", nil, app.token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestEditTransactionEndpoint(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, "POST", "/api/park", gin.H{"plate": "EDIT-1"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = app.do(t, "POST", "/api/remove", gin.H{"spot": 1}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(t, "PUT", "/api/transactions/0", gin.H{"paid": true, "comments": "card"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	var tx domain.Transaction
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tx))
	assert.True(t, tx.Paid)
	assert.Equal(t, "card", tx.Comments)

	resp = app.do(t, "PUT", "/api/transactions/42", gin.H{"paid": true}, app.token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestInvoiceEndpoints(t *testing.T) {
	app := newTestApp(t)
	resp := app.do(t, "POST", "/api/park", gin.H{"plate": "INV-9"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = app.do(t, "POST", "/api/remove", gin.H{"spot": 1}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(t, "GET", "/api/invoice/tx/0", nil, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "License Plate: INV-9")

	resp = app.do(t, "GET", "/api/invoice/daily", nil, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "DAILY INVOICE")
	assert.Contains(t, resp.Body.String(), "INV-9")

	resp = app.do(t, "GET", "/api/invoice/tx/7", nil, app.token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSnapshotEndpoints(t *testing.T) {
	app := newTestApp(t)
	path := filepath.Join(t.TempDir(), "snap.json")

	resp := app.do(t, "POST", "/api/park", gin.H{"plate": "SNAP-1"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	resp = app.do(t, "POST", "/api/save", gin.H{"path": path}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(t, "POST", "/api/park", gin.H{"plate": "SNAP-2"}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(t, "POST", "/api/load", gin.H{"path": path}, app.token)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = app.do(t, "GET", "/api/state", nil, app.token)
	require.Equal(t, http.StatusOK, resp.Code)
	var state domain.StateDTO
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &state))
	require.Len(t, state.ParkedCars, 1)
	assert.Equal(t, "SNAP-1", state.ParkedCars[0].Plate)

	resp = app.do(t, "POST", "/api/load", gin.H{"path": filepath.Join(t.TempDir(), "none.json")}, app.token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
