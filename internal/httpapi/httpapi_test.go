package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/roomrelay/signaling/internal/codegen"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExistence struct{ occupied map[string]bool }

func (f *fakeExistence) Exists(roomID string) bool { return f.occupied[roomID] }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	gen := codegen.New(&fakeExistence{occupied: map[string]bool{}}, 6, 10)
	router := gin.New()
	api := New(gen)
	api.RegisterShell(router)
	api.RegisterCreateCode(router)
	return router
}

func TestServeShell_RootHasEmptyRoomID(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-room-id=""`)
}

func TestServeShell_RoomParamIsInjected(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/abc123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-room-id="abc123"`)
}

func TestCreateCode_ReturnsSixCharCode(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/create_code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `"code":"[a-z0-9]{6}"`, rec.Body.String())
}

func TestCreateCode_ExhaustedReturnsServiceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	gen := codegen.New(&alwaysOccupied{}, 6, 3)
	router := gin.New()
	New(gen).RegisterCreateCode(router)

	req := httptest.NewRequest(http.MethodPost, "/create_code", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type alwaysOccupied struct{}

func (alwaysOccupied) Exists(string) bool { return true }
