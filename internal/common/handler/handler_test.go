package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fidelizapp/fideliza-backend/internal/common/errors"
	"github.com/fidelizapp/fideliza-backend/internal/common/response"
	"github.com/fidelizapp/fideliza-backend/internal/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func createTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func createTestContextWithParam(paramName, paramValue string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: paramName, Value: paramValue}}
	return c, w
}

func createTestContextWithQuery(query string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return c, w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	t.Run("nil error is not handled", func(t *testing.T) {
		c, _ := createTestContext()
		assert.False(t, HandleError(c, nil))
	})

	t.Run("app error keeps its code and message", func(t *testing.T) {
		c, w := createTestContext()
		handled := HandleError(c, errors.ErrCustomerNotFound)

		assert.True(t, handled)
		resp := parseResponse(t, w)
		assert.Equal(t, errors.ErrCustomerNotFound.Code, resp.Code)
		assert.Equal(t, "Cliente não encontrado", resp.Message)
	})

	t.Run("plain error becomes an internal error", func(t *testing.T) {
		c, w := createTestContext()
		handled := HandleError(c, assertableError("boom"))

		assert.True(t, handled)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

type assertableError string

func (e assertableError) Error() string { return string(e) }

func TestRequireUserID(t *testing.T) {
	t.Run("missing session writes 401", func(t *testing.T) {
		c, w := createTestContext()
		_, ok := RequireUserID(c)

		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("authenticated session passes through", func(t *testing.T) {
		c, _ := createTestContext()
		c.Set(middleware.ContextKeyUserID, int64(42))

		userID, ok := RequireUserID(c)
		assert.True(t, ok)
		assert.Equal(t, int64(42), userID)
	})
}

func TestRequireEstablishmentID(t *testing.T) {
	c, _ := createTestContext()
	c.Set(middleware.ContextKeyEstablishmentID, int64(7))

	establishmentID, ok := RequireEstablishmentID(c)
	assert.True(t, ok)
	assert.Equal(t, int64(7), establishmentID)
}

func TestParseID(t *testing.T) {
	t.Run("valid id", func(t *testing.T) {
		c, _ := createTestContextWithParam("id", "123")
		id, ok := ParseID(c, "cliente")

		assert.True(t, ok)
		assert.Equal(t, int64(123), id)
	})

	t.Run("invalid id writes 400", func(t *testing.T) {
		c, w := createTestContextWithParam("id", "abc")
		_, ok := ParseID(c, "cliente")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestParseQueryID(t *testing.T) {
	t.Run("absent parameter returns nil", func(t *testing.T) {
		c, _ := createTestContext()
		id, ok := ParseQueryID(c, "customer_id", "cliente")

		assert.True(t, ok)
		assert.Nil(t, id)
	})

	t.Run("present parameter parses", func(t *testing.T) {
		c, _ := createTestContextWithQuery("customer_id=55")
		id, ok := ParseQueryID(c, "customer_id", "cliente")

		require.True(t, ok)
		require.NotNil(t, id)
		assert.Equal(t, int64(55), *id)
	})
}

func TestParseQueryDateRange(t *testing.T) {
	t.Run("end date is pushed to end of day", func(t *testing.T) {
		c, _ := createTestContextWithQuery("from=2026-01-01&to=2026-01-31")
		from, to, ok := ParseQueryDateRange(c)

		require.True(t, ok)
		require.NotNil(t, from)
		require.NotNil(t, to)
		assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *from)
		assert.Equal(t, 23, to.Hour())
	})

	t.Run("invalid date writes 400", func(t *testing.T) {
		c, w := createTestContextWithQuery("from=31-01-2026")
		_, _, ok := ParseQueryDateRange(c)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBindPagination(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		c, _ := createTestContext()
		p := BindPagination(c)

		assert.Equal(t, 1, p.Page)
		assert.Equal(t, 10, p.PageSize)
	})

	t.Run("oversized page size is clamped", func(t *testing.T) {
		c, _ := createTestContextWithQuery("page=2&page_size=9999")
		p := BindPagination(c)

		assert.Equal(t, 2, p.Page)
		assert.LessOrEqual(t, p.PageSize, 100)
	})
}
