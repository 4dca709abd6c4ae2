package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainedResponderUsesFirstMatchingMapper(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sentinel := errors.New("out of stock")
	responder := NewChainedResponder("",
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, sentinel) {
				return NewInsufficientStockProblem("p-1", "Widget", 60, 40), true
			}
			return ProblemDetail{}, false
		},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/orders", nil)
	responder.RespondError(c, sentinel)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeInsufficientStock, body.Type)
	assert.Equal(t, "/orders", body.Instance)
	assert.Equal(t, float64(40), body.Extensions["available"])
}

func TestRespondErrorHidesUnknownErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/orders/1", nil)

	NewChainedResponder("https://shop.example").RespondError(c, errors.New("pq: connection reset"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
	assert.Contains(t, rec.Body.String(), "https://shop.example/problems/internal-error")
	require.Len(t, c.Errors, 1)
}

func TestWithExtensionDoesNotMutateTemplate(t *testing.T) {
	_ = ErrConflict.WithExtension("retry", true)
	assert.Nil(t, ErrConflict.Extensions)
}
