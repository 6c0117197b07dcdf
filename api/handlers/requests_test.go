package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/cleardesk/api/handlers"
	errs "github.com/cleardesk/cleardesk/pkg/errors"
)

// The binding path rejects before the service is touched, so a nil
// service is enough to exercise it.
func bindingTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewRequestHandler(nil)
	r.POST("/requests", h.Create)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateBindingFailureListsFields(t *testing.T) {
	r := bindingTestRouter()

	w := postJSON(r, "/requests", `{"direction":"hold","shares":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var pd errs.ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pd))
	assert.Equal(t, errs.TypeValidationError, pd.Type)
	require.Len(t, pd.Errors, 3)

	fields := make(map[string]string, len(pd.Errors))
	for _, fe := range pd.Errors {
		fields[fe.Field] = fe.Code
	}
	assert.Equal(t, "required", fields["identifier"])
	assert.Equal(t, "oneof", fields["direction"])
	assert.Equal(t, "required", fields["shares"])
}

func TestCreateMalformedJSONIsValidationProblem(t *testing.T) {
	r := bindingTestRouter()

	w := postJSON(r, "/requests", `{"identifier":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var pd errs.ProblemDetails
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pd))
	assert.Equal(t, errs.TypeValidationError, pd.Type)
	assert.Empty(t, pd.Errors)
	assert.Contains(t, pd.Detail, "invalid request body")
}
