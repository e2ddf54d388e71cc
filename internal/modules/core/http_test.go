package core

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_URLParamID_Parses_Route_Parameter(t *testing.T) {
	// Arrange
	id := uuid.New()
	var parsed, malformed uuid.UUID

	router := chi.NewRouter()
	router.Get("/invites/{id}", func(w http.ResponseWriter, r *http.Request) {
		parsed = URLParamID(r, "id")
		malformed = URLParamID(r, "missing")
	})

	// Act
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/invites/"+id.String(), nil))

	// Assert
	require.Equal(t, id, parsed)
	require.Equal(t, uuid.Nil, malformed)
}

func Test_CorrelationIDHTTPMiddleware_Keeps_Incoming_Id(t *testing.T) {
	// Arrange
	var seen interface{}
	handler := CorrelationIDHTTPMiddleware(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Context().Value(CorrelationIDContextKey)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	rec := httptest.NewRecorder()

	// Act
	handler(rec, req)

	// Assert
	require.Equal(t, "abc-123", seen)
	require.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
}
