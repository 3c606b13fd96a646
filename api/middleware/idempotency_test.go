package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func createRecipeRequest(body, key string) *http.Request {
	req := requestWithPattern(http.MethodPost, "/api/recipes", "/api/recipes/", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	return req
}

func TestRouteTTLSelection(t *testing.T) {
	ttl, ok := routeTTL(http.MethodPost, "/api/recipes")
	require.True(t, ok)
	require.Equal(t, defaultIdempotencyTTL, ttl)

	_, ok = routeTTL(http.MethodPatch, "/api/recipes")
	require.False(t, ok)

	_, ok = routeTTL(http.MethodPost, "/api/auth/token/login")
	require.False(t, ok)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newRateStore(t)
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, createRecipeRequest(`{"name":"soup"}`, ""))
		require.Equal(t, http.StatusCreated, resp.Code)
	}
	require.Equal(t, 2, calls)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newRateStore(t)
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, createRecipeRequest(`{"name":"soup"}`, "abc"))
	require.Equal(t, http.StatusCreated, first.Code)

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, createRecipeRequest(`{"name":"soup"}`, "abc"))
	require.Equal(t, http.StatusCreated, replay.Code)
	require.Equal(t, "application/json", replay.Header().Get("Content-Type"))
	require.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	require.Equal(t, `{"data":{"id":"1"}}`, strings.TrimSpace(replay.Body.String()))
	require.Equal(t, 1, calls)
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	store := newRateStore(t)
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), createRecipeRequest(`{"name":"soup"}`, "xyz"))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, createRecipeRequest(`{"name":"stew"}`, "xyz"))
	require.Equal(t, http.StatusConflict, resp.Code)

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.Equal(t, string(pkgerrors.CodeIdempotency), payload.Error.Code)
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	store := newRateStore(t)
	var calls int
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, createRecipeRequest(`{}`, "retry"))
	require.Equal(t, http.StatusServiceUnavailable, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, createRecipeRequest(`{}`, "retry"))
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, 2, calls)
}
