package controllers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/foodgram-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	return id, nil
}

// currentUser returns the authenticated user id placed in the context by middleware.Auth.
func currentUser(r *http.Request) (uuid.UUID, error) {
	viewer := middleware.ViewerFromContext(r.Context())
	if viewer == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return *viewer, nil
}

// pageURL rebuilds the absolute URL of the request so page links survive proxies.
func pageURL(baseURL string, r *http.Request) *url.URL {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		u := *r.URL
		return &u
	}
	u := *base
	u.Path = strings.TrimRight(base.Path, "/") + r.URL.Path
	u.RawQuery = r.URL.RawQuery
	return &u
}
