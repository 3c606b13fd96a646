package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/foodgram-backend/api/responses"
	"github.com/angelmondragon/foodgram-backend/internal/shortlinks"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
)

// RecipeLink returns the public short link of a recipe, assigning a slug if
// needed. The body is the bare {"short-link": url} object.
func RecipeLink(svc shortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		link, err := svc.Link(r.Context(), recipeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, link)
	}
}

func ShortLinkRedirect(svc shortlinks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := svc.Resolve(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		http.Redirect(w, r, "/recipes/"+recipeID.String(), http.StatusFound)
	}
}
