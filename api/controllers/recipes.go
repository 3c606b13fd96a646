package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/foodgram-backend/api/middleware"
	"github.com/angelmondragon/foodgram-backend/api/responses"
	"github.com/angelmondragon/foodgram-backend/api/validators"
	"github.com/angelmondragon/foodgram-backend/internal/recipes"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/pagination"
)

func RecipeCreate(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body recipes.CreateRecipeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := svc.Create(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, recipe)
	}
}

func RecipeUpdate(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipeID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body recipes.UpdateRecipeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := svc.Update(r.Context(), userID, recipeID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipe)
	}
}

func RecipeDelete(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipeID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), userID, recipeID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func RecipeGet(svc recipes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipeID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipe, err := svc.Get(r.Context(), middleware.ViewerFromContext(r.Context()), recipeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, recipe)
	}
}

// RecipeList supports author, repeated tags, is_favorited and is_in_shopping_cart filters.
func RecipeList(svc recipes.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePagination(r, cfg.Pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query, err := parseRecipeQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, total, err := svc.List(r.Context(), middleware.ViewerFromContext(r.Context()), query, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pagination.NewPage(pageURL(cfg.App.BaseURL(), r), params, total, rows))
	}
}

func parseRecipeQuery(r *http.Request) (recipes.ListQuery, error) {
	var query recipes.ListQuery
	author, err := validators.ParseQueryUUID(r, "author")
	if err != nil {
		return query, err
	}
	query.AuthorID = author

	for _, raw := range r.URL.Query()["tags"] {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				query.TagSlugs = append(query.TagSlugs, slug)
			}
		}
	}

	if query.IsFavorited, err = validators.ParseQueryFlag(r, "is_favorited"); err != nil {
		return query, err
	}
	if query.IsInShoppingCart, err = validators.ParseQueryFlag(r, "is_in_shopping_cart"); err != nil {
		return query, err
	}
	return query, nil
}
