package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodgram-backend/api/responses"
	"github.com/angelmondragon/foodgram-backend/api/validators"
	"github.com/angelmondragon/foodgram-backend/internal/subscriptions"
	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
	"github.com/angelmondragon/foodgram-backend/pkg/pagination"
)

const maxRecipesLimit = 1000

func Subscribe(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		authorID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipesLimit, err := validators.ParseQueryInt(r, "recipes_limit", 0, 0, maxRecipesLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		author, err := svc.Subscribe(r.Context(), userID, authorID, recipesLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, author)
	}
}

func Unsubscribe(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		authorID, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Unsubscribe(r.Context(), userID, authorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func SubscriptionList(svc subscriptions.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r, cfg.Pagination.DefaultLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		recipesLimit, err := validators.ParseQueryInt(r, "recipes_limit", 0, 0, maxRecipesLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, total, err := svc.List(r.Context(), userID, params, recipesLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, pagination.NewPage(pageURL(cfg.App.BaseURL(), r), params, total, rows))
	}
}
