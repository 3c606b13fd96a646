package controllers

import (
	"net/http"

	"github.com/angelmondragon/foodgram-backend/api/responses"
	"github.com/angelmondragon/foodgram-backend/internal/cart"
	"github.com/angelmondragon/foodgram-backend/internal/memberships"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	"github.com/angelmondragon/foodgram-backend/pkg/logger"
)

// MembershipAdd puts the recipe on the caller's favorites or shopping cart.
func MembershipAdd(svc memberships.Service, list enums.MembershipList, logg *logger.Logger) http.HandlerFunc {
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
		short, err := svc.Add(r.Context(), userID, recipeID, list)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, short)
	}
}

func MembershipRemove(svc memberships.Service, list enums.MembershipList, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.Remove(r.Context(), userID, recipeID, list); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// ShoppingCartDownload streams the aggregated shopping list as a text attachment.
func ShoppingCartDownload(svc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		download, err := svc.Download(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteAttachment(w, download.Filename, "text/plain; charset=utf-8", []byte(download.Content))
	}
}
