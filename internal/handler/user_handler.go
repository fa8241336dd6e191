package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/errs"
	"dmchat/internal/pkg/resp"
)

// HandleListUsers returns every user.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Users.List(r.Context())
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, users)
	}
}

// HandleSearchUsers returns users whose username contains ?query=.
func HandleSearchUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := deps.Users.Search(r.Context(), r.URL.Query().Get("query"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, users)
	}
}

// HandleGetUser returns one user.
func HandleGetUser(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := deps.Users.Get(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, u)
	}
}

// HandleSetOnline updates the caller's own presence flag from ?isOnline=.
func HandleSetOnline(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		userID := chi.URLParam(r, "userId")
		if userID != identity.ID {
			resp.RespondError(w, r, errs.NewError(errs.ErrForbidden))
			return
		}

		online, err := strconv.ParseBool(r.URL.Query().Get("isOnline"))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		u, err := deps.Users.SetOnline(r.Context(), userID, online)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, u)
	}
}
