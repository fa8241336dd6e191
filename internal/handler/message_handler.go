package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"dmchat/internal/app/message"
	"dmchat/internal/pkg/auth/jwt"
	"dmchat/internal/pkg/req"
	"dmchat/internal/pkg/resp"
)

type SendMessageInput struct {
	ReceiverID string `json:"receiverId"`
	Content    string `json:"content"`
	Type       string `json:"type,omitempty"`
}

// HandleSendMessage persists a message from the caller and pushes it to the
// recipient's realtime connection when one is open.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input SendMessageInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		m, err := deps.Messages.Send(r.Context(), identity.ID, input.ReceiverID, input.Content, message.Type(input.Type))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}

		deps.Gateway.Deliver(r.Context(), m)

		resp.RespondSuccess(w, r, m)
	}
}

// HandleGetConversation returns the caller's conversation with {otherUserId}, oldest first.
func HandleGetConversation(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		msgs, err := deps.Messages.History(r.Context(), identity.ID, chi.URLParam(r, "otherUserId"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, msgs)
	}
}

// HandleUnreadCount returns the number of unread messages addressed to the caller.
func HandleUnreadCount(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		n, err := deps.Messages.UnreadCount(r.Context(), identity.ID)
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, n)
	}
}

// HandleMarkRead marks one message addressed to the caller read.
func HandleMarkRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		m, err := deps.Messages.MarkRead(r.Context(), identity.ID, chi.URLParam(r, "messageId"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, m)
	}
}

// HandleMarkAllRead marks every unread message from {senderId} to the caller read.
func HandleMarkAllRead(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		msgs, err := deps.Messages.MarkAllRead(r.Context(), identity.ID, chi.URLParam(r, "senderId"))
		if err != nil {
			resp.RespondErr(w, r, err)
			return
		}
		resp.RespondSuccess(w, r, msgs)
	}
}
