package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"dmchat/internal/pkg/logx"
)

// HandleWebSocket upgrades /ws/chat?token=... and hands the connection to the
// gateway. Token validation happens after the upgrade so a bad token gets a
// close frame with a reason instead of a bare HTTP error.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Warn("Failed to upgrade connection to WebSocket", "error", err)
			return
		}

		deps.Gateway.ServeConn(r.Context(), conn, r.URL.Query().Get("token"))
	}
}
