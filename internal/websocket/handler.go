package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// UserFunc resolves the authenticated user of a request. ok is false for
// anonymous requests.
type UserFunc func(r *http.Request) (userID int64, ok bool)

// HandleFeed returns an HTTP handler that upgrades authenticated requests to
// a WebSocket and runs them as Hub clients. Anonymous requests get 401.
func HandleFeed(hub *Hub, userOf UserFunc, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userOf(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}

		opts := &ws.AcceptOptions{OriginPatterns: originPatterns}
		if len(originPatterns) == 0 || (len(originPatterns) == 1 && originPatterns[0] == "*") {
			opts = &ws.AcceptOptions{InsecureSkipVerify: true}
		}
		conn, err := ws.Accept(w, r, opts)
		if err != nil {
			logger.Warn("accept", "error", err)
			return
		}

		logger.Debug("feed connected", "user_id", userID)
		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
		logger.Debug("feed disconnected", "user_id", userID)
	}
}
