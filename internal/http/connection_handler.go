package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"liveintent/internal/connection"
	"liveintent/internal/remote"
)

// ConnectionHandler exposes the TikTok connection operations of the current session.
type ConnectionHandler struct {
	logger *slog.Logger
}

func NewConnectionHandler(logger *slog.Logger) *ConnectionHandler {
	return &ConnectionHandler{logger: logger}
}

type connectionResponse struct {
	Connection connection.State `json:"connection"`
	Error      string           `json:"error,omitempty"`
}

type handlePayload struct {
	Handle string `json:"handle"`
}

// Get handles GET /api/connection.
func (h *ConnectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, connectionResponse{Connection: s.Connection.State()})
}

// UpdateHandle handles PUT /api/connection/handle.
func (h *ConnectionHandler) UpdateHandle(w http.ResponseWriter, r *http.Request) {
	var payload handlePayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, m *connection.Manager) error {
		return m.UpdateTikTokHandle(ctx, payload.Handle)
	})
}

// Connect handles POST /api/connection/connect.
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, m *connection.Manager) error {
		return m.ConnectRealTikTok(ctx)
	})
}

// DevHandle handles POST /api/connection/dev-handle.
func (h *ConnectionHandler) DevHandle(w http.ResponseWriter, r *http.Request) {
	var payload handlePayload
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeJSONError(w, err)
		return
	}
	h.run(w, r, func(ctx context.Context, m *connection.Manager) error {
		return m.ConnectDevHandle(ctx, payload.Handle)
	})
}

// Disconnect handles DELETE /api/connection.
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, func(ctx context.Context, m *connection.Manager) error {
		return m.Disconnect(ctx)
	})
}

func (h *ConnectionHandler) run(w http.ResponseWriter, r *http.Request, op func(context.Context, *connection.Manager) error) {
	s := SessionFromContext(r.Context())

	err := op(r.Context(), s.Connection)
	resp := connectionResponse{Connection: s.Connection.State()}
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	status := connectionErrorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("connection operation", "error", err)
	}
	resp.Error = connection.Message(err)
	writeJSON(w, status, resp)
}

func connectionErrorStatus(err error) int {
	var updateErr *remote.RemoteUpdateError
	switch {
	case errors.Is(err, connection.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, connection.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, connection.ErrBusy), errors.Is(err, connection.ErrUserChanged):
		return http.StatusConflict
	case errors.Is(err, connection.ErrDevOnly):
		return http.StatusForbidden
	case errors.As(err, &updateErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
