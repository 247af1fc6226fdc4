package http

import (
	"net/http"

	"liveintent/internal/route"
)

// ViewHandler tells the client which view a location lands on.
type ViewHandler struct{}

type viewResponse struct {
	View      route.View `json:"view"`
	Path      string     `json:"path"`
	Requested route.View `json:"requested"`
}

// Resolve handles GET /api/views/resolve?location=...&from=...
func (ViewHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	query := r.URL.Query()

	current := route.State{
		View:          route.Resolve(query.Get("from")),
		Authenticated: s.Auth.State().IsAuthenticated,
	}
	requested := route.Resolve(query.Get("location"))
	next := route.Transition(current, route.NavigateTo(requested))

	writeJSON(w, http.StatusOK, viewResponse{
		View:      next.View,
		Path:      next.View.Path(),
		Requested: requested,
	})
}
