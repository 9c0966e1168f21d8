package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/prn-tf/devehub/internal/app"
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/navigation"
)

// =============================================================================
// Request Bodies
// =============================================================================

// HashRequest reports a browser hash change.
type HashRequest struct {
	Fragment string `json:"fragment"`
}

// NavigateRequest asks for a programmatic transition.
type NavigateRequest struct {
	View string `json:"view"`
}

// LoginRequest contains the sign-in credential.
type LoginRequest struct {
	Credential string `json:"credential"`
}

// ImpersonateRequest contains the role to assume.
type ImpersonateRequest struct {
	Role string `json:"role"`
}

// =============================================================================
// Routing State
// =============================================================================

func (rt *Router) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.app.State())
}

func (rt *Router) handleView(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	model, err := rt.app.View(r.Context(), app.ViewInput{
		Query:     query.Get("q"),
		Category:  query.Get("category"),
		UserQuery: query.Get("q_users"),
	})
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (rt *Router) handleHash(w http.ResponseWriter, r *http.Request) {
	var req HashRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.app.HandleFragment(req.Fragment))
}

func (rt *Router) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	v, err := navigation.ParseView(req.View)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rt.app.Navigate(v))
}

func (rt *Router) handleTask(w http.ResponseWriter, r *http.Request) {
	rec, ok := rt.app.Task(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, ErrNoSuchTask)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// respondPending answers a deferred intent with 202 and its task record, or
// with the settled record when the caller asked to wait.
func (rt *Router) respondPending(w http.ResponseWriter, r *http.Request, p *app.Pending) {
	if r.URL.Query().Get("wait") != "true" {
		w.Header().Set("Location", "/v1/tasks/"+p.ID())
		writeJSON(w, http.StatusAccepted, p.Record())
		return
	}

	if err := p.Task.Wait(r.Context()); err != nil {
		if r.Context().Err() != nil {
			return
		}
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p.Record())
}

// =============================================================================
// Session
// =============================================================================

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	p, err := rt.app.Login(req.Credential)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.respondPending(w, r, p)
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.app.Logout())
}

func (rt *Router) handleAdminEnter(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.app.AdminEnter())
}

func (rt *Router) handleImpersonate(w http.ResponseWriter, r *http.Request) {
	var req ImpersonateRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	state, err := rt.app.Impersonate(role)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) handleBecomeDeveloper(w http.ResponseWriter, r *http.Request) {
	state, err := rt.app.BecomeDeveloper()
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (rt *Router) handleHome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.app.Home())
}
