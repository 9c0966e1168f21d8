package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prn-tf/devehub/internal/app"
	"github.com/prn-tf/devehub/internal/domain"
	"github.com/prn-tf/devehub/internal/service"
)

// FeedbackRequest contains a message for a project's developer.
type FeedbackRequest struct {
	Message string `json:"message"`
}

// MoveRequest contains a ranking move.
type MoveRequest struct {
	Direction string `json:"direction"`
}

// StatusRequest contains a moderation status.
type StatusRequest struct {
	Status string `json:"status"`
}

// CreateProjectRequest contains a new listing.
type CreateProjectRequest struct {
	service.ProjectFields
	Draft bool `json:"draft"`
}

// CreateProjectResponse is the created listing plus its integration
// secret, returned once to the owning developer.
type CreateProjectResponse struct {
	*domain.Project
	Secret string `json:"secret"`
}

// PayoutMethodRequest contains a payout destination change.
type PayoutMethodRequest struct {
	Kind  string `json:"kind"`
	Email string `json:"email"`
	Code  string `json:"code"`
}

// =============================================================================
// Buyer Handlers
// =============================================================================

func (rt *Router) handleSelectProject(w http.ResponseWriter, r *http.Request) {
	loc, err := rt.app.SelectProject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (rt *Router) handlePurchase(w http.ResponseWriter, r *http.Request) {
	p, err := rt.app.Purchase(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.respondPending(w, r, p)
}

func (rt *Router) handleLaunch(w http.ResponseWriter, r *http.Request) {
	out, err := rt.app.Launch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (rt *Router) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	p, err := rt.app.Feedback(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	rt.respondPending(w, r, p)
}

func (rt *Router) handleRefund(w http.ResponseWriter, r *http.Request) {
	license, err := rt.app.Refund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, license)
}

func (rt *Router) handleReceipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := rt.app.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// =============================================================================
// Admin Handlers
// =============================================================================

func (rt *Router) handleForceRefund(w http.ResponseWriter, r *http.Request) {
	license, err := rt.app.ForceRefund(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, license)
}

func (rt *Router) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := rt.app.DeleteUser(r.Context(), chi.URLParam(r, "id"), confirmed); err != nil {
		rt.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) handleMoveRank(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	dir, err := service.ParseDirection(req.Direction)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	order, err := rt.app.MoveRank(r.Context(), chi.URLParam(r, "id"), dir)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (rt *Router) handleSetProjectStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	project, err := rt.app.SetProjectStatus(r.Context(), chi.URLParam(r, "id"), domain.ProjectStatus(req.Status))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (rt *Router) handleRunPayoutCycle(w http.ResponseWriter, r *http.Request) {
	result, err := rt.app.TriggerPayoutCycle(r.Context())
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// Developer Handlers
// =============================================================================

func (rt *Router) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	project, err := rt.app.CreateProject(r.Context(), app.CreateProjectInput{
		Fields: req.ProjectFields,
		Draft:  req.Draft,
	})
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateProjectResponse{Project: project, Secret: project.Secret})
}

func (rt *Router) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	var fields service.ProjectFields
	if err := decodeJSON(r, &fields); err != nil {
		rt.fail(w, r, err)
		return
	}
	project, err := rt.app.UpdateProject(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (rt *Router) handleUpdatePayoutMethod(w http.ResponseWriter, r *http.Request) {
	var req PayoutMethodRequest
	if err := decodeJSON(r, &req); err != nil {
		rt.fail(w, r, err)
		return
	}
	method, err := rt.app.UpdatePayoutMethod(r.Context(), app.PayoutMethodInput{
		Kind:  domain.PayoutMethodKind(req.Kind),
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, method)
}
