package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"clientcore/internal/core"
	"clientcore/pkg/domain"
)

const maxBodyBytes = 1 << 20

// ClientService is the registry surface the handlers depend on.
type ClientService interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	ListClientsWithRut(ctx context.Context) ([]domain.Client, error)
	CreateClient(ctx context.Context, in domain.CreateClientInput) (domain.Client, core.Result, error)
	AttachRut(ctx context.Context, clientID string, in domain.AccountInput) (domain.Client, core.Result, error)
	AttachSaving(ctx context.Context, clientID string, in domain.AccountInput) (domain.Client, core.Result, error)
	DeleteClient(ctx context.Context, clientID string) (domain.Client, core.Result, error)
	DetachRut(ctx context.Context, clientID string) (domain.Client, core.Result, error)
	DetachSaving(ctx context.Context, clientID, savingID string) (domain.SavingAccount, domain.Client, core.Result, error)
	Ping(ctx context.Context) error
	Policy() domain.Policy
}

var _ ClientService = (*core.Service)(nil)

// Handler serves the client registry API.
type Handler struct {
	Service ClientService
	Logger  core.Logger
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) listClientsWithRut(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClientsWithRut(r.Context())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !h.decode(w, r, &req) {
		return
	}
	client, _, err := h.Service.CreateClient(r.Context(), req.input())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

func (h *Handler) attachRut(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !h.decode(w, r, &req) {
		return
	}
	client, _, err := h.Service.AttachRut(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) attachSaving(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if !h.decode(w, r, &req) {
		return
	}
	client, _, err := h.Service.AttachSaving(r.Context(), chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	removed, _, err := h.Service.DeleteClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removedClientResponse{Removed: removed})
}

func (h *Handler) detachRut(w http.ResponseWriter, r *http.Request) {
	client, _, err := h.Service.DetachRut(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

func (h *Handler) detachSaving(w http.ResponseWriter, r *http.Request) {
	removed, client, _, err := h.Service.DetachSaving(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "accId"))
	if err != nil {
		h.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removedSavingResponse{Removed: removed, Client: client})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	policy := string(h.Service.Policy())
	if err := h.Service.Ping(r.Context()); err != nil {
		h.Logger.Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Policy: policy, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Policy: policy})
}

// decode reads an optional JSON body into dst. An empty body leaves dst
// zero-valued.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Code: codeInvalidBody})
	return false
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, body := failureResponse(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
