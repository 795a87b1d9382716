package handler

import (
	"net/http"
)

func (h *Handler) SaveVersion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	v, created, err := h.svc.SaveVersion(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"version": v, "created": created})
}

func (h *Handler) ActivateVersion(w http.ResponseWriter, r *http.Request) {
	versionID, err := pathID(r, "versionID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.ActivateVersion(r.Context(), id, versionID)
		return toView(p), err
	})
}

func (h *Handler) DiffVersions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.respondProject(w, r, func(id string) (any, error) {
		diff, err := h.svc.DiffVersions(id, q.Get("a"), q.Get("b"))
		if err != nil {
			return nil, err
		}
		return map[string]any{"diff": diff}, nil
	})
}
