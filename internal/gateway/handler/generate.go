package handler

import (
	"net/http"
	"strconv"

	"promptlab/internal/gateway/service/workspace"
)

func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var opts workspace.GenerateOptions
	if err := decodeOptionalJSON(r, &opts); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.Generate(r.Context(), id, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res.ImageURL = resultImagePath(id, res.ID, res.ImageURL)
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resultID, err := pathID(r, "resultID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteResult(r.Context(), id, resultID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResultImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	resultID, err := pathID(r, "resultID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	mimeType, data, err := h.svc.ResultImage(r.Context(), id, resultID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
