package handler

import (
	"net/http"

	"promptlab/internal/prompt"
)

// respondProject answers a mutation with the updated project view.
func (h *Handler) respondProject(w http.ResponseWriter, r *http.Request, run func(id string) (any, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := run(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) AddSlot(w http.ResponseWriter, r *http.Request) {
	var slot prompt.Slot
	if err := decodeOptionalJSON(r, &slot); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.AddSlot(r.Context(), id, slot)
		return toView(p), err
	})
}

func (h *Handler) ReplaceSlots(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Slots []prompt.Slot `json:"slots"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.ReplaceSlots(r.Context(), id, in.Slots)
		return toView(p), err
	})
}

func (h *Handler) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := pathID(r, "slotID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch prompt.SlotPatch
	if err := decodeJSON(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.UpdateSlot(r.Context(), id, slotID, patch)
		return toView(p), err
	})
}

func (h *Handler) RemoveSlot(w http.ResponseWriter, r *http.Request) {
	slotID, err := pathID(r, "slotID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.RemoveSlot(r.Context(), id, slotID)
		return toView(p), err
	})
}

func (h *Handler) MoveSlot(w http.ResponseWriter, r *http.Request) {
	var in moveRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.MoveSlot(r.Context(), id, in.From, in.To)
		return toView(p), err
	})
}

func (h *Handler) Decompose(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		res, err := h.svc.Decompose(r.Context(), id, in.Text)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"project":  toView(res.Project),
			"fallback": res.Fallback,
			"warning":  res.Warning,
		}, nil
	})
}

func (h *Handler) Translate(w http.ResponseWriter, r *http.Request) {
	h.respondProject(w, r, func(id string) (any, error) {
		return h.svc.Translate(r.Context(), id)
	})
}

func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	h.respondProject(w, r, func(id string) (any, error) {
		return h.svc.State(id)
	})
}
