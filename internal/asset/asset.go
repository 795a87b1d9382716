package asset

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"promptlab/internal/apperr"
)

// ImageReference is a reference image in a project's library.
// SelectionOrder is 1-based and zero when the asset is not selected.
type ImageReference struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MIMEType       string `json:"mimeType"`
	Data           []byte `json:"data,omitempty"`
	Selected       bool   `json:"selected"`
	SelectionOrder int    `json:"selectionOrder,omitempty"`
}

// Upload is a new image entering the library.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

func Clone(in []ImageReference) []ImageReference {
	if in == nil {
		return nil
	}
	out := make([]ImageReference, len(in))
	for i, a := range in {
		a.Data = append([]byte(nil), a.Data...)
		out[i] = a
	}
	return out
}

func maxOrder(assets []ImageReference) int {
	m := 0
	for _, a := range assets {
		if a.Selected && a.SelectionOrder > m {
			m = a.SelectionOrder
		}
	}
	return m
}

func indexOf(assets []ImageReference, id string) int {
	id = strings.TrimSpace(id)
	for i := range assets {
		if assets[i].ID == id {
			return i
		}
	}
	return -1
}

// ToggleSelection selects an unselected asset at the end of the sequence,
// or deselects a selected one and closes the gap it leaves.
func ToggleSelection(assets []ImageReference, id string) ([]ImageReference, error) {
	idx := indexOf(assets, id)
	if idx < 0 {
		return nil, apperr.Validation(apperr.CodeUnknownAsset, "asset not found")
	}
	out := Clone(assets)
	if !out[idx].Selected {
		out[idx].Selected = true
		out[idx].SelectionOrder = maxOrder(assets) + 1
		return out, nil
	}
	deselect(out, idx)
	return out, nil
}

func deselect(assets []ImageReference, idx int) {
	removed := assets[idx].SelectionOrder
	assets[idx].Selected = false
	assets[idx].SelectionOrder = 0
	for i := range assets {
		if assets[i].Selected && assets[i].SelectionOrder > removed {
			assets[i].SelectionOrder--
		}
	}
}

// ReorderLibrary moves one asset within the library. Selection order is
// attached to the asset and does not change.
func ReorderLibrary(assets []ImageReference, from, to int) ([]ImageReference, error) {
	if from < 0 || from >= len(assets) || to < 0 || to >= len(assets) {
		return nil, apperr.Validation(apperr.CodeIndexOutOfRange, "asset index out of range")
	}
	out := Clone(assets)
	item := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append([]ImageReference{item}, out[to:]...)...)
	return out, nil
}

// SelectedInOrder returns the selected assets by ascending selection order.
func SelectedInOrder(assets []ImageReference) []ImageReference {
	out := make([]ImageReference, 0, len(assets))
	for _, a := range assets {
		if a.Selected {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SelectionOrder < out[j].SelectionOrder
	})
	return out
}

// AddUploads appends uploads to the library, each selected after the
// current sequence in upload order.
func AddUploads(assets []ImageReference, uploads []Upload) ([]ImageReference, []ImageReference) {
	out := Clone(assets)
	base := maxOrder(assets)
	added := make([]ImageReference, 0, len(uploads))
	for i, u := range uploads {
		mime := strings.TrimSpace(u.MIMEType)
		if mime == "" {
			mime = "image/png"
		}
		a := ImageReference{
			ID:             uuid.NewString(),
			Name:           u.Name,
			MIMEType:       mime,
			Data:           append([]byte(nil), u.Data...),
			Selected:       true,
			SelectionOrder: base + i + 1,
		}
		out = append(out, a)
		added = append(added, a)
	}
	return out, added
}

// Remove deletes an asset, closing its selection gap first.
func Remove(assets []ImageReference, id string) ([]ImageReference, error) {
	idx := indexOf(assets, id)
	if idx < 0 {
		return nil, apperr.Validation(apperr.CodeUnknownAsset, "asset not found")
	}
	out := Clone(assets)
	if out[idx].Selected {
		deselect(out, idx)
	}
	return append(out[:idx], out[idx+1:]...), nil
}

// Normalize repairs selection orders loaded from storage into 1..N,
// keeping their relative order.
func Normalize(assets []ImageReference) []ImageReference {
	out := Clone(assets)
	idx := make([]int, 0, len(out))
	for i := range out {
		if out[i].Selected {
			idx = append(idx, i)
		} else {
			out[i].SelectionOrder = 0
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return out[idx[a]].SelectionOrder < out[idx[b]].SelectionOrder
	})
	for rank, i := range idx {
		out[i].SelectionOrder = rank + 1
	}
	return out
}
