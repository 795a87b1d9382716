package handler

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"promptlab/internal/asset"
)

type uploadJSON struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// AddAssets accepts either a JSON body of base64 uploads or a multipart
// form with one or more "files" parts.
func (h *Handler) AddAssets(w http.ResponseWriter, r *http.Request) {
	uploads, err := readUploads(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(uploads) == 0 {
		h.writeError(w, r, badRequest("no assets in request"))
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	added, err := h.svc.AddAssets(r.Context(), id, uploads)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for i := range added {
		added[i].Data = nil
	}
	writeJSON(w, http.StatusCreated, map[string]any{"assets": added})
}

func readUploads(r *http.Request) ([]asset.Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r)
	}
	var in struct {
		Assets []uploadJSON `json:"assets"`
	}
	if err := decodeJSON(r, &in); err != nil {
		return nil, err
	}
	out := make([]asset.Upload, 0, len(in.Assets))
	for _, u := range in.Assets {
		out = append(out, asset.Upload{Name: u.Name, MIMEType: u.MIMEType, Data: u.Data})
	}
	return out, nil
}

func readMultipart(r *http.Request) ([]asset.Upload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, badRequest("invalid multipart body: " + err.Error())
	}
	var out []asset.Upload
	for _, fh := range r.MultipartForm.File["files"] {
		f, err := fh.Open()
		if err != nil {
			return nil, badRequest("open upload: " + err.Error())
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, badRequest("read upload: " + err.Error())
		}
		mimeType := strings.TrimSpace(fh.Header.Get("Content-Type"))
		if mimeType == "" || mimeType == "application/octet-stream" {
			if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
				mimeType = byExt
			}
		}
		out = append(out, asset.Upload{Name: fh.Filename, MIMEType: mimeType, Data: data})
	}
	return out, nil
}

func (h *Handler) ToggleAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := pathID(r, "assetID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.ToggleAsset(r.Context(), id, assetID)
		return toView(p), err
	})
}

func (h *Handler) MoveAsset(w http.ResponseWriter, r *http.Request) {
	var in moveRequest
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.MoveAsset(r.Context(), id, in.From, in.To)
		return toView(p), err
	})
}

func (h *Handler) RemoveAsset(w http.ResponseWriter, r *http.Request) {
	assetID, err := pathID(r, "assetID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondProject(w, r, func(id string) (any, error) {
		p, err := h.svc.RemoveAsset(r.Context(), id, assetID)
		return toView(p), err
	})
}
