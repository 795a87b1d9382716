package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
	"promptlab/internal/gateway/service/workspace"
)

// maxBodyBytes bounds JSON bodies. Asset uploads carry base64 images.
const maxBodyBytes = 32 << 20

// Handler serves the workspace over JSON and a websocket change stream.
type Handler struct {
	svc *workspace.Service
	log *zap.Logger
}

func New(svc *workspace.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	code := apperr.CodeOf(err)
	if code == "" {
		code = "INTERNAL"
	}
	msg := err.Error()
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.String("code", code), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Code: code, Message: msg})
}

func badRequest(msg string) error {
	return apperr.Validation(apperr.CodeInvalidConfig, msg)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid json body: " + err.Error())
	}
	return nil
}

// decodeOptionalJSON tolerates an empty body.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("invalid json body: " + err.Error())
}

func pathID(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.PathValue(name))
	if v == "" {
		return "", badRequest(name + " is required")
	}
	return v, nil
}

type moveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}
