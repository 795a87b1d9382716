package server

import (
	"net/http"

	"go.uber.org/zap"

	"promptlab/internal/gateway/handler"
	"promptlab/internal/gateway/middleware"
)

func NewMux(h *handler.Handler, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Projects
	mux.HandleFunc("GET /api/projects", h.ListProjects)
	mux.HandleFunc("POST /api/projects", h.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", h.GetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", h.RenameProject)
	mux.HandleFunc("DELETE /api/projects/{id}", h.DeleteProject)
	mux.HandleFunc("PUT /api/projects/{id}/config", h.UpdateConfig)

	// Slots & prompt text
	mux.HandleFunc("POST /api/projects/{id}/slots", h.AddSlot)
	mux.HandleFunc("PUT /api/projects/{id}/slots", h.ReplaceSlots)
	mux.HandleFunc("POST /api/projects/{id}/slots/move", h.MoveSlot)
	mux.HandleFunc("PATCH /api/projects/{id}/slots/{slotID}", h.UpdateSlot)
	mux.HandleFunc("DELETE /api/projects/{id}/slots/{slotID}", h.RemoveSlot)
	mux.HandleFunc("POST /api/projects/{id}/decompose", h.Decompose)
	mux.HandleFunc("POST /api/projects/{id}/translate", h.Translate)
	mux.HandleFunc("GET /api/projects/{id}/state", h.State)

	// Versions
	mux.HandleFunc("POST /api/projects/{id}/versions", h.SaveVersion)
	mux.HandleFunc("POST /api/projects/{id}/versions/{versionID}/activate", h.ActivateVersion)
	mux.HandleFunc("GET /api/projects/{id}/versions/diff", h.DiffVersions)

	// Assets
	mux.HandleFunc("POST /api/projects/{id}/assets", h.AddAssets)
	mux.HandleFunc("POST /api/projects/{id}/assets/move", h.MoveAsset)
	mux.HandleFunc("POST /api/projects/{id}/assets/{assetID}/toggle", h.ToggleAsset)
	mux.HandleFunc("DELETE /api/projects/{id}/assets/{assetID}", h.RemoveAsset)

	// Generation
	mux.HandleFunc("POST /api/projects/{id}/generate", h.Generate)
	mux.HandleFunc("DELETE /api/projects/{id}/results/{resultID}", h.DeleteResult)
	mux.HandleFunc("GET /api/projects/{id}/results/{resultID}/image", h.ResultImage)

	// Session
	mux.HandleFunc("GET /api/session", h.Session)
	mux.HandleFunc("PUT /api/credential", h.SetCredential)

	// Change stream
	mux.HandleFunc("GET /ws/events", h.Events)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Middleware
	return middleware.CORS(middleware.Logging(log)(mux))
}
