package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptlab/internal/gateway/handler"
	"promptlab/internal/gateway/repository/artifact"
	"promptlab/internal/gateway/repository/projectstore"
	"promptlab/internal/gateway/server"
	"promptlab/internal/gateway/service/workspace"
	"promptlab/internal/llm"
	llmclient "promptlab/internal/llmClient"
	"promptlab/internal/project"
	"promptlab/internal/translation"
)

func newTestServer(t *testing.T) (*httptest.Server, *project.Store) {
	t.Helper()
	ctx := context.Background()
	store := project.NewStore(projectstore.NewMemory(), project.StoreOptions{})
	require.NoError(t, store.Load(ctx))
	svc, err := workspace.New(ctx, workspace.Options{
		Store:     store,
		Cache:     translation.NewCache(32),
		Artifacts: artifact.NewMemoryStore(),
		Factory:   func(context.Context, string) (llm.Backend, error) { return llmclient.NewFakeClient(), nil },
		Backoff:   llm.Backoff{MaxRetries: 1, InitialDelay: time.Millisecond},
		Debounce:  5 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	srv := httptest.NewServer(server.NewMux(handler.New(svc, nil), nil))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	if resp.StatusCode != http.StatusNoContent && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func firstProjectID(t *testing.T, store *project.Store) string {
	t.Helper()
	list := store.List()
	require.NotEmpty(t, list)
	return list[0].ID
}

func TestListProjectsReturnsBootstrap(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodGet, srv.URL+"/api/projects", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	projects, ok := body["projects"].([]any)
	require.True(t, ok)
	require.Len(t, projects, 1)
	assert.Equal(t, project.BootstrapName, projects[0].(map[string]any)["name"])
}

func TestValidationErrorShape(t *testing.T) {
	srv, store := newTestServer(t)
	id := firstProjectID(t, store)

	resp, body := do(t, http.MethodDelete, srv.URL+"/api/projects/"+id, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "LAST_PROJECT", body["code"])
	assert.NotEmpty(t, body["message"])

	resp, body = do(t, http.MethodGet, srv.URL+"/api/projects/missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "PROJECT_NOT_FOUND", body["code"])
}

func TestGenerateBlockedUntilTranslated(t *testing.T) {
	srv, store := newTestServer(t)
	id := firstProjectID(t, store)
	base := srv.URL + "/api/projects/" + id

	p, err := store.Get(id)
	require.NoError(t, err)
	resp, _ := do(t, http.MethodPatch, base+"/slots/"+p.Slots[0].ID, map[string]any{"sourceText": "一只猫"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodPost, base+"/generate", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "STALE_TRANSLATION", body["code"])

	resp, _ = do(t, http.MethodPost, base+"/translate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, state := do(t, http.MethodGet, base+"/state", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, state["dirty"])

	resp, body = do(t, http.MethodPost, base+"/generate", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	imageURL, _ := body["imageUrl"].(string)
	require.NotEmpty(t, imageURL)

	img, err := http.Get(srv.URL + imageURL)
	require.NoError(t, err)
	defer img.Body.Close()
	assert.Equal(t, http.StatusOK, img.StatusCode)
	assert.Equal(t, "image/png", img.Header.Get("Content-Type"))
}

func TestAssetListOmitsBytes(t *testing.T) {
	srv, store := newTestServer(t)
	id := firstProjectID(t, store)
	base := srv.URL + "/api/projects/" + id

	resp, body := do(t, http.MethodPost, base+"/assets", map[string]any{
		"assets": []map[string]any{{"name": "ref.png", "mimeType": "image/png", "data": []byte{1, 2, 3}}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	added := body["assets"].([]any)
	require.Len(t, added, 1)
	_, hasData := added[0].(map[string]any)["data"]
	assert.False(t, hasData)

	resp, view := do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assets := view["assets"].([]any)
	require.Len(t, assets, 1)
	_, hasData = assets[0].(map[string]any)["data"]
	assert.False(t, hasData)

	stored, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, stored.Assets[0].Data)
}

func TestCredentialRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := do(t, http.MethodPut, srv.URL+"/api/credential", map[string]any{"apiKey": ""})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_CONFIG", body["code"])

	resp, body = do(t, http.MethodPut, srv.URL+"/api/credential", map[string]any{"apiKey": "k"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["credentialPresent"])
	_, echoed := body["apiKey"]
	assert.False(t, echoed)
}

func TestEventsStream(t *testing.T) {
	srv, store := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var hello map[string]any
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "subscribed", hello["type"])

	_, err = store.Create(context.Background(), "from test")
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "event", msg["type"])
	evt := msg["event"].(map[string]any)
	assert.Equal(t, string(project.EventCreated), evt["kind"])
	assert.Equal(t, "from test", evt["name"])
}
