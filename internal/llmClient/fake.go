package llmclient

import (
	"context"
	"encoding/json"
	"strings"

	"promptlab/internal/llm"
)

// onePixelPNG is a valid 1x1 transparent PNG.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0b, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x60, 0x00, 0x02, 0x00,
	0x00, 0x05, 0x00, 0x01, 0x7a, 0x5e, 0xab, 0x3f, 0x00, 0x00, 0x00, 0x00,
	0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

// FakeClient returns deterministic output for offline use and tests.
type FakeClient struct{}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }

func (f *FakeClient) Translate(_ context.Context, _, text string) (string, error) {
	return strings.ToUpper(text), nil
}

// Decompose splits the input into one slot per non-empty line.
func (f *FakeClient) Decompose(_ context.Context, _, raw string) (string, error) {
	type record struct {
		Label   string `json:"label"`
		ValueCN string `json:"value_cn"`
	}
	out := make([]record, 0, 4)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			label, value = "", line
		}
		out = append(out, record{Label: strings.TrimSpace(label), ValueCN: strings.TrimSpace(value)})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (f *FakeClient) GenerateImage(_ context.Context, _ llm.GenerateRequest) (llm.Image, error) {
	return llm.Image{MIMEType: "image/png", Data: append([]byte(nil), onePixelPNG...)}, nil
}
