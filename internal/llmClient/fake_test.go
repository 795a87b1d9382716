package llmclient

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"promptlab/internal/apperr"
	"promptlab/internal/llm"
	"promptlab/internal/prompt"
)

var _ llm.Backend = (*FakeClient)(nil)
var _ llm.Backend = (*GeminiClient)(nil)

func TestFakeDecomposeParsesIntoSlots(t *testing.T) {
	raw, err := NewFakeClient().Decompose(context.Background(), "", "主体: 一只猫\n\n风格: 水彩")
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	slots, err := prompt.ParseSlots(raw)
	if err != nil {
		t.Fatalf("ParseSlots(%s): %v", raw, err)
	}
	if len(slots) != 2 || slots[0].Label != "主体" || slots[1].SourceText != "水彩" {
		t.Fatalf("unexpected slots: %+v", slots)
	}
}

func TestFakeImageIsPNG(t *testing.T) {
	img, err := NewFakeClient().GenerateImage(context.Background(), llm.GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("GenerateImage: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(img.Data)); err != nil {
		t.Fatalf("fake image is not a PNG: %v", err)
	}
}

func TestClassifyEmptyResponseIsTransient(t *testing.T) {
	err := classify(ErrNoImage)
	if apperr.IsPermanent(err) || !errors.Is(err, ErrNoImage) {
		t.Fatalf("unexpected classification: %v", err)
	}
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	if _, err := NewGeminiClient(context.Background(), GeminiOptions{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}
