// Package generation turns a project's prompt, selected references and
// config into a backend request.
package generation

import (
	"strings"

	"promptlab/internal/apperr"
	"promptlab/internal/asset"
	"promptlab/internal/llm"
	"promptlab/internal/prompt"
)

// Config is the subset of the project config the request carries.
type Config struct {
	ImageSize   string
	AspectRatio string
}

// Build assembles a request. Selected assets are attached in selection order.
func Build(finalText string, assets []asset.ImageReference, cfg Config) (llm.GenerateRequest, error) {
	if strings.TrimSpace(finalText) == "" {
		return llm.GenerateRequest{}, apperr.Validation(apperr.CodeEmptyPrompt, "prompt is empty")
	}
	selected := asset.SelectedInOrder(assets)
	images := make([]llm.Image, 0, len(selected))
	for _, a := range selected {
		images = append(images, llm.Image{MIMEType: a.MIMEType, Data: a.Data})
	}
	return llm.GenerateRequest{
		Prompt:      finalText,
		Images:      images,
		ImageSize:   cfg.ImageSize,
		AspectRatio: cfg.AspectRatio,
	}, nil
}

func CanGenerate(dirty, force bool) bool { return !dirty || force }

// Guard rejects a dirty run unless forced.
func Guard(dirty, force bool) error {
	if CanGenerate(dirty, force) {
		return nil
	}
	return apperr.Validation(apperr.CodeStaleTranslation, "translation is out of date with the slot sources")
}

// ResolvePrompt picks the text to send. An override wins, then the
// translation of the current canonical text, then the composed outputs.
func ResolvePrompt(translation string, hasTranslation bool, slots []prompt.Slot, override string) (string, bool) {
	if strings.TrimSpace(override) != "" {
		return override, true
	}
	if hasTranslation && strings.TrimSpace(translation) != "" {
		return translation, false
	}
	return prompt.ComposeFinal(slots), false
}
