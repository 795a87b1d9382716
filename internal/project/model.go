package project

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"promptlab/internal/apperr"
	"promptlab/internal/asset"
	"promptlab/internal/prompt"
	"promptlab/internal/version"
)

const (
	ImageSize1K = "1K"
	ImageSize2K = "2K"
	ImageSize4K = "4K"

	BootstrapName = "新建实验室项目"
	// CustomVersionID marks results generated from an explicit prompt override.
	CustomVersionID = "custom"
)

const (
	DefaultTranslatePrompt = "You are a professional AI prompt translator and optimizer. Target: Stable Diffusion / Midjourney. Translate input Chinese logic into high-quality English prompts. Keep adjectives precise. Use comma-separated phrases if appropriate. No chatting, only translation result."
	DefaultParsePrompt     = "You are a professional prompt engineer. Analyze the provided session logs or raw text, extract key logical components (slots), and represent them as a list of slots with 'label' and 'value_cn' (the content in Chinese). Output ONLY a valid JSON array. Each object should have: label, value_cn."
)

// GenConfig is the per-project generation configuration.
type GenConfig struct {
	ImageSize       string `json:"imageSize" yaml:"imageSize" validate:"oneof=1K 2K 4K"`
	AspectRatio     string `json:"aspectRatio" yaml:"aspectRatio" validate:"oneof=1:1 16:9 9:16 4:3 3:4"`
	AutoTranslate   bool   `json:"autoTranslate" yaml:"autoTranslate"`
	TranslatePrompt string `json:"translatePrompt" yaml:"translatePrompt"`
	ParsePrompt     string `json:"parsePrompt" yaml:"parsePrompt"`
}

func DefaultConfig() GenConfig {
	return GenConfig{
		ImageSize:       ImageSize1K,
		AspectRatio:     "1:1",
		TranslatePrompt: DefaultTranslatePrompt,
		ParsePrompt:     DefaultParsePrompt,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks the enumerated fields. Free-text fields are not inspected.
func (c GenConfig) Validate() error {
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(c); err != nil {
		return &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeInvalidConfig, Message: "invalid generation config", Err: err}
	}
	return nil
}

// withDefaults fills fields left empty by older records.
func (c GenConfig) withDefaults() GenConfig {
	def := DefaultConfig()
	if strings.TrimSpace(c.ImageSize) == "" {
		c.ImageSize = def.ImageSize
	}
	if strings.TrimSpace(c.AspectRatio) == "" {
		c.AspectRatio = def.AspectRatio
	}
	if strings.TrimSpace(c.TranslatePrompt) == "" {
		c.TranslatePrompt = def.TranslatePrompt
	}
	if strings.TrimSpace(c.ParsePrompt) == "" {
		c.ParsePrompt = def.ParsePrompt
	}
	return c
}

// GeneratedResult is one image produced for a project. ImageURL is either
// an inline data URL or an artifact reference.
type GeneratedResult struct {
	ID              string  `json:"id"`
	ImageURL        string  `json:"imageUrl"`
	PromptVersionID string  `json:"promptVersionId"`
	PromptText      string  `json:"promptText"`
	Timestamp       int64   `json:"timestamp"`
	Duration        float64 `json:"duration"`
}

type Project struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	Versions         []version.PromptVersion `json:"versions"`
	ActiveVersionID  string                  `json:"activeVersionId,omitempty"`
	Slots            []prompt.Slot           `json:"slots"`
	Results          []GeneratedResult       `json:"results"`
	Assets           []asset.ImageReference  `json:"assets"`
	Config           GenConfig               `json:"config"`
	TranslationCache map[string]string       `json:"translationCache,omitempty"`
	UpdatedAt        int64                   `json:"updatedAt,omitempty"`
}

// Clone returns a deep copy, safe to mutate.
func (p Project) Clone() Project {
	out := p
	if p.Versions != nil {
		out.Versions = make([]version.PromptVersion, len(p.Versions))
		for i, v := range p.Versions {
			v.Slots = prompt.CloneSlots(v.Slots)
			out.Versions[i] = v
		}
	}
	out.Slots = prompt.CloneSlots(p.Slots)
	if p.Results != nil {
		out.Results = append([]GeneratedResult(nil), p.Results...)
	}
	out.Assets = asset.Clone(p.Assets)
	if p.TranslationCache != nil {
		out.TranslationCache = make(map[string]string, len(p.TranslationCache))
		for k, v := range p.TranslationCache {
			out.TranslationCache[k] = v
		}
	}
	return out
}

// Normalize repairs a project loaded from storage: legacy versions are
// migrated, an empty live slot list is restored from the active version
// (or the defaults), and missing config fields take default values.
func Normalize(p Project) Project {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		p.ID = prompt.NewID()
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = "Project"
	}
	for i := range p.Versions {
		p.Versions[i] = version.Migrate(p.Versions[i])
	}
	if p.ActiveVersionID != "" {
		if _, ok := version.Find(p.Versions, p.ActiveVersionID); !ok {
			p.ActiveVersionID = ""
		}
	}
	if p.ActiveVersionID == "" {
		if last, ok := version.Latest(p.Versions); ok {
			p.ActiveVersionID = last.ID
		}
	}
	if len(p.Slots) == 0 {
		if slots, err := version.Activate(p.Versions, p.ActiveVersionID); err == nil && len(slots) > 0 {
			p.Slots = slots
		} else {
			p.Slots = prompt.DefaultSlots()
		}
	}
	if p.Results == nil {
		p.Results = []GeneratedResult{}
	}
	if p.Assets == nil {
		p.Assets = []asset.ImageReference{}
	}
	p.Assets = asset.Normalize(p.Assets)
	p.Config = p.Config.withDefaults()
	if p.TranslationCache == nil {
		p.TranslationCache = map[string]string{}
	}
	return p
}

// New returns an empty project with the default slots and no versions.
func New(name string) Project {
	return Normalize(Project{ID: prompt.NewID(), Name: name, Config: DefaultConfig()})
}

// Bootstrap returns the project created for an empty store: default slots
// with a V1 snapshot of them.
func Bootstrap(nowMillis int64) Project {
	p := New(BootstrapName)
	v := version.PromptVersion{
		ID:          prompt.NewID(),
		Name:        "V1",
		Slots:       prompt.CloneSlots(p.Slots),
		Fingerprint: prompt.SlotsFingerprint(p.Slots),
		FinalPrompt: prompt.ComposeFinal(p.Slots),
		Timestamp:   nowMillis,
	}
	p.Versions = []version.PromptVersion{v}
	p.ActiveVersionID = v.ID
	p.UpdatedAt = nowMillis
	return p
}
