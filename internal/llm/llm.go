package llm

import "context"

// Image is an image payload crossing the backend boundary.
type Image struct {
	MIMEType string
	Data     []byte
}

// GenerateRequest is the outbound image generation payload. Images are in
// selection order, which the downstream model treats as meaningful.
type GenerateRequest struct {
	Prompt      string
	Images      []Image
	ImageSize   string
	AspectRatio string
}

// Backend is the generative AI boundary used by the core. Implementations
// return errors classified through Classify so retry policy can tell
// transient failures from permanent ones.
type Backend interface {
	Name() string
	Translate(ctx context.Context, instructions, text string) (string, error)
	// Decompose returns the raw model response; parsing is the caller's job.
	Decompose(ctx context.Context, instructions, raw string) (string, error)
	GenerateImage(ctx context.Context, req GenerateRequest) (Image, error)
}

// Instructed renders the prompt format shared by translation and decomposition.
func Instructed(instructions, content string) string {
	return "Instructions: " + instructions + "\n\nContent: " + content
}
