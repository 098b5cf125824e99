package llm

import (
	"github.com/jo-hoe/clipscribe/internal/common"
)

// Extraction prompts. The markdown variant asks for GitHub Flavored
// Markdown with hyphen bullets and no image syntax; the plain variant asks
// for bare text. Both forbid introductory phrases so stdout carries only
// the extracted content.
const (
	markdownPrompt = "Extract all text from this image accurately. If the image contains tabular data, a list, code, or other structured content, format the output as GitHub Flavored Markdown. Pay attention to formatting details like spacing in tables. Don't use any image related markdown. Otherwise, return the plain text. Output *only* the extracted text or markdown content and nothing else. Do not include any introductory phrases or explanations. For bullet points, use hyphens instead of bullet characters, like a normal markdown."
	plainPrompt    = "Extract all text content from this image accurately. Output *only* the extracted text and nothing else. Do not include any introductory phrases."
)

// OpenAI-compatible chat completion request types.

type Request struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
}

type Message struct {
	Role    string `json:"role"`
	Content []Part `json:"content"`
}

type Part struct {
	Type     string    `json:"type"`                // "text" | "image_url"
	Text     string    `json:"text,omitempty"`      // when Type == "text"
	ImageURL *ImageURL `json:"image_url,omitempty"` // when Type == "image_url"
}

type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"` // "low" | "high" | "auto"
}

// BuildRequest assembles the multimodal payload for one extraction. Pure
// data assembly, no failure modes. The text instruction is always the
// first content part so the model sees task framing before the image;
// detail is pinned to "high" for maximum OCR fidelity.
func BuildRequest(imageDataURL string, markdown bool, model string, maxTokens int) Request {
	prompt := plainPrompt
	if markdown {
		prompt = markdownPrompt
	}
	return Request{
		Model: model,
		Messages: []Message{{
			Role: common.RoleUser,
			Content: []Part{
				{Type: common.PartText, Text: prompt},
				{Type: common.PartImageURL, ImageURL: &ImageURL{URL: imageDataURL, Detail: common.DetailHigh}},
			},
		}},
		MaxTokens: maxTokens,
	}
}
