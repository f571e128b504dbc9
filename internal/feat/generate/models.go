// Package generate turns a natural-language prompt into a draft site by
// calling an OpenAI-compatible chat API.
//
// Upstream failures never reach the client. A timeout, a transport error or
// a malformed answer produces a fallback draft that shows the raw upstream
// text, so the user still gets something to edit.
package generate

import (
	"fmt"
)

// DefaultVariant is the style used when a request names none or an unknown one.
const DefaultVariant = "modern"

// variants maps a style name to the hint sent with the prompt.
var variants = map[string]string{
	"modern":    "Modern look: generous whitespace, a bold hero section, system font stack, subtle gradients.",
	"minimal":   "Minimal look: monochrome palette, one column, plenty of whitespace, no decoration.",
	"playful":   "Playful look: bright colours, rounded shapes, friendly copy and small CSS animations.",
	"corporate": "Corporate look: restrained palette, clear navigation, sections for services and contact.",
	"dark":      "Dark look: dark background, high contrast text, accent colour for links and buttons.",
}

// NormalizeVariant returns v when it is known, DefaultVariant otherwise.
func NormalizeVariant(v string) string {
	if _, ok := variants[v]; ok {
		return v
	}
	return DefaultVariant
}

// Request is the body of POST /api/generate.
type Request struct {
	Prompt  string `json:"prompt" validate:"required,max=4000"`
	Variant string `json:"variant,omitempty" validate:"max=32"`
}

// Draft is the content produced for a prompt.
type Draft struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
	CSS   string `json:"css"`
	JS    string `json:"js"`
}

// IsEmpty reports whether the draft has no fragments.
func (d Draft) IsEmpty() bool {
	return d.HTML == "" && d.CSS == "" && d.JS == ""
}

// Result tags a draft as parsed from the upstream answer or synthesized
// as a fallback.
type Result struct {
	Draft
	Fallback bool   `json:"fallback"`
	Reason   string `json:"-"`
}

// UpstreamError describes a failed or unusable upstream answer. Raw holds
// whatever text was received, possibly empty.
type UpstreamError struct {
	Err error
	Raw string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
