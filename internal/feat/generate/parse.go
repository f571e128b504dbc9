package generate

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/cliossg/sitesmith/internal/feat/sites"
	"github.com/cliossg/sitesmith/pkg/cl/llm"
)

// FallbackTitle titles drafts synthesized from an unusable answer.
const FallbackTitle = "Draft"

const fallbackCSS = `body{font-family:system-ui,sans-serif;max-width:820px;margin:40px auto;padding:0 16px}
.draft-fallback pre{white-space:pre-wrap;background:#f4f4f5;padding:16px;border-radius:8px}`

// ParseDraft parses an upstream answer. Anything that is not a JSON object
// with at least one fragment yields a fallback result embedding raw.
func ParseDraft(raw string) Result {
	var d Draft
	if err := json.Unmarshal([]byte(llm.CleanMarkdownWrapper(raw)), &d); err != nil {
		return Fallback(&UpstreamError{Err: err, Raw: raw})
	}
	if d.IsEmpty() {
		return Fallback(&UpstreamError{Err: errors.New("answer has no html, css or js"), Raw: raw})
	}
	d.Title = strings.TrimSpace(d.Title)
	return Result{Draft: d}
}

// Fallback synthesizes a draft from an upstream failure, showing the raw
// upstream text escaped inside a preformatted block.
func Fallback(uerr *UpstreamError) Result {
	return Result{
		Draft:    FallbackDraft(uerr.Raw),
		Fallback: true,
		Reason:   uerr.Error(),
	}
}

// FallbackDraft builds the draft shown when generation could not be parsed.
func FallbackDraft(raw string) Draft {
	var b strings.Builder
	b.WriteString(`<main class="draft-fallback">` + "\n")
	b.WriteString("<h1>" + FallbackTitle + "</h1>\n")
	b.WriteString("<p>The generator did not return usable content. Its raw answer is below; edit it or try again.</p>\n")
	b.WriteString("<pre>")
	b.WriteString(sites.EscapeText(raw))
	b.WriteString("</pre>\n</main>")

	return Draft{Title: FallbackTitle, HTML: b.String(), CSS: fallbackCSS}
}

// StubDraft is returned when no API key is configured.
func StubDraft(prompt, variant string) Draft {
	title := strings.TrimSpace(prompt)
	if r := []rune(title); len(r) > 60 {
		title = strings.TrimSpace(string(r[:60]))
	}

	var b strings.Builder
	b.WriteString(`<main class="stub">` + "\n")
	b.WriteString("<h1>" + sites.EscapeText(title) + "</h1>\n")
	b.WriteString("<p>This is a placeholder draft generated without an AI provider. Set an API key to get real content.</p>\n")
	b.WriteString("<p>Style: " + sites.EscapeText(variant) + "</p>\n")
	b.WriteString(`<button id="hello">Say hello</button>` + "\n")
	b.WriteString("</main>")

	return Draft{
		Title: title,
		HTML:  b.String(),
		CSS:   `body{font-family:system-ui,sans-serif;max-width:820px;margin:40px auto;padding:0 16px} .stub button{padding:8px 16px}`,
		JS:    `document.getElementById('hello').addEventListener('click',()=>alert('Hello!'))`,
	}
}
