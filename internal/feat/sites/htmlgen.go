package sites

import (
	"strings"
)

// DefaultTitle is used when a site has no title.
const DefaultTitle = "Untitled"

var titleEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// EscapeText escapes the three characters that are significant in HTML text.
func EscapeText(s string) string {
	return titleEscaper.Replace(s)
}

// Assemble builds a standalone HTML document. The title is escaped; css, html
// and js are embedded verbatim. The skeleton is always present, even when
// every fragment is empty.
func Assemble(title, html, css, js string) string {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	var b strings.Builder
	b.Grow(len(title) + len(html) + len(css) + len(js) + 256)

	b.WriteString("<!doctype html>\n")
	b.WriteString(`<html lang="en">` + "\n")
	b.WriteString("<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
	b.WriteString("<title>")
	b.WriteString(EscapeText(title))
	b.WriteString("</title>\n")
	b.WriteString("<style>\n")
	b.WriteString(css)
	b.WriteString("\n</style>\n")
	b.WriteString("</head>\n")
	b.WriteString("<body>\n")
	b.WriteString(html)
	b.WriteString("\n<script>\n")
	b.WriteString(js)
	b.WriteString("\n</script>\n")
	b.WriteString("</body>\n")
	b.WriteString("</html>\n")

	return b.String()
}

// Render assembles the document for a stored site.
func Render(s *Site) string {
	return Assemble(s.Title, s.HTML, s.CSS, s.JS)
}
