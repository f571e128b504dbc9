// Package sites publishes user-authored pages under slug URLs.
//
// A site is three fragments (html, css, js) plus a title. Publishing stores
// them under a sanitized slug; serving assembles a standalone document.
//
// Fragments are author code and are embedded verbatim. A published page can
// run arbitrary script under this server's origin. Deployments that also
// host sensitive endpoints should serve /u/ from a separate origin.
package sites

import (
	"regexp"
	"strings"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/model"
	"github.com/google/uuid"
)

// MaxSlugLength bounds sanitized slugs.
const MaxSlugLength = 60

const fallbackSlugLength = 12

// Site is the only persisted entity.
type Site struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Slug      string    `json:"slug" db:"slug"`
	Title     string    `json:"title" db:"title"`
	HTML      string    `json:"html" db:"html"`
	CSS       string    `json:"css" db:"css"`
	JS        string    `json:"js" db:"js"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Document is the pre-rendered page when the backend stores one.
	Document string `json:"-" db:"-"`
}

// NewSite creates a site record stamped with a fresh id and the current time.
func NewSite(slug, title, html, css, js string) *Site {
	now := model.Now()
	return &Site{
		ID:        model.NewID(),
		Slug:      slug,
		Title:     title,
		HTML:      html,
		CSS:       css,
		JS:        js,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEmpty reports whether the site has no content to publish.
func (s *Site) IsEmpty() bool {
	return s.HTML == "" && s.CSS == "" && s.JS == ""
}

// URL returns the public path of the site.
func (s *Site) URL() string {
	return URLFor(s.Slug)
}

// PublishRequest is the body of POST /api/sites.
type PublishRequest struct {
	Slug  string `json:"slug,omitempty"`
	Title string `json:"title,omitempty"`
	HTML  string `json:"html,omitempty"`
	CSS   string `json:"css,omitempty"`
	JS    string `json:"js,omitempty"`
}

// PublishResult is returned after a successful publish.
type PublishResult struct {
	OK   bool   `json:"ok"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

var (
	invalidSlugCharsRegex = regexp.MustCompile(`[^a-z0-9._-]+`)
	validSlugRegex        = regexp.MustCompile(`^[a-z0-9._-]{1,60}$`)
)

const slugSeparators = "-_."

// SanitizeSlug converts arbitrary input into a URL and filesystem safe slug.
// Empty results are replaced by a random identifier.
func SanitizeSlug(s string) string {
	s = strings.ToLower(s)
	s = invalidSlugCharsRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, slugSeparators)

	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], slugSeparators)
	}

	if s == "" {
		return model.ShortID(fallbackSlugLength)
	}
	return s
}

// IsValidSlug reports whether s is already in canonical form.
func IsValidSlug(s string) bool {
	if !validSlugRegex.MatchString(s) {
		return false
	}
	return !strings.ContainsAny(s[:1], slugSeparators) && !strings.ContainsAny(s[len(s)-1:], slugSeparators)
}

// URLFor returns the public path for a slug.
func URLFor(slug string) string {
	return "/u/" + slug + "/"
}
