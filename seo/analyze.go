package seo

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"
)

// Analysis scores a set of SEO fields.
type Analysis struct {
	Score  int      `json:"score"`
	Issues []string `json:"issues"`
	Data   Fields   `json:"data,omitempty"`
}

// Analyze scores f out of 100 and lists what lowered the score.
func Analyze(f Fields) Analysis {
	if len(f) == 0 {
		return Analysis{Score: 0, Issues: []string{"No SEO data found"}}
	}

	a := Analysis{Score: 100, Issues: []string{}, Data: f}
	deduct := func(points int, issue string) {
		a.Score -= points
		a.Issues = append(a.Issues, issue)
	}

	switch n := utf8.RuneCountInString(f.Title()); {
	case n > TitleMaxLength:
		deduct(10, "Title is too long (over 60 characters)")
	case n < 30:
		deduct(5, "Title is too short (under 30 characters)")
	}

	switch n := utf8.RuneCountInString(f.Description()); {
	case n > DescriptionMaxLength:
		deduct(10, "Meta description is too long (over 160 characters)")
	case n < 120:
		deduct(5, "Meta description is too short (under 120 characters)")
	}

	if f[FieldKeywords] == "" {
		deduct(5, "No focus keywords set")
	}
	if f[FieldOGImage] == "" {
		deduct(5, "No Open Graph image set")
	}

	if a.Score < 0 {
		a.Score = 0
	}
	return a
}

// MetaTags renders the head tags for a page that no SEO plugin manages.
func MetaTags(f Fields, pageURL string) string {
	var sb strings.Builder
	tag := func(attr, name, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "<meta %s=\"%s\" content=\"%s\">\n", attr, name, html.EscapeString(value))
		}
	}
	tag("name", "title", f[FieldMetaTitle])
	tag("name", "description", f[FieldMetaDescription])
	tag("name", "keywords", f[FieldKeywords])
	tag("property", "og:title", f[FieldOGTitle])
	tag("property", "og:description", f[FieldOGDescription])
	tag("property", "og:image", f[FieldOGImage])
	tag("property", "og:type", "website")
	tag("property", "og:url", pageURL)
	return sb.String()
}
