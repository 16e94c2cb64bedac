package wordpress

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const excerptWords = 40

type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline summarizes rendered page HTML.
type Outline struct {
	Headings []Heading `json:"headings"`
	Links    []string  `json:"links"`
	Images   []string  `json:"images"`
	Excerpt  string    `json:"excerpt"`
	Words    int       `json:"words"`
}

// ParseOutline extracts headings, links, images and a text excerpt from html.
func ParseOutline(html string) (Outline, error) {
	var o Outline
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return o, fmt.Errorf("failed to parse page html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return
		}
		level := int(goquery.NodeName(s)[1] - '0')
		o.Headings = append(o.Headings, Heading{Level: level, Text: text})
	})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" && !strings.HasPrefix(href, "#") {
			o.Links = append(o.Links, href)
		}
	})
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			o.Images = append(o.Images, src)
		}
	})

	var parts []string
	doc.Find("p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	words := strings.Fields(strings.Join(parts, " "))
	o.Words = len(words)
	if len(words) > excerptWords {
		o.Excerpt = strings.Join(words[:excerptWords], " ") + "..."
	} else {
		o.Excerpt = strings.Join(words, " ")
	}
	return o, nil
}
