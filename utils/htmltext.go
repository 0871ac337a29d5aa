package utils

import (
	"strings"

	"golang.org/x/net/html"
)

// HTMLToText derives the plain-text alternative of a rendered HTML
// email body. Text inside head, style and script elements is dropped;
// block-level closings become newlines.
func HTMLToText(htmlBody string) string {
	tz := html.NewTokenizer(strings.NewReader(htmlBody))

	var b strings.Builder
	skipDepth := 0

	for {
		switch tz.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())

		case html.StartTagToken:
			name, _ := tz.TagName()
			if isInvisible(string(name)) {
				skipDepth++
			}

		case html.EndTagToken:
			name, _ := tz.TagName()
			tag := string(name)
			if isInvisible(tag) {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if isBlock(tag) {
				b.WriteString("\n")
			}

		case html.SelfClosingTagToken:
			name, _ := tz.TagName()
			if string(name) == "br" {
				b.WriteString("\n")
			}

		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := strings.TrimSpace(string(tz.Text()))
			if text != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteString(" ")
				}
				b.WriteString(text)
			}
		}
	}
}

func isInvisible(tag string) bool {
	switch tag {
	case "head", "style", "script", "title":
		return true
	}
	return false
}

func isBlock(tag string) bool {
	switch tag {
	case "p", "div", "h1", "h2", "h3", "h4", "li", "tr":
		return true
	}
	return false
}
