// Package extract turns raw file bytes into classifiable text.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/mmcdole/gofeed"

	"github.com/TobiSchelling/contentaware/internal/classify"
)

// File kinds.
const (
	KindText    = "text"
	KindCode    = "code"
	KindHTML    = "html"
	KindPDF     = "pdf"
	KindFeed    = "feed"
	KindTabular = "tabular"
	KindBinary  = "binary"
)

// sniffLen is how much of a file is inspected for NUL bytes and feed roots.
const sniffLen = 8000

// Extracted is the text view of a file.
type Extracted struct {
	Kind     string
	Language string
	Title    string
	Text     string
	// Delimiter is set for tabular files.
	Delimiter rune
}

// Extract detects the kind of a file from its name and leading bytes and
// returns its text. Extraction failures for rich formats are returned as
// errors; callers may still classify by path.
func Extract(path string, data []byte) (Extracted, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".pdf":
		text, err := pdfText(data)
		if err != nil {
			return Extracted{Kind: KindPDF, Language: classify.Unknown}, fmt.Errorf("extracting pdf %s: %w", path, err)
		}
		return Extracted{Kind: KindPDF, Language: classify.Unknown, Text: text}, nil
	case ".csv":
		return Extracted{Kind: KindTabular, Language: "csv", Text: string(data), Delimiter: ','}, nil
	case ".tsv":
		return Extracted{Kind: KindTabular, Language: "csv", Text: string(data), Delimiter: '\t'}, nil
	}

	if isBinary(data) {
		return Extracted{Kind: KindBinary, Language: classify.Unknown}, nil
	}

	if ext == ".rss" || ext == ".atom" || (ext == ".xml" && looksLikeFeed(data)) {
		title, text, err := feedText(data)
		if err != nil {
			return Extracted{Kind: KindFeed, Language: "xml", Text: string(data)}, fmt.Errorf("parsing feed %s: %w", path, err)
		}
		return Extracted{Kind: KindFeed, Language: "xml", Title: title, Text: text}, nil
	}

	content := string(data)
	lang := classify.DetectLanguage(path, content)

	if ext == ".html" || ext == ".htm" {
		text, err := htmlText(path, data)
		if err != nil || text == "" {
			// Keep the raw markup; keywords in tags still count.
			return Extracted{Kind: KindHTML, Language: lang, Text: content}, nil
		}
		return Extracted{Kind: KindHTML, Language: lang, Text: text}, nil
	}

	kind := KindText
	if classify.IsCode(lang) {
		kind = KindCode
	}
	return Extracted{Kind: kind, Language: lang, Text: content}, nil
}

func isBinary(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}
	// The cut may split a multi-byte rune.
	if len(data) > sniffLen {
		for i := 0; i < utf8.UTFMax-1 && len(head) > 0 && !utf8.Valid(head); i++ {
			head = head[:len(head)-1]
		}
	}
	return !utf8.Valid(head)
}

func looksLikeFeed(data []byte) bool {
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	s := strings.ToLower(string(head))
	return strings.Contains(s, "<rss") || strings.Contains(s, "<feed")
}

func htmlText(path string, data []byte) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	pageURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	article, err := readability.FromReader(bytes.NewReader(data), pageURL)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(article.TextContent), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(text)), nil
}

func feedText(data []byte) (string, string, error) {
	feed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	title := strings.TrimSpace(feed.Title)
	if title != "" {
		sb.WriteString(title)
		sb.WriteString("\n")
	}
	if feed.Description != "" {
		sb.WriteString(stripTags(feed.Description))
		sb.WriteString("\n")
	}
	for _, item := range feed.Items {
		sb.WriteString(strings.TrimSpace(item.Title))
		sb.WriteString("\n")
		body := item.Content
		if body == "" {
			body = item.Description
		}
		if body != "" {
			sb.WriteString(stripTags(body))
			sb.WriteString("\n")
		}
	}
	return title, sb.String(), nil
}

// stripTags reduces an HTML fragment from a feed to plain words. Text nodes
// are joined with spaces so adjacent block elements do not run together.
func stripTags(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return strings.Join(strings.Fields(text), " ")
	}
	doc.Find("script, style").Remove()

	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				parts = append(parts, c.Text())
				return
			}
			walk(c)
		})
	}
	walk(doc.Selection)
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
