package source

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/cognicore/keyphrase/pkg/keyphrase/internalerr"
)

// Text reads UTF-8 plain text files.
type Text struct{}

// Read implements Reader.
func (Text) Read(_ context.Context, path string) (string, error) {
	return readUTF8(path)
}

func readUTF8(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	data = []byte(strings.TrimPrefix(string(data), "\ufeff"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8: %w", internalerr.ErrInvalidInput)
	}
	return string(data), nil
}

// Markdown reads Markdown files and drops markup that carries no words:
// fenced code blocks, link targets, emphasis and heading markers.
type Markdown struct{}

var (
	mdFence    = regexp.MustCompile("(?ms)^```.*?^```[^\n]*$")
	mdImage    = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink     = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeading  = regexp.MustCompile(`(?m)^\s{0,3}#{1,6}\s*`)
	mdEmphasis = regexp.MustCompile("[*_`~]+")
)

// Read implements Reader.
func (Markdown) Read(_ context.Context, path string) (string, error) {
	text, err := readUTF8(path)
	if err != nil {
		return "", err
	}
	return stripMarkdown(text), nil
}

func stripMarkdown(text string) string {
	text = mdFence.ReplaceAllString(text, "")
	text = mdImage.ReplaceAllString(text, "$1")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
