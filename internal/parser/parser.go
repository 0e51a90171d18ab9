// Package parser extracts YAML frontmatter and derived fields from rule Markdown files.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/depari/srules/internal/models"
)

// DefaultExcerptLength is the maximum excerpt size in characters.
const DefaultExcerptLength = 200

var (
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldRe      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	italicRe    = regexp.MustCompile(`\*(.+?)\*`)
	linkRe      = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
	inlineCode  = regexp.MustCompile("`(.+?)`")
	whitespaces = regexp.MustCompile(`\s+`)
)

// Result holds the output of parsing a rule Markdown file.
type Result struct {
	Frontmatter models.RuleFrontmatter
	Body        string
	Excerpt     string
}

// Parse extracts frontmatter, body, and a derived excerpt from raw Markdown
// bytes. path is the file location relative to the corpus root; when the
// frontmatter carries no explicit slug one is derived from it.
func Parse(data []byte, path string) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}
	if fm.Slug == "" {
		fm.Slug = SlugFromPath(path)
	}
	return &Result{
		Frontmatter: fm,
		Body:        body,
		Excerpt:     Excerpt(body, DefaultExcerptLength),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (models.RuleFrontmatter, string, error) {
	const delim = "---"
	var fm models.RuleFrontmatter

	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter, treat everything as body.
		return fm, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML yields body only; validation will reject the
		// document for its missing required fields.
		return models.RuleFrontmatter{}, string(data), nil
	}
	return fm, body, nil
}

// SlugFromPath derives a slug from a corpus-relative file path:
// "typescript/strict-mode.md" becomes "typescript/strict-mode".
func SlugFromPath(path string) string {
	s := strings.TrimSuffix(path, ".md")
	return strings.ReplaceAll(s, "\\", "/")
}

// Slugify lowercases s and collapses every non-alphanumeric run into a
// single hyphen, trimming leading and trailing hyphens.
func Slugify(s string) string {
	var b strings.Builder
	prevHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// Excerpt strips Markdown syntax from content and clips it to maxLength
// characters, appending an ellipsis marker when truncated.
func Excerpt(content string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	plain := headingRe.ReplaceAllString(content, "")
	plain = boldRe.ReplaceAllString(plain, "$1")
	plain = italicRe.ReplaceAllString(plain, "$1")
	plain = linkRe.ReplaceAllString(plain, "$1")
	plain = inlineCode.ReplaceAllString(plain, "$1")
	plain = whitespaces.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)

	runes := []rune(plain)
	if len(runes) <= maxLength {
		return plain
	}
	return string(runes[:maxLength]) + "..."
}

// HasSection reports whether body contains the given level-2 section heading.
func HasSection(body, heading string) bool {
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "## "+heading {
			return true
		}
	}
	return false
}
