// Package rules implements build-time validation of rule documents.
package rules

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/parser"
)

// Document constraints.
const (
	MinTitleLen   = 5
	MaxTitleLen   = 100
	MinContentLen = 50

	SectionOverview = "개요"
	SectionExample  = "예시"
)

// ValidateFrontmatter checks the required metadata fields of a rule.
func ValidateFrontmatter(fm models.RuleFrontmatter) error {
	return validation.ValidateStruct(&fm,
		validation.Field(&fm.Title, validation.Required, validation.Length(MinTitleLen, MaxTitleLen)),
		validation.Field(&fm.Slug, validation.Required),
		validation.Field(&fm.Version, validation.Required),
		validation.Field(&fm.Created, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&fm.Tags, validation.Required),
		validation.Field(&fm.Category, validation.Required),
		validation.Field(&fm.Difficulty, validation.Required, validation.In(
			models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced)),
	)
}

// ValidateBody checks the Markdown body: minimum length and the two
// required sections.
func ValidateBody(body string) error {
	var problems []string
	if len(strings.TrimSpace(body)) < MinContentLen {
		problems = append(problems, fmt.Sprintf("content must be at least %d characters long", MinContentLen))
	}
	for _, section := range []string{SectionOverview, SectionExample} {
		if !parser.HasSection(body, section) {
			problems = append(problems, fmt.Sprintf("missing required section: ## %s", section))
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ValidateDocument validates a parsed rule document end to end.
func ValidateDocument(res *parser.Result) error {
	if err := ValidateFrontmatter(res.Frontmatter); err != nil {
		return err
	}
	return ValidateBody(res.Body)
}
