package rules

import (
	"strings"
	"testing"

	"github.com/depari/srules/internal/models"
)

func validFrontmatter() models.RuleFrontmatter {
	return models.RuleFrontmatter{
		Title:      "TypeScript Strict Mode",
		Slug:       "typescript/strict-mode",
		Version:    "1.0.0",
		Created:    "2024-01-15",
		Tags:       []string{"typescript"},
		Category:   []string{"typescript"},
		Difficulty: models.DifficultyIntermediate,
	}
}

func validBody() string {
	return "## 개요\n" + strings.Repeat("규칙 설명. ", 10) + "\n## 예시\n```ts\nexample\n```\n"
}

func TestValidateFrontmatter_Valid(t *testing.T) {
	if err := ValidateFrontmatter(validFrontmatter()); err != nil {
		t.Fatalf("valid frontmatter rejected: %v", err)
	}
}

func TestValidateFrontmatter_MissingFields(t *testing.T) {
	fm := validFrontmatter()
	fm.Version = ""
	fm.Tags = nil
	err := ValidateFrontmatter(fm)
	if err == nil {
		t.Fatal("expected error for missing version and tags")
	}
}

func TestValidateFrontmatter_TitleLength(t *testing.T) {
	fm := validFrontmatter()
	fm.Title = "abcd"
	if err := ValidateFrontmatter(fm); err == nil {
		t.Error("4-char title should fail")
	}
	fm.Title = strings.Repeat("a", 101)
	if err := ValidateFrontmatter(fm); err == nil {
		t.Error("101-char title should fail")
	}
	fm.Title = strings.Repeat("a", 100)
	if err := ValidateFrontmatter(fm); err != nil {
		t.Errorf("100-char title should pass: %v", err)
	}
}

func TestValidateFrontmatter_BadDifficulty(t *testing.T) {
	fm := validFrontmatter()
	fm.Difficulty = "impossible"
	if err := ValidateFrontmatter(fm); err == nil {
		t.Error("unknown difficulty should fail")
	}
}

func TestValidateFrontmatter_BadDate(t *testing.T) {
	fm := validFrontmatter()
	fm.Created = "15/01/2024"
	if err := ValidateFrontmatter(fm); err == nil {
		t.Error("non-ISO date should fail")
	}
}

func TestValidateBody_Valid(t *testing.T) {
	if err := ValidateBody(validBody()); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
}

func TestValidateBody_TooShort(t *testing.T) {
	err := ValidateBody("## 개요\nx\n## 예시\ny\n")
	if err == nil {
		t.Fatal("expected error for short content")
	}
	if !strings.Contains(err.Error(), "50 characters") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateBody_MissingSections(t *testing.T) {
	err := ValidateBody(strings.Repeat("long enough body text. ", 10))
	if err == nil {
		t.Fatal("expected error for missing sections")
	}
	if !strings.Contains(err.Error(), "개요") || !strings.Contains(err.Error(), "예시") {
		t.Errorf("error should name both sections: %v", err)
	}
}
