package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"

	"github.com/depari/srules/internal/apperr"
	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/parser"
	"github.com/depari/srules/internal/rules"
)

// ProposalLabel tags fallback issues so maintainers can triage them.
const ProposalLabel = "rule-proposal"

// ErrInvalid marks a proposal rejected before any API call was made.
var ErrInvalid = errors.New("invalid proposal")

// Submission is a proposal for a new rule.
type Submission struct {
	Title      string   `json:"title"`
	Author     string   `json:"author"`
	Email      string   `json:"email,omitempty"`
	Tags       []string `json:"tags"`
	Category   []string `json:"category"`
	Difficulty string   `json:"difficulty"`
	Content    string   `json:"content"`
	Reason     string   `json:"reason,omitempty"`
}

// Validate checks the proposal before any API call is made.
func (s Submission) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required, validation.Length(rules.MinTitleLen, rules.MaxTitleLen)),
		validation.Field(&s.Author, validation.Required),
		validation.Field(&s.Email, is.Email),
		validation.Field(&s.Tags, validation.Required),
		validation.Field(&s.Category, validation.Required),
		validation.Field(&s.Difficulty, validation.Required, validation.In(
			models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced)),
		validation.Field(&s.Content, validation.By(func(any) error {
			return rules.ValidateBody(s.Content)
		})),
	)
}

// Update modifies an existing rule.
type Update struct {
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Author  string `json:"author"`
	Reason  string `json:"reason"`
}

func (u Update) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Slug, validation.Required),
		validation.Field(&u.Author, validation.Required),
		validation.Field(&u.Reason, validation.Required),
		validation.Field(&u.Content, validation.Required),
	)
}

// Removal requests deletion of an existing rule.
type Removal struct {
	Slug   string `json:"slug"`
	Author string `json:"author"`
	Reason string `json:"reason"`
}

func (r Removal) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Slug, validation.Required),
		validation.Field(&r.Author, validation.Required),
		validation.Field(&r.Reason, validation.Required),
	)
}

// Submitter turns validated proposals into pull requests.
type Submitter struct {
	client     *Client
	baseBranch string
	contentDir string
	logger     *slog.Logger
	now        func() time.Time

	// ResolvePath maps a slug to its repository file path, for updates and
	// removals. Unset falls back to <contentDir>/<slug>.md.
	ResolvePath func(slug string) (string, error)
}

// NewSubmitter builds a Submitter targeting baseBranch. contentDir is where
// rule files live in the corpus repository; empty means "rules".
func NewSubmitter(client *Client, baseBranch, contentDir string, logger *slog.Logger) *Submitter {
	if baseBranch == "" {
		baseBranch = "main"
	}
	if contentDir == "" {
		contentDir = "rules"
	}
	return &Submitter{
		client:     client,
		baseBranch: baseBranch,
		contentDir: contentDir,
		logger:     logger,
		now:        time.Now,
	}
}

// SubmitRule opens a PR adding a new rule file and returns the PR URL.
// Without a token it returns apperr.ErrNoCredential; callers should fall
// back to IssueURL.
func (sb *Submitter) SubmitRule(ctx context.Context, sub Submission) (string, error) {
	if err := sub.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !sb.client.HasToken() {
		return "", apperr.ErrNoCredential
	}

	slug := parser.Slugify(sub.Title)
	doc, err := renderRule(sub, slug, sb.now())
	if err != nil {
		return "", err
	}

	branch := sb.branchName(slug)
	path := sb.contentDir + "/" + slug + ".md"
	if err := sb.createBranch(ctx, branch); err != nil {
		return "", err
	}
	msg := fmt.Sprintf("Add rule: %s", sub.Title)
	if err := sb.client.PutContents(ctx, path, branch, msg, doc, ""); err != nil {
		return "", err
	}

	body := fmt.Sprintf("New rule proposal by %s.\n\n- Category: %s\n- Tags: %s\n- Difficulty: %s",
		sub.Author, strings.Join(sub.Category, ", "), strings.Join(sub.Tags, ", "), sub.Difficulty)
	if sub.Reason != "" {
		body += "\n\n" + sub.Reason
	}
	return sb.openPull(ctx, msg, branch, body)
}

// UpdateRule opens a PR replacing an existing rule file.
func (sb *Submitter) UpdateRule(ctx context.Context, up Update) (string, error) {
	if err := up.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !sb.client.HasToken() {
		return "", apperr.ErrNoCredential
	}

	path, err := sb.pathFor(up.Slug)
	if err != nil {
		return "", err
	}
	branch := sb.branchName(up.Slug)
	if err := sb.createBranch(ctx, branch); err != nil {
		return "", err
	}

	existing, err := sb.client.GetContents(ctx, path, branch)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", fmt.Errorf("github: rule file %s: %w", path, apperr.ErrNotFound)
	}

	msg := fmt.Sprintf("Update rule: %s", up.Slug)
	if err := sb.client.PutContents(ctx, path, branch, msg, []byte(up.Content), existing.SHA); err != nil {
		return "", err
	}

	body := fmt.Sprintf("Rule update by %s.\n\n%s", up.Author, up.Reason)
	return sb.openPull(ctx, msg, branch, body)
}

// DeleteRule opens a PR removing an existing rule file.
func (sb *Submitter) DeleteRule(ctx context.Context, rm Removal) (string, error) {
	if err := rm.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !sb.client.HasToken() {
		return "", apperr.ErrNoCredential
	}

	path, err := sb.pathFor(rm.Slug)
	if err != nil {
		return "", err
	}
	branch := sb.branchName(rm.Slug)
	if err := sb.createBranch(ctx, branch); err != nil {
		return "", err
	}

	existing, err := sb.client.GetContents(ctx, path, branch)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", fmt.Errorf("github: rule file %s: %w", path, apperr.ErrNotFound)
	}

	msg := fmt.Sprintf("Delete rule: %s", rm.Slug)
	if err := sb.client.DeleteContents(ctx, path, branch, msg, existing.SHA); err != nil {
		return "", err
	}

	body := fmt.Sprintf("Rule removal by %s.\n\n%s", rm.Author, rm.Reason)
	return sb.openPull(ctx, msg, branch, body)
}

// IssueURL builds the manual-proposal issue link used when no API token is
// configured.
func (sb *Submitter) IssueURL(title, body string) string {
	q := url.Values{}
	q.Set("title", title)
	q.Set("body", body)
	q.Set("labels", ProposalLabel)
	return fmt.Sprintf("https://github.com/%s/%s/issues/new?%s", sb.client.owner, sb.client.repo, q.Encode())
}

func (sb *Submitter) branchName(slug string) string {
	return fmt.Sprintf("rule/%s-%d", slug, sb.now().Unix())
}

func (sb *Submitter) pathFor(slug string) (string, error) {
	if sb.ResolvePath != nil {
		return sb.ResolvePath(slug)
	}
	return sb.contentDir + "/" + slug + ".md", nil
}

func (sb *Submitter) createBranch(ctx context.Context, branch string) error {
	base, err := sb.client.GetRef(ctx, sb.baseBranch)
	if err != nil {
		return err
	}
	if err := sb.client.CreateRef(ctx, branch, base.Object.SHA); err != nil {
		return err
	}
	sb.logger.Debug("github: branch created", slog.String("branch", branch))
	return nil
}

func (sb *Submitter) openPull(ctx context.Context, title, branch, body string) (string, error) {
	pr, err := sb.client.CreatePull(ctx, title, branch, sb.baseBranch, body)
	if err != nil {
		return "", err
	}
	sb.logger.Info("github: pull request opened",
		slog.Int("number", pr.Number),
		slog.String("url", pr.HTMLURL))
	return pr.HTMLURL, nil
}

// renderRule assembles the markdown document for a new rule, echoing the
// submitted metadata verbatim in the frontmatter.
func renderRule(sub Submission, slug string, now time.Time) ([]byte, error) {
	fm := models.RuleFrontmatter{
		Title:      sub.Title,
		Slug:       slug,
		Version:    "1.0.0",
		Created:    now.Format("2006-01-02"),
		Author:     sub.Author,
		Email:      sub.Email,
		Tags:       sub.Tags,
		Category:   sub.Category,
		Difficulty: sub.Difficulty,
	}
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("github: marshal frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(sub.Content))
	b.WriteString("\n")
	return []byte(b.String()), nil
}
