package github

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
)

// Ref is a git reference.
type Ref struct {
	Ref    string `json:"ref"`
	Object struct {
		SHA string `json:"sha"`
	} `json:"object"`
}

// Contents is the metadata GitHub returns for a repository file.
type Contents struct {
	Path string `json:"path"`
	SHA  string `json:"sha"`
}

// PullRequest is the subset of the PR response we use.
type PullRequest struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// GetRef resolves refs/heads/<branch> to its commit SHA.
func (c *Client) GetRef(ctx context.Context, branch string) (*Ref, error) {
	var ref Ref
	if err := c.do(ctx, http.MethodGet, c.repoPath("/git/ref/heads/%s", url.PathEscape(branch)), nil, &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

// CreateRef creates refs/heads/<branch> pointing at sha.
func (c *Client) CreateRef(ctx context.Context, branch, sha string) error {
	in := map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": sha,
	}
	return c.do(ctx, http.MethodPost, c.repoPath("/git/refs"), in, nil)
}

// GetContents fetches file metadata (notably the blob SHA) on a branch.
// Returns nil without error when the file does not exist.
func (c *Client) GetContents(ctx context.Context, path, branch string) (*Contents, error) {
	var out Contents
	err := c.do(ctx, http.MethodGet, c.repoPath("/contents/%s?ref=%s", escapePath(path), url.QueryEscape(branch)), nil, &out)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// PutContents creates or updates a file on branch. sha must be the current
// blob SHA when updating an existing file, empty when creating.
func (c *Client) PutContents(ctx context.Context, path, branch, message string, content []byte, sha string) error {
	in := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  branch,
	}
	if sha != "" {
		in["sha"] = sha
	}
	return c.do(ctx, http.MethodPut, c.repoPath("/contents/%s", escapePath(path)), in, nil)
}

// DeleteContents removes a file on branch. sha is the current blob SHA.
func (c *Client) DeleteContents(ctx context.Context, path, branch, message, sha string) error {
	in := map[string]string{
		"message": message,
		"branch":  branch,
		"sha":     sha,
	}
	return c.do(ctx, http.MethodDelete, c.repoPath("/contents/%s", escapePath(path)), in, nil)
}

// CreatePull opens a pull request from head into base.
func (c *Client) CreatePull(ctx context.Context, title, head, base, body string) (*PullRequest, error) {
	in := map[string]string{
		"title": title,
		"head":  head,
		"base":  base,
		"body":  body,
	}
	var pr PullRequest
	if err := c.do(ctx, http.MethodPost, c.repoPath("/pulls"), in, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// escapePath escapes each path segment but keeps separators.
func escapePath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}
