package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/depari/srules/internal/favorites"
	"github.com/depari/srules/internal/github"
	"github.com/depari/srules/internal/history"
	"github.com/depari/srules/internal/index"
	"github.com/depari/srules/internal/models"
	"github.com/depari/srules/internal/prefstore"
	"github.com/depari/srules/internal/recent"
	"github.com/depari/srules/internal/ruleservice"
	"github.com/depari/srules/internal/search"
	"github.com/depari/srules/internal/storage"
)

const goRule = `---
title: Go Error Wrapping Rules
slug: go-error-wrapping
version: 1.0.0
created: 2024-03-10
author: kim
tags: [go, errors]
category: [Backend]
difficulty: intermediate
featured: true
---
## 개요
Always wrap errors with fmt.Errorf and the %w verb so callers can inspect them.

## 예시
return fmt.Errorf("read config: %w", err)
`

const tsRule = `---
title: TypeScript Strict Mode
slug: typescript-strict-mode
version: 1.0.0
created: 2024-02-20
author: lee
tags: [typescript, lint]
category: [Frontend]
difficulty: beginner
---
## 개요
Turn on strict in tsconfig and fix every resulting diagnostic.

## 예시
{"compilerOptions": {"strict": true}}
`

type env struct {
	router  http.Handler
	svc     *ruleservice.Service
	recents *recent.Service
}

// testEnv seeds a corpus with two rules and wires the full router.
// authToken == "" runs in disabled-auth mode.
func testEnv(t *testing.T, authToken string) *env {
	t.Helper()

	corpusDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(corpusDir, "go-errors.md"), []byte(goRule), 0o644)
	_ = os.WriteFile(filepath.Join(corpusDir, "ts-strict.md"), []byte(tsRule), 0o644)

	store, err := storage.NewFS(corpusDir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}

	dbFile, err := os.CreateTemp("", "srules-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := index.Sync(db, store, logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	svc, err := ruleservice.New(store, db, 0, logger)
	if err != nil {
		t.Fatal(err)
	}

	items, err := search.BuildIndex(store)
	if err != nil {
		t.Fatal(err)
	}
	searcher := search.NewFuzzy(items, 0)

	favs := favorites.NewService(prefstore.NewMem("api-test"), nil)
	rec := recent.NewService(prefstore.NewMem("api-test"), 0, nil)

	histPath := filepath.Join(t.TempDir(), history.HistoryFileName)
	_ = history.WriteHistoryFile(histPath, map[string][]models.CommitRecord{
		"go-error-wrapping": {{Hash: "abc123", Author: "kim", Date: "2024-03-10", Message: "add error wrapping rule"}},
	})

	h := NewHandler(svc, searcher, favs, rec, nil, histPath)
	router := NewRouter(h, authToken != "", authToken, nil, "")
	return &env{router: router, svc: svc, recents: rec}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestListRules(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/rules", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp RuleListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Rules) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	// Newest first.
	if resp.Rules[0].Slug != "go-error-wrapping" {
		t.Errorf("first = %q", resp.Rules[0].Slug)
	}
}

func TestListRules_Filtered(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/rules?category=Frontend", nil)
	var resp RuleListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Rules[0].Slug != "typescript-strict-mode" {
		t.Errorf("resp = %+v", resp)
	}

	w = e.do(t, http.MethodGet, "/rules?featured=true", nil)
	resp = RuleListResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Rules[0].Slug != "go-error-wrapping" {
		t.Errorf("featured = %+v", resp)
	}
}

func TestGetRule(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/rules/go-error-wrapping", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var rule models.Rule
	_ = json.Unmarshal(w.Body.Bytes(), &rule)
	if rule.Title != "Go Error Wrapping Rules" || rule.Author != "kim" {
		t.Errorf("rule = %+v", rule.RuleFrontmatter)
	}
	if !strings.Contains(rule.Content, "## 예시") {
		t.Error("content missing example section")
	}

	w = e.do(t, http.MethodGet, "/rules/no-such-rule", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing rule status = %d", w.Code)
	}
}

func TestFeaturedAndCategories(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/rules/featured", nil)
	var list RuleListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Rules) != 1 || list.Rules[0].Slug != "go-error-wrapping" {
		t.Errorf("featured = %+v", list)
	}

	w = e.do(t, http.MethodGet, "/categories", nil)
	var cats CategoriesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &cats)
	if len(cats.Categories) != 2 {
		t.Errorf("categories = %+v", cats)
	}
}

func TestSearch(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/search?q=typescrpt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp SearchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	found := false
	for _, r := range resp.Results {
		if r.Slug == "typescript-strict-mode" {
			found = true
		}
	}
	if !found {
		t.Errorf("typo query missed rule: %+v", resp.Results)
	}

	w = e.do(t, http.MethodGet, "/search", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing q status = %d", w.Code)
	}
}

func TestRecordViewAndRecent(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/rules/go-error-wrapping/view", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("view status = %d", w.Code)
	}
	w = e.do(t, http.MethodPost, "/rules/typescript-strict-mode/view", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("view status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/recent", nil)
	var resp RecentResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Recent) != 2 || resp.Recent[0].Slug != "typescript-strict-mode" {
		t.Fatalf("recent = %+v", resp.Recent)
	}

	w = e.do(t, http.MethodDelete, "/recent/typescript-strict-mode", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("remove status = %d", w.Code)
	}
	w = e.do(t, http.MethodDelete, "/recent/typescript-strict-mode", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second remove status = %d", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/recent", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/recent", nil)
	resp = RecentResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Recent) != 0 {
		t.Errorf("recent after clear = %+v", resp.Recent)
	}

	w = e.do(t, http.MethodPost, "/rules/no-such-rule/view", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("view of missing rule status = %d", w.Code)
	}
}

func TestFavorites(t *testing.T) {
	e := testEnv(t, "")

	item := models.FavoriteItem{Slug: "go-error-wrapping", Title: "Go Error Wrapping Rules"}

	w := e.do(t, http.MethodPost, "/favorites/toggle", item)
	if w.Code != http.StatusOK {
		t.Fatalf("toggle status = %d, body = %s", w.Code, w.Body.String())
	}
	var toggle ToggleFavoriteResponse
	_ = json.Unmarshal(w.Body.Bytes(), &toggle)
	if !toggle.Favorited {
		t.Error("first toggle should add")
	}

	w = e.do(t, http.MethodGet, "/favorites", nil)
	var favs FavoritesResponse
	_ = json.Unmarshal(w.Body.Bytes(), &favs)
	if len(favs.Favorites) != 1 || favs.Favorites[0].Slug != "go-error-wrapping" {
		t.Fatalf("favorites = %+v", favs.Favorites)
	}

	w = e.do(t, http.MethodPost, "/favorites/toggle", item)
	toggle = ToggleFavoriteResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &toggle)
	if toggle.Favorited {
		t.Error("second toggle should remove")
	}

	w = e.do(t, http.MethodPost, "/favorites/toggle", models.FavoriteItem{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty slug status = %d", w.Code)
	}

	w = e.do(t, http.MethodDelete, "/favorites", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("clear status = %d", w.Code)
	}
}

func TestRuleHistory(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodGet, "/rules/go-error-wrapping/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp HistoryResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Commits) != 1 || resp.Commits[0].Hash != "abc123" {
		t.Errorf("commits = %+v", resp.Commits)
	}

	// A rule with no timeline gets an empty list, not an error.
	w = e.do(t, http.MethodGet, "/rules/typescript-strict-mode/history", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp = HistoryResponse{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Commits == nil || len(resp.Commits) != 0 {
		t.Errorf("commits = %+v", resp.Commits)
	}

	w = e.do(t, http.MethodGet, "/rules/no-such-rule/history", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing rule status = %d", w.Code)
	}
}

func TestSubmissions_NotConfigured(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/submissions", github.Submission{Title: "Whatever Rule Title"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestAuth(t *testing.T) {
	e := testEnv(t, "sekrit")

	req := httptest.NewRequest(http.MethodGet, "/rules", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/rules", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/rules", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token status = %d", w.Code)
	}
}

func TestSubmissionFlow(t *testing.T) {
	// Wire a fake GitHub behind the submissions endpoints.
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/git/ref/"):
			json.NewEncoder(w).Encode(map[string]any{"object": map[string]string{"sha": "base"}})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/pulls"):
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"number": 1, "html_url": "https://github.com/depari/rules-corpus/pull/1"})
		default:
			w.WriteHeader(http.StatusCreated)
		}
	}))
	defer gh.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := github.NewClient(gh.URL, "tok", "depari", "rules-corpus")
	submitter := github.NewSubmitter(client, "main", "rules", logger)

	e := testEnv(t, "")
	h := NewHandler(e.svc, nil, nil, nil, submitter, "")
	e.router = NewRouter(h, false, "", nil, "")

	sub := github.Submission{
		Title:      "Proposed Naming Rule",
		Author:     "park",
		Tags:       []string{"naming"},
		Category:   []string{"Backend"},
		Difficulty: "beginner",
		Content:    "## 개요\n" + strings.Repeat("name things for what they mean. ", 3) + "\n\n## 예시\nuserCount, not uc\n",
	}
	w := e.do(t, http.MethodPost, "/submissions", sub)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SubmissionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.PRURL != "https://github.com/depari/rules-corpus/pull/1" {
		t.Errorf("prUrl = %q", resp.PRURL)
	}

	// Invalid proposal is rejected before any API call.
	w = e.do(t, http.MethodPost, "/submissions", github.Submission{Title: "abc"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid submission status = %d", w.Code)
	}
}

func TestSubmissionFallback_NoToken(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client := github.NewClient("", "", "depari", "rules-corpus")
	submitter := github.NewSubmitter(client, "main", "rules", logger)

	e := testEnv(t, "")
	h := NewHandler(e.svc, nil, nil, nil, submitter, "")
	e.router = NewRouter(h, false, "", nil, "")

	sub := github.Submission{
		Title:      "Proposed Naming Rule",
		Author:     "park",
		Tags:       []string{"naming"},
		Category:   []string{"Backend"},
		Difficulty: "beginner",
		Content:    "## 개요\n" + strings.Repeat("name things for what they mean. ", 3) + "\n\n## 예시\nuserCount, not uc\n",
	}
	w := e.do(t, http.MethodPost, "/submissions", sub)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp SubmissionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.PRURL != "" {
		t.Error("no PR should be opened without a token")
	}
	if !strings.Contains(resp.IssueURL, "labels=rule-proposal") {
		t.Errorf("issueUrl = %q", resp.IssueURL)
	}
}

func TestAssets(t *testing.T) {
	assetsDir := t.TempDir()
	_ = os.WriteFile(filepath.Join(assetsDir, search.IndexFileName), []byte("[]"), 0o644)

	e := testEnv(t, "")
	h := NewHandler(e.svc, nil, nil, nil, nil, "")
	e.router = NewRouter(h, false, "", nil, assetsDir)

	w := e.do(t, http.MethodGet, "/assets/"+search.IndexFileName, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("body = %q", w.Body.String())
	}
}
