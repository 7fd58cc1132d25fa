package httpapi

import (
	"net/http"
	"strings"
)

// Articles are a small demo resource guarded by the grant check: listing
// requires article/read, updating requires article/update. Staff accounts
// pass both regardless of grants.

const articleResource = "article"

type article struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func demoArticles() []article {
	return []article{
		{ID: "1", Title: "Welcome", Content: "First post."},
		{ID: "2", Title: "Release notes", Content: "Token auth shipped."},
	}
}

type updateArticleRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (a *API) handleArticles(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/articles/"), "/")
	if path == "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.handleArticleList(w, r)
		return
	}
	parts := strings.Split(path, "/")
	if len(parts) == 2 && parts[1] == "update" {
		if r.Method != http.MethodPost {
			methodNotAllowed(w, r, http.MethodPost)
			return
		}
		a.handleArticleUpdate(w, r, parts[0])
		return
	}
	writeError(w, r, http.StatusNotFound, "resource not found")
}

func (a *API) handleArticleList(w http.ResponseWriter, r *http.Request) {
	if a.ensurePermission(w, r, articleResource, "read") == nil {
		return
	}
	a.articlesMu.Lock()
	out := make([]article, len(a.articles))
	copy(out, a.articles)
	a.articlesMu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"articles": out,
	})
}

func (a *API) handleArticleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	user := a.ensurePermission(w, r, articleResource, "update")
	if user == nil {
		return
	}
	var req updateArticleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	a.articlesMu.Lock()
	defer a.articlesMu.Unlock()
	for i := range a.articles {
		if a.articles[i].ID != id {
			continue
		}
		if strings.TrimSpace(req.Title) != "" {
			a.articles[i].Title = req.Title
		}
		if strings.TrimSpace(req.Content) != "" {
			a.articles[i].Content = req.Content
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"article":    a.articles[i],
			"updated_by": user.Email,
		})
		return
	}
	writeError(w, r, http.StatusNotFound, "resource not found")
}
