package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	superr "github.com/nbbaier/supertag/internal/errors"
	"github.com/nbbaier/supertag/internal/schema"
	"github.com/nbbaier/supertag/internal/store"
)

type handlers struct {
	deps *Deps
}

// wantsJSON implements the "?format=json" text-by-default switch.
func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json"
}

func workspaceParam(r *http.Request, body map[string]interface{}) string {
	if ws := r.URL.Query().Get("workspace"); ws != "" {
		return ws
	}
	if body != nil {
		if ws, ok := body["workspace"].(string); ok {
			return ws
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeError maps an *errors.Error to the HTTP status table from the
// design spec and renders it as JSON regardless of ?format, since an
// error response has no sensible paste-format rendering.
func writeError(w http.ResponseWriter, err error) {
	e, ok := superr.As(err)
	if !ok {
		e = superr.New(superr.UnknownError, err.Error())
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case superr.InvalidParameter, superr.MissingRequired, superr.InvalidFormat, superr.ValidationErrors, superr.CorruptSnapshot:
		status = http.StatusBadRequest
	case superr.NodeNotFound, superr.TagNotFound, superr.WorkspaceNotFound, superr.DatabaseNotFound:
		status = http.StatusNotFound
	case superr.DatabaseLocked:
		status = http.StatusConflict
	case superr.RateLimited:
		status = http.StatusTooManyRequests
	case superr.LocalApiUnavailable, superr.NetworkError:
		status = http.StatusServiceUnavailable
	case superr.InternalError:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{
		"error":   string(e.Kind),
		"message": e.Message,
	})
}

func decodeBody(r *http.Request) map[string]interface{} {
	if r.Body == nil {
		return nil
	}
	var body map[string]interface{}
	_ = json.NewDecoder(r.Body).Decode(&body)
	return body
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) workspaces(w http.ResponseWriter, r *http.Request) {
	type wsInfo struct {
		Alias   string `json:"alias"`
		Default bool   `json:"default"`
		Enabled bool   `json:"enabled"`
	}
	out := make([]wsInfo, 0, len(h.deps.Config.Workspaces))
	for _, ws := range h.deps.Config.Workspaces {
		out = append(out, wsInfo{Alias: ws.Alias, Default: ws.Default, Enabled: ws.Enabled})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) help(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, strings.Join([]string{
		"GET  /health",
		"GET  /workspaces",
		"GET  /help",
		"POST /search       {q, workspace?, limit?}",
		"GET  /stats        ?workspace=",
		"POST /tags         {search?, workspace?}",
		"POST /nodes        {ids: [...], workspace?}",
		"POST /refs         {id, workspace?}",
		"POST /semantic-search {q, k?, workspace?}",
		"GET  /embed-stats  ?workspace=",
		"",
		"Append ?format=json to any endpoint for a JSON body instead of the default paste text.",
	}, "\n"))
}

func (h *handlers) search(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	q, _ := body["q"].(string)
	if q == "" {
		writeError(w, superr.New(superr.MissingRequired, "search requires q"))
		return
	}
	limit := 20
	if lv, ok := body["limit"].(float64); ok && lv > 0 {
		limit = int(lv)
	}

	s, _, err := h.deps.Pool.Get(workspaceParam(r, body))
	if err != nil {
		writeError(w, err)
		return
	}

	ids, err := s.SearchFTS(q, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	nodes := loadNodeSummaries(s.DB(), ids)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, nodes)
		return
	}
	writeText(w, http.StatusOK, renderNodes(nodes))
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	s, _, err := h.deps.Pool.Get(r.URL.Query().Get("workspace"))
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := s.Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, stats)
		return
	}
	var b strings.Builder
	for k, v := range stats {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(strconv.FormatInt(v, 10))
		b.WriteString("\n")
	}
	writeText(w, http.StatusOK, b.String())
}

func (h *handlers) tags(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	_, svc, err := h.deps.Pool.Get(workspaceParam(r, body))
	if err != nil {
		writeError(w, err)
		return
	}

	var tags []*schema.Supertag
	if search, _ := body["search"].(string); search != "" {
		tags, err = svc.SearchSupertags(search)
	} else {
		tags, err = svc.ListSupertags()
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, tags)
		return
	}
	var b strings.Builder
	for _, t := range tags {
		b.WriteString(t.Name)
		b.WriteString("\n")
	}
	writeText(w, http.StatusOK, b.String())
}

func (h *handlers) nodes(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	s, _, err := h.deps.Pool.Get(workspaceParam(r, body))
	if err != nil {
		writeError(w, err)
		return
	}

	rawIDs, _ := body["ids"].([]interface{})
	ids := make([]string, 0, len(rawIDs))
	for _, v := range rawIDs {
		if id, ok := v.(string); ok {
			ids = append(ids, id)
		}
	}
	nodes := loadNodeSummaries(s.DB(), ids)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, nodes)
		return
	}
	writeText(w, http.StatusOK, renderNodes(nodes))
}

func (h *handlers) refs(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	s, _, err := h.deps.Pool.Get(workspaceParam(r, body))
	if err != nil {
		writeError(w, err)
		return
	}
	id, _ := body["id"].(string)
	if id == "" {
		writeError(w, superr.New(superr.MissingRequired, "refs requires id"))
		return
	}
	refs, err := store.References(s.DB(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, refs)
		return
	}
	var b strings.Builder
	for _, ref := range refs {
		b.WriteString(ref.ToNode)
		b.WriteString("\n")
	}
	writeText(w, http.StatusOK, b.String())
}

func (h *handlers) semanticSearch(w http.ResponseWriter, r *http.Request) {
	body := decodeBody(r)
	q, _ := body["q"].(string)
	if q == "" {
		writeError(w, superr.New(superr.MissingRequired, "semantic-search requires q"))
		return
	}
	k := 10
	if kv, ok := body["k"].(float64); ok && kv > 0 {
		k = int(kv)
	}

	s, _, err := h.deps.Pool.Get(workspaceParam(r, body))
	if err != nil {
		writeError(w, err)
		return
	}
	engine, err := h.deps.embeddingEngine()
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	matches, err := embeddingSearch(ctx, s, engine, q, k)
	if err != nil {
		writeError(w, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, matches)
		return
	}
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.Name)
		b.WriteString("\n")
	}
	writeText(w, http.StatusOK, b.String())
}

func (h *handlers) embedStats(w http.ResponseWriter, r *http.Request) {
	s, _, err := h.deps.Pool.Get(r.URL.Query().Get("workspace"))
	if err != nil {
		writeError(w, err)
		return
	}
	if s.Vector() == nil {
		writeError(w, superr.New(superr.LocalApiUnavailable, "vector store unavailable for this workspace"))
		return
	}
	count, dims, err := s.Vector().Stats()
	if err != nil {
		writeError(w, err)
		return
	}
	out := map[string]int{"embedded_nodes": count, "dimensions": dims}
	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, out)
		return
	}
	writeText(w, http.StatusOK, "embedded_nodes: "+strconv.Itoa(count)+"\ndimensions: "+strconv.Itoa(dims)+"\n")
}
