// Package vectorstore indexes extracted document text into a Qdrant
// collection and answers similarity queries against it. Point IDs are derived
// deterministically from the document ID and chunk index, so ingesting a
// document twice replaces its chunks instead of duplicating them.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gdrive-assistant/gdrive-assistant/internal/config"
	"github.com/gdrive-assistant/gdrive-assistant/internal/debug"
	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// payloadIndexFields are indexed as keywords when the collection is created,
// so change detection and deletes filter server-side.
var payloadIndexFields = []string{"file_id", "modified_time", "source"}

// Store talks to one Qdrant collection over its HTTP API.
type Store struct {
	url        *url.URL
	collection string
	client     http.Client
	embedder   Embedder

	chunkChars   int
	chunkOverlap int
}

// storeError is returned whenever the server answers with a non-successful
// HTTP status.
type storeError struct {
	Op         string
	StatusCode int
	Status     string
}

func (e *storeError) Error() string {
	return fmt.Sprintf("qdrant %v: unexpected HTTP response (%v): %v", e.Op, e.StatusCode, e.Status)
}

// New returns a store for the collection configured in cfg. The embedder is
// used for both ingestion and queries.
func New(cfg *config.Settings, embedder Embedder) (*Store, error) {
	u, err := url.Parse(strings.TrimRight(cfg.QdrantURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse Qdrant URL")
	}

	return &Store{
		url:          u,
		collection:   cfg.QdrantCollection,
		client:       http.Client{Transport: Transport()},
		embedder:     embedder,
		chunkChars:   cfg.ChunkChars,
		chunkOverlap: cfg.ChunkOverlap,
	}, nil
}

func (s *Store) path(parts ...string) string {
	return s.url.String() + "/collections/" + s.collection + strings.Join(parts, "")
}

// do sends one JSON request and decodes the response into out when non-nil.
// A non-2xx status surfaces as *storeError.
func (s *Store) do(ctx context.Context, method, rawurl string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "json.Marshal")
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawurl, rd)
	if err != nil {
		return errors.Wrap(err, "NewRequest")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	debug.Log("qdrant %v %v", method, rawurl)

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "qdrant request")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &storeError{Op: method + " " + req.URL.Path, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decode qdrant response")
		}
	}
	return nil
}

// EnsureCollection creates the collection when it does not exist yet. The
// vector size is probed from the embedder, so the store follows whatever
// model the embeddings service runs.
func (s *Store) EnsureCollection(ctx context.Context) error {
	err := s.do(ctx, http.MethodGet, s.path(), nil, nil)
	if err == nil {
		return nil
	}
	var serr *storeError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusNotFound {
		return err
	}

	vectors, err := s.embedder.Embed(ctx, []string{"dimension probe"})
	if err != nil {
		return errors.Wrap(err, "probe embedding dimension")
	}
	dim := len(vectors[0])

	create := map[string]interface{}{
		"vectors": map[string]interface{}{"size": dim, "distance": "Cosine"},
	}
	if err := s.do(ctx, http.MethodPut, s.path(), create, nil); err != nil {
		return err
	}

	for _, field := range payloadIndexFields {
		idx := map[string]interface{}{"field_name": field, "field_schema": "keyword"}
		if err := s.do(ctx, http.MethodPut, s.path("/index"), idx, nil); err != nil {
			return err
		}
	}
	return nil
}

// UpsertDocument chunks and embeds text and writes the points in one call.
// The payload is stored on every chunk, extended with the chunk text, index
// and ingestion timestamp. Returns the number of points written.
func (s *Store) UpsertDocument(ctx context.Context, docID, text string, payload map[string]interface{}) (int, error) {
	chunks := ChunkText(text, s.chunkChars, s.chunkOverlap)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	points := make([]map[string]interface{}, len(chunks))
	for i, chunk := range chunks {
		p := map[string]interface{}{
			"text":  chunk,
			"chunk": i,
			"ts":    now,
		}
		for k, v := range payload {
			p[k] = v
		}
		points[i] = map[string]interface{}{
			"id":      PointID(docID, i),
			"vector":  vectors[i],
			"payload": p,
		}
	}

	body := map[string]interface{}{"points": points}
	if err := s.do(ctx, http.MethodPut, s.path("/points")+"?wait=true", body, nil); err != nil {
		return 0, err
	}
	return len(points), nil
}

// DeleteByFileID removes every point previously stored for the file.
func (s *Store) DeleteByFileID(ctx context.Context, fileID string) error {
	body := map[string]interface{}{
		"filter": mustFilter(
			fieldMatch("file_id", fileID),
		),
	}
	return s.do(ctx, http.MethodPost, s.path("/points/delete")+"?wait=true", body, nil)
}

// ExistsFileMtime reports whether at least one point exists for the file with
// exactly this modification timestamp. Used for change detection: a match
// means the stored copy is current.
func (s *Store) ExistsFileMtime(ctx context.Context, fileID, modifiedTime string) (bool, error) {
	body := map[string]interface{}{
		"filter": mustFilter(
			fieldMatch("file_id", fileID),
			fieldMatch("modified_time", modifiedTime),
		),
		"limit":        1,
		"with_payload": false,
		"with_vector":  false,
	}

	var parsed struct {
		Result struct {
			Points []json.RawMessage `json:"points"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.path("/points/scroll"), body, &parsed); err != nil {
		return false, err
	}
	return len(parsed.Result.Points) > 0, nil
}

// SearchHit is one scored result of a similarity query.
type SearchHit struct {
	Score   float64
	Payload map[string]interface{}
}

// Search embeds the query and returns the topK closest chunks.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"query":        vectors[0],
		"limit":        topK,
		"with_payload": true,
	}

	var parsed struct {
		Result struct {
			Points []struct {
				Score   float64                `json:"score"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, s.path("/points/query"), body, &parsed); err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(parsed.Result.Points))
	for _, p := range parsed.Result.Points {
		hits = append(hits, SearchHit{Score: p.Score, Payload: p.Payload})
	}
	return hits, nil
}

// BuildContext renders hits as a numbered context block, cut off at maxChars.
func BuildContext(hits []SearchHit, maxChars int) string {
	var b strings.Builder
	for i, hit := range hits {
		source, _ := hit.Payload["source"].(string)
		file, _ := hit.Payload["file_name"].(string)
		text, _ := hit.Payload["text"].(string)

		entry := fmt.Sprintf("[%d] score=%.3f source=%s file=%s\n%s\n", i+1, hit.Score, source, file, text)
		if maxChars > 0 && b.Len()+len(entry) > maxChars {
			break
		}
		b.WriteString(entry)
	}
	return strings.TrimSpace(b.String())
}

func fieldMatch(key string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"key":   key,
		"match": map[string]interface{}{"value": value},
	}
}

func mustFilter(conditions ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"must": conditions}
}
