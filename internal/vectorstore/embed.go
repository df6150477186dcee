package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gdrive-assistant/gdrive-assistant/internal/errors"
)

// Embedder turns text into dense vectors.
type Embedder interface {
	// Embed returns one vector per input, in input order.
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

// RESTEmbedder calls an OpenAI-compatible embeddings endpoint.
type RESTEmbedder struct {
	url    string
	model  string
	client http.Client
}

// NewRESTEmbedder returns an embedder for the service at baseURL, which must
// expose POST {baseURL}/embeddings.
func NewRESTEmbedder(baseURL, model string) *RESTEmbedder {
	return &RESTEmbedder{
		url:    strings.TrimRight(baseURL, "/") + "/embeddings",
		model:  model,
		client: http.Client{Transport: Transport()},
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (e *RESTEmbedder) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: e.model, Input: inputs})
	if err != nil {
		return nil, errors.Wrap(err, "json.Marshal")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "NewRequest")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "embeddings request")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("embeddings request failed: %v", resp.Status)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode embeddings response")
	}
	if len(parsed.Data) != len(inputs) {
		return nil, errors.Errorf("embeddings response has %d vectors for %d inputs",
			len(parsed.Data), len(inputs))
	}

	vectors := make([][]float32, len(parsed.Data))
	for i, d := range parsed.Data {
		if len(d.Embedding) == 0 {
			return nil, errors.Errorf("embeddings response has an empty vector at index %d", i)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
