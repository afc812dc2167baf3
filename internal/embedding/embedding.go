// Package embedding implements the association oracle over word vectors:
// a loaded word2vec table or an HTTP embedding service, compared by cosine
// similarity.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"
)

// Vector is the embedding of one word.
type Vector = []float32

// Source looks up the vector of a single word.
type Source interface {
	Vector(ctx context.Context, word string) (Vector, error)
}

// Cosine returns the cosine of the angle between a and b. Vectors of
// different length, empty vectors and zero vectors score 0.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, aa, bb float64
	for i, x := range a {
		y := float64(b[i])
		dot += float64(x) * y
		aa += float64(x) * float64(x)
		bb += y * y
	}
	if aa == 0 || bb == 0 {
		return 0
	}
	return dot / math.Sqrt(aa*bb)
}

// Provider names accepted in ACTR_SIM_EMBED_PROVIDER.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Remote fetches word vectors from an embedding service, one POST per
// word. The oracle caches what it gets back.
type Remote struct {
	provider string
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding Vector `json:"embedding"`
}

type openaiRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type openaiResponse struct {
	Data []struct {
		Embedding Vector `json:"embedding"`
	} `json:"data"`
}

// NewOllama looks words up through Ollama's /api/embeddings. Empty
// arguments select a local server and nomic-embed-text.
func NewOllama(baseURL, model string) *Remote {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return newRemote(ProviderOllama, strings.TrimRight(baseURL, "/")+"/api/embeddings", model, "")
}

// NewOpenAI looks words up through an OpenAI-compatible /embeddings
// endpoint, sending apiKey as a bearer token when set.
func NewOpenAI(baseURL, apiKey, model string) *Remote {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "text-embedding-3-small"
	}
	return newRemote(ProviderOpenAI, strings.TrimRight(baseURL, "/")+"/embeddings", model, apiKey)
}

func newRemote(provider, endpoint, model, apiKey string) *Remote {
	return &Remote{
		provider: provider,
		endpoint: endpoint,
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Vector returns the embedding of word.
func (r *Remote) Vector(ctx context.Context, word string) (Vector, error) {
	var v Vector
	switch r.provider {
	case ProviderOpenAI:
		var out openaiResponse
		if err := r.post(ctx, openaiRequest{Input: word, Model: r.model}, &out); err != nil {
			return nil, r.wrap(word, err)
		}
		if len(out.Data) == 0 {
			return nil, r.wrap(word, errors.New("response carries no embedding"))
		}
		v = out.Data[0].Embedding
	default:
		var out ollamaResponse
		if err := r.post(ctx, ollamaRequest{Model: r.model, Prompt: word}, &out); err != nil {
			return nil, r.wrap(word, err)
		}
		v = out.Embedding
	}
	if len(v) == 0 {
		return nil, r.wrap(word, errors.New("empty vector"))
	}
	return v, nil
}

func (r *Remote) wrap(word string, err error) error {
	return fmt.Errorf("%s: vector for %q: %w", r.provider, word, err)
}

func (r *Remote) post(ctx context.Context, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// FromEnv builds a Source from the environment:
//
//	ACTR_SIM_EMBED_PROVIDER  "ollama" | "openai" | "" (none)
//	ACTR_SIM_EMBED_MODEL     model name
//	ACTR_SIM_EMBED_URL       base URL; ollama falls back to OLLAMA_HOST
//	OPENAI_API_KEY           bearer token for openai
//
// An unset provider returns a nil Source and no error.
func FromEnv() (Source, error) {
	url := os.Getenv("ACTR_SIM_EMBED_URL")
	model := os.Getenv("ACTR_SIM_EMBED_MODEL")
	switch p := os.Getenv("ACTR_SIM_EMBED_PROVIDER"); p {
	case "":
		return nil, nil
	case ProviderOllama:
		if url == "" {
			url = os.Getenv("OLLAMA_HOST")
		}
		return NewOllama(url, model), nil
	case ProviderOpenAI:
		return NewOpenAI(url, os.Getenv("OPENAI_API_KEY"), model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", p)
	}
}
