package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/devanand8x/honeypot-api/pkg/httputil"
)

// SemanticLayer matches messages against canonical scam scripts by
// embedding similarity. It catches paraphrases the keyword rules miss
// ("your sim card needs revalidation" and so on). Disabled unless an
// embedding endpoint is configured.
type SemanticLayer struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	baseURL    string
	threshold  float32
	ready      bool
}

// DefaultSemanticThreshold is the minimum cosine similarity to count a
// message as matching a seeded scam script.
const DefaultSemanticThreshold = 0.70

// seedScripts are canonical phrasings of the scam playbooks the rule
// registry covers, one per playbook, used as similarity anchors.
var seedScripts = []string{
	"your bank account will be blocked today unless you verify your details immediately",
	"share the otp you just received to complete the verification",
	"your kyc has expired, click the link to update it or your account will be suspended",
	"congratulations, you have won a lottery prize of 25 lakh rupees, pay the processing fee to claim",
	"this is calling from your bank's customer care, we noticed suspicious activity on your card",
	"your electricity connection will be disconnected tonight due to an unpaid bill",
	"a parcel addressed to you is held at customs, pay the duty to release it",
	"work from home job offer, guaranteed daily income, registration fee required",
	"there is a police case filed against your name, pay the penalty to avoid arrest",
	"send the money to this upi id right now and you will get double the amount back",
}

// NewSemanticLayer builds the layer with an Ollama embedding endpoint.
// Call Seed before first use.
func NewSemanticLayer(ollamaURL, model string, threshold float32) (*SemanticLayer, error) {
	if threshold <= 0 {
		threshold = DefaultSemanticThreshold
	}
	db := chromem.NewDB()
	collection, err := db.CreateCollection("scam_scripts", nil, newOllamaEmbeddingFunc(model, ollamaURL))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &SemanticLayer{db: db, collection: collection, baseURL: ollamaURL, threshold: threshold}, nil
}

// CheckEndpoint probes the embedding endpoint before the expensive seeding
// pass, so an unreachable Ollama fails fast at startup.
func (s *SemanticLayer) CheckEndpoint(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := httputil.FastClient().Do(req)
	if err != nil {
		return fmt.Errorf("embedding endpoint unreachable: %w", err)
	}
	defer httputil.DrainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// newOllamaEmbeddingFunc builds a chromem embedding function over Ollama's
// /api/embeddings endpoint.
func newOllamaEmbeddingFunc(model, baseURL string) chromem.EmbeddingFunc {
	client := httputil.MediumClient()

	return func(ctx context.Context, text string) ([]float32, error) {
		reqBody, err := json.Marshal(map[string]string{
			"model":  model,
			"prompt": text,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal embedding request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/embeddings", bytes.NewReader(reqBody))
		if err != nil {
			return nil, fmt.Errorf("build embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embedding request: %w", err)
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			body, _ := httputil.ReadErrorBody(resp.Body)
			return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, string(body))
		}

		body, err := httputil.ReadResponseBody(resp.Body, httputil.MaxResponseSize)
		if err != nil {
			return nil, fmt.Errorf("read embedding response: %w", err)
		}

		var result struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decode embedding response: %w", err)
		}
		return result.Embedding, nil
	}
}

// Seed embeds the canonical scam scripts into the collection. One worker:
// local Ollama instances fall over under parallel embedding load.
func (s *SemanticLayer) Seed(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]chromem.Document, len(seedScripts))
	for i, script := range seedScripts {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("script_%d", i),
			Content: script,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("seed scam scripts: %w", err)
	}
	s.ready = true
	return nil
}

// Match reports whether the text is similar enough to a seeded script.
func (s *SemanticLayer) Match(ctx context.Context, text string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return false, fmt.Errorf("semantic layer not seeded")
	}

	results, err := s.collection.Query(ctx, strings.ToLower(text), 1, nil, nil)
	if err != nil {
		return false, fmt.Errorf("semantic query: %w", err)
	}
	if len(results) == 0 {
		return false, nil
	}
	return results[0].Similarity >= s.threshold, nil
}
