package vectorindex

import (
	"context"
	"fmt"

	"learnnest/internal/domain"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
)

// Metadata keys written by the corpus ingestion job.
const (
	metaText  = "text"
	metaTitle = "title"
	metaURL   = "url"
)

type vectorQuerier interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
}

// PineconeIndex queries one namespace of a Pinecone index.
type PineconeIndex struct {
	conn      vectorQuerier
	namespace string
}

// NewPineconeIndex connects to the index served at host. The namespace names
// the reference corpus.
func NewPineconeIndex(apiKey, host, namespace string) (*PineconeIndex, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("pinecone API key cannot be empty")
	}
	if host == "" {
		return nil, fmt.Errorf("pinecone index host cannot be empty")
	}

	client, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Pinecone client: %w", err)
	}
	conn, err := client.Index(pinecone.NewIndexConnParams{Host: host, Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Pinecone index %s: %w", host, err)
	}
	return &PineconeIndex{conn: conn, namespace: namespace}, nil
}

func (p *PineconeIndex) Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]domain.VectorMatch, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	resp, err := p.conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeMetadata: includeMetadata,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query in namespace %q: %w", p.namespace, err)
	}

	matches := make([]domain.VectorMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		match := domain.VectorMatch{ID: m.Vector.Id, Score: m.Score}
		if m.Vector.Metadata != nil {
			match.Metadata = m.Vector.Metadata.AsMap()
			match.Text = stringField(match.Metadata, metaText)
			match.Title = stringField(match.Metadata, metaTitle)
			match.URL = stringField(match.Metadata, metaURL)
		}
		matches = append(matches, match)
	}
	return matches, nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

var _ domain.VectorIndex = (*PineconeIndex)(nil)
