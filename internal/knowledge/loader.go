package knowledge

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"time"

	"garden_buddy/internal/logger"
	"garden_buddy/pkg"

	"github.com/bytedance/sonic"
	"gopkg.in/yaml.v3"
)

//go:embed fallback.yaml
var fallbackDocument []byte

// Loader fetches the baseline knowledge document over HTTP
type Loader struct {
	url    string
	client *http.Client
}

// maxDocumentBytes caps the remote document size
const maxDocumentBytes = 4 << 20

// NewLoader creates a new loader. An empty url means always use the fallback.
func NewLoader(url string, timeout time.Duration) *Loader {
	return &Loader{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and decodes the document
func (l *Loader) Fetch(ctx context.Context) (*pkg.KnowledgeDocument, error) {
	if l.url == "" {
		return nil, fmt.Errorf("no knowledge document url configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch knowledge document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("knowledge document returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge document: %w", err)
	}
	if len(body) > maxDocumentBytes {
		return nil, fmt.Errorf("knowledge document exceeds %d bytes", maxDocumentBytes)
	}

	var doc pkg.KnowledgeDocument
	if err := sonic.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge document: %w", err)
	}
	if len(doc.Entries) == 0 {
		return nil, fmt.Errorf("knowledge document has no entries")
	}
	return &doc, nil
}

// Load fetches the document and falls back to the embedded copy on any failure
func (l *Loader) Load(ctx context.Context) *pkg.KnowledgeDocument {
	doc, err := l.Fetch(ctx)
	if err == nil {
		logger.Info().
			Int("entries", len(doc.Entries)).
			Str("version", doc.Version).
			Msg("Loaded knowledge document")
		return doc
	}

	logger.Warn().Err(err).Msg("Knowledge document unavailable, using built-in fallback")
	return Fallback()
}

// Fallback decodes the embedded document
func Fallback() *pkg.KnowledgeDocument {
	doc, err := ParseDocument(fallbackDocument)
	if err != nil {
		panic(fmt.Sprintf("embedded knowledge document is invalid: %v", err))
	}
	return doc
}

// ParseDocument decodes a YAML knowledge document
func ParseDocument(data []byte) (*pkg.KnowledgeDocument, error) {
	var doc pkg.KnowledgeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("error parsing knowledge document: %w", err)
	}
	return &doc, nil
}
