package scoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/mbd888/fraudgate/internal/config"
	"google.golang.org/genai"
)

var (
	ErrBackendDisabled = errors.New("backend disabled by configuration")
	ErrMissingProject  = errors.New("PROJECT_ID not set")
	ErrMissingAPIKey   = errors.New("GOOGLE_API_KEY not set")
	ErrEmptyResponse   = errors.New("model returned no text")
)

// generator is the slice of the genai client the backend needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiConfig describes one Gemini deployment.
type GeminiConfig struct {
	Name     BackendName
	Backend  genai.Backend
	Model    string
	Project  string // Vertex only
	Location string // Vertex only
	APIKey   string // Gemini API only

	// Disabled short-circuits every attempt with FailureDisabled.
	Disabled bool
	// EnforceSchema attaches the structured response schema to each call.
	EnforceSchema bool
	// HTTPClient is used for API-key deployments. Vertex keeps the default
	// credentialed client.
	HTTPClient *http.Client
}

// GeminiBackend scores prompts with a Gemini model, on Vertex AI or the
// Gemini API. The underlying client is created on first use and reused.
type GeminiBackend struct {
	cfg GeminiConfig

	mu        sync.Mutex
	gen       generator
	newClient func(ctx context.Context) (generator, error)
}

// NewGeminiBackend creates a backend. No network activity happens until the
// first Score call.
func NewGeminiBackend(cfg GeminiConfig) *GeminiBackend {
	b := &GeminiBackend{cfg: cfg}
	b.newClient = b.dial
	return b
}

// NewVertexBackend configures the primary backend from gateway config.
func NewVertexBackend(cfg config.GatewayConfig) *GeminiBackend {
	return NewGeminiBackend(GeminiConfig{
		Name:          BackendVertex,
		Backend:       genai.BackendVertexAI,
		Model:         cfg.VertexModel,
		Project:       cfg.ProjectID,
		Location:      cfg.VertexLocation,
		Disabled:      strings.EqualFold(cfg.ProjectID, config.VertexDisabled),
		EnforceSchema: true,
	})
}

// NewStudioBackend configures the secondary backend from gateway config.
func NewStudioBackend(cfg config.GatewayConfig, httpClient *http.Client) *GeminiBackend {
	return NewGeminiBackend(GeminiConfig{
		Name:       BackendStudio,
		Backend:    genai.BackendGeminiAPI,
		Model:      cfg.StudioModel,
		APIKey:     cfg.GoogleAPIKey,
		HTTPClient: httpClient,
	})
}

// Name implements Backend.
func (b *GeminiBackend) Name() BackendName {
	return b.cfg.Name
}

// Score implements Backend.
func (b *GeminiBackend) Score(ctx context.Context, prompt []byte) Outcome {
	if b.cfg.Disabled {
		return Failed(b.cfg.Name, FailureDisabled, ErrBackendDisabled)
	}
	if err := b.checkConfigured(); err != nil {
		return Failed(b.cfg.Name, FailureNotConfigured, err)
	}

	gen, err := b.client(ctx)
	if err != nil {
		return Failed(b.cfg.Name, FailureCallFailed, err)
	}

	resp, err := gen.GenerateContent(ctx, b.cfg.Model, genai.Text(string(prompt)), b.generationConfig())
	if err != nil {
		return Failed(b.cfg.Name, FailureCallFailed, fmt.Errorf("generate content: %w", err))
	}
	if resp == nil {
		return Failed(b.cfg.Name, FailureMalformedOutput, ErrEmptyResponse)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return Failed(b.cfg.Name, FailureMalformedOutput, ErrEmptyResponse)
	}

	result, err := ParseModelOutput(text)
	if err != nil {
		return Failed(b.cfg.Name, FailureMalformedOutput, err)
	}
	return Succeeded(b.cfg.Name, result)
}

func (b *GeminiBackend) checkConfigured() error {
	switch b.cfg.Backend {
	case genai.BackendVertexAI:
		if b.cfg.Project == "" {
			return ErrMissingProject
		}
	default:
		if b.cfg.APIKey == "" {
			return ErrMissingAPIKey
		}
	}
	return nil
}

// client returns the cached client, creating it if needed. A failed dial is
// not cached so a later request can try again.
func (b *GeminiBackend) client(ctx context.Context) (generator, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.gen != nil {
		return b.gen, nil
	}
	gen, err := b.newClient(ctx)
	if err != nil {
		return nil, err
	}
	b.gen = gen
	return gen, nil
}

func (b *GeminiBackend) dial(ctx context.Context) (generator, error) {
	cc := &genai.ClientConfig{Backend: b.cfg.Backend}
	if b.cfg.Backend == genai.BackendVertexAI {
		cc.Project = b.cfg.Project
		cc.Location = b.cfg.Location
	} else {
		cc.APIKey = b.cfg.APIKey
		cc.HTTPClient = b.cfg.HTTPClient
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", b.cfg.Name, err)
	}
	return client.Models, nil
}

func (b *GeminiBackend) generationConfig() *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		TopP:             genai.Ptr[float32](0.8),
		MaxOutputTokens:  512,
		ResponseMIMEType: "application/json",
	}
	if b.cfg.EnforceSchema {
		gc.ResponseSchema = responseSchema()
	}
	return gc
}

func responseSchema() *genai.Schema {
	stringArray := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"risk_score":    {Type: genai.TypeNumber},
			"decision":      {Type: genai.TypeString, Enum: []string{"ALLOW", "REVIEW", "DECLINE"}},
			"reasons":       stringArray,
			"features_used": stringArray,
		},
		Required: []string{"risk_score", "decision", "reasons"},
	}
}
