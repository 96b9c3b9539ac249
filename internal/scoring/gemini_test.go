package scoring

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mbd888/fraudgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	text string
	err  error

	calls      atomic.Int32
	lastModel  string
	lastConfig *genai.GenerateContentConfig
	mu         sync.Mutex
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.lastModel, f.lastConfig = model, cfg
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: f.text}}},
		}},
	}, nil
}

// withGenerator swaps the client factory for a fake and counts dials.
func withGenerator(b *GeminiBackend, gen generator, dialErr error) *atomic.Int32 {
	var dials atomic.Int32
	b.newClient = func(context.Context) (generator, error) {
		dials.Add(1)
		if dialErr != nil {
			return nil, dialErr
		}
		return gen, nil
	}
	return &dials
}

func gatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		ProjectID:      "proj-1",
		VertexLocation: "us-central1",
		VertexModel:    "gemini-1.5-pro",
		GoogleAPIKey:   "key-1",
		StudioModel:    "gemini-1.5-flash",
	}
}

func TestGeminiBackend_VertexSuccessUsesSchema(t *testing.T) {
	gen := &fakeGenerator{text: `{"risk_score":0.91,"decision":"DECLINE","reasons":["mismatch"]}`}
	b := NewVertexBackend(gatewayConfig())
	withGenerator(b, gen, nil)

	out := b.Score(context.Background(), []byte(`{}`))

	require.True(t, out.OK(), out.String())
	assert.Equal(t, BackendVertex, out.Backend)
	assert.Equal(t, DecisionDecline, out.Result.Decision)
	assert.Equal(t, "gemini-1.5-pro", gen.lastModel)
	require.NotNil(t, gen.lastConfig.ResponseSchema)
	assert.Equal(t, []string{"risk_score", "decision", "reasons"}, gen.lastConfig.ResponseSchema.Required)
	assert.Equal(t, "application/json", gen.lastConfig.ResponseMIMEType)
	assert.Equal(t, float32(0.2), *gen.lastConfig.Temperature)
	assert.Equal(t, float32(0.8), *gen.lastConfig.TopP)
}

func TestGeminiBackend_StudioHasNoSchema(t *testing.T) {
	gen := &fakeGenerator{text: `{"decision":"ALLOW"}`}
	b := NewStudioBackend(gatewayConfig(), nil)
	withGenerator(b, gen, nil)

	out := b.Score(context.Background(), []byte(`{}`))

	require.True(t, out.OK())
	assert.Equal(t, BackendStudio, out.Backend)
	assert.Equal(t, DefaultRiskScore, out.Result.RiskScore)
	assert.Equal(t, "gemini-1.5-flash", gen.lastModel)
	assert.Nil(t, gen.lastConfig.ResponseSchema)
}

func TestGeminiBackend_DisabledSentinel(t *testing.T) {
	cfg := gatewayConfig()
	cfg.ProjectID = "DISABLED"
	b := NewVertexBackend(cfg)
	dials := withGenerator(b, &fakeGenerator{}, nil)

	out := b.Score(context.Background(), nil)

	assert.Equal(t, FailureDisabled, out.Reason)
	assert.EqualValues(t, 0, dials.Load())
}

func TestGeminiBackend_NotConfigured(t *testing.T) {
	cfg := gatewayConfig()
	cfg.ProjectID = ""
	cfg.GoogleAPIKey = ""

	vertex := NewVertexBackend(cfg)
	vDials := withGenerator(vertex, &fakeGenerator{}, nil)
	studio := NewStudioBackend(cfg, nil)
	sDials := withGenerator(studio, &fakeGenerator{}, nil)

	vOut := vertex.Score(context.Background(), nil)
	sOut := studio.Score(context.Background(), nil)

	assert.Equal(t, FailureNotConfigured, vOut.Reason)
	assert.ErrorIs(t, vOut.Err, ErrMissingProject)
	assert.Equal(t, FailureNotConfigured, sOut.Reason)
	assert.ErrorIs(t, sOut.Err, ErrMissingAPIKey)
	assert.EqualValues(t, 0, vDials.Load()+sDials.Load())
}

func TestGeminiBackend_CallFailed(t *testing.T) {
	b := NewStudioBackend(gatewayConfig(), nil)
	withGenerator(b, &fakeGenerator{err: errors.New("quota exceeded")}, nil)

	out := b.Score(context.Background(), nil)
	assert.Equal(t, FailureCallFailed, out.Reason)
	assert.Contains(t, out.Err.Error(), "quota exceeded")
}

func TestGeminiBackend_MalformedOutput(t *testing.T) {
	for _, text := range []string{"", "   ", "I cannot help with that", `{"risk_score":0.2}`} {
		b := NewStudioBackend(gatewayConfig(), nil)
		withGenerator(b, &fakeGenerator{text: text}, nil)

		out := b.Score(context.Background(), nil)
		assert.Equal(t, FailureMalformedOutput, out.Reason, "text %q", text)
	}
}

func TestGeminiBackend_ClientCreatedOnce(t *testing.T) {
	gen := &fakeGenerator{text: `{"decision":"ALLOW"}`}
	b := NewStudioBackend(gatewayConfig(), nil)
	dials := withGenerator(b, gen, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Score(context.Background(), nil)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, dials.Load())
	assert.EqualValues(t, 20, gen.calls.Load())
}

func TestGeminiBackend_FailedDialNotCached(t *testing.T) {
	b := NewStudioBackend(gatewayConfig(), nil)
	dials := withGenerator(b, nil, errors.New("no credentials"))

	out := b.Score(context.Background(), nil)
	assert.Equal(t, FailureCallFailed, out.Reason)

	b.Score(context.Background(), nil)
	assert.EqualValues(t, 2, dials.Load())
}
