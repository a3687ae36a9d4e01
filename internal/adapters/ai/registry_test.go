package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dexter/pkg/errors"
)

type fakeGenerator struct{ name string }

func (g *fakeGenerator) Name() string { return g.name }

func (g *fakeGenerator) Generate(context.Context, GenerateRequest) (string, *Usage, error) {
	return "", nil, nil
}

func (g *fakeGenerator) GenerateStream(context.Context, GenerateRequest) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errCh := make(chan error, 1)
	close(chunks)
	close(errCh)
	return chunks, errCh
}

func TestRegistry_ResolveKnownModel(t *testing.T) {
	r := NewRegistry()
	gen := &fakeGenerator{name: "stub"}
	r.Register(ModelDescriptor{ID: "fast", Provider: "stub", Tier: TierFree}, "stub-v1", gen)

	resolved, providerModel, desc, err := r.Resolve("fast")
	require.NoError(t, err)
	assert.Same(t, gen, resolved)
	assert.Equal(t, "stub-v1", providerModel)
	assert.Equal(t, TierFree, desc.Tier)
}

func TestRegistry_ResolveUnknownModel(t *testing.T) {
	r := NewRegistry()

	_, _, _, err := r.Resolve("nope")

	assert.True(t, errors.Is(err, errors.ErrModelUnknown))
	assert.Contains(t, err.Error(), "nope")
}

func TestRegistry_Descriptors(t *testing.T) {
	r := NewRegistry()
	gen := &fakeGenerator{name: "stub"}
	r.Register(ModelDescriptor{ID: "fast", Tier: TierFree}, "v1", gen)
	r.Register(ModelDescriptor{ID: "smart", Tier: TierPro}, "v2", gen)

	descs := r.Descriptors()

	require.Len(t, descs, 2)
	assert.Equal(t, TierPro, descs["smart"].Tier)
}

func TestRegistry_DefaultsSkipNilProviders(t *testing.T) {
	r := NewRegistry()

	r.RegisterDefaults(nil, &fakeGenerator{name: "gemini"})

	descs := r.Descriptors()
	assert.Contains(t, descs, "gemini-flash")
	assert.Contains(t, descs, "gemini-pro")
	assert.NotContains(t, descs, "gpt-mini")
	assert.NotContains(t, descs, "gpt-4o")
}

func TestEntitlements_TierFor(t *testing.T) {
	e := NewEntitlements([]string{"alice"})

	assert.Equal(t, TierPro, e.TierFor("alice"))
	assert.Equal(t, TierFree, e.TierFor("bob"))
}

func TestEntitlements_Allowed(t *testing.T) {
	e := NewEntitlements(nil)

	free := ModelDescriptor{ID: "fast", Tier: TierFree}
	pro := ModelDescriptor{ID: "smart", Tier: TierPro}

	assert.True(t, e.Allowed(TierFree, free))
	assert.True(t, e.Allowed(TierPro, free))
	assert.False(t, e.Allowed(TierFree, pro))
	assert.True(t, e.Allowed(TierPro, pro))
}
