package ai

import (
	"sync"

	"dexter/pkg/errors"
)

// registeredModel binds a public model id to a provider and its own
// model identifier.
type registeredModel struct {
	descriptor    ModelDescriptor
	providerModel string
	generator     Generator
}

// Registry maps opaque public model ids to generation providers.
type Registry struct {
	models map[string]registeredModel
	mu     sync.RWMutex
}

// NewRegistry constructs an empty model registry.
func NewRegistry() *Registry {
	return &Registry{models: make(map[string]registeredModel)}
}

// Register adds a model under its public id.
func (r *Registry) Register(desc ModelDescriptor, providerModel string, gen Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[desc.ID] = registeredModel{
		descriptor:    desc,
		providerModel: providerModel,
		generator:     gen,
	}
}

// Resolve returns the generator, provider-specific model name and
// descriptor for a public model id.
func (r *Registry) Resolve(id string) (Generator, string, ModelDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[id]
	if !ok {
		return nil, "", ModelDescriptor{}, errors.Wrapf(errors.ErrModelUnknown, "model %q", id)
	}

	return m.generator, m.providerModel, m.descriptor, nil
}

// Descriptors returns all registered model descriptors keyed by public id.
// Used by the capability discovery endpoint.
func (r *Registry) Descriptors() map[string]ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]ModelDescriptor, len(r.models))
	for id, m := range r.models {
		out[id] = m.descriptor
	}
	return out
}

// RegisterDefaults wires the standard model catalog. Either generator may
// be nil when its API key is not configured; those models are skipped.
func (r *Registry) RegisterDefaults(openaiGen, geminiGen Generator) {
	if geminiGen != nil {
		r.Register(ModelDescriptor{
			ID:                "gemini-flash",
			Provider:          "gemini",
			DisplayName:       "Gemini Flash",
			Tier:              TierFree,
			SupportsStreaming: true,
		}, "gemini-2.0-flash", geminiGen)

		r.Register(ModelDescriptor{
			ID:                "gemini-pro",
			Provider:          "gemini",
			DisplayName:       "Gemini Pro",
			Tier:              TierPro,
			SupportsStreaming: true,
		}, "gemini-2.5-pro", geminiGen)
	}

	if openaiGen != nil {
		r.Register(ModelDescriptor{
			ID:                "gpt-mini",
			Provider:          "openai",
			DisplayName:       "GPT Mini",
			Tier:              TierFree,
			SupportsStreaming: true,
		}, "gpt-4o-mini", openaiGen)

		r.Register(ModelDescriptor{
			ID:                "gpt-4o",
			Provider:          "openai",
			DisplayName:       "GPT-4o",
			Tier:              TierPro,
			SupportsStreaming: true,
		}, "gpt-4o", openaiGen)
	}
}
