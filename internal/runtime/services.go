// Package runtime holds the registry of optional providers the pipeline
// can run without. Providers are probed before installation and can be
// swapped while the process is serving.
package runtime

import (
	"context"
	"sync"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

// Services holds references to the dynamically configurable providers:
// augmenter, translator, synthesizer. A nil provider means the capability
// is off; callers check the capability flags on RuntimeConfig.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks capability flags
	config *domain.RuntimeConfig

	augmenter   driven.Augmenter
	translator  driven.Translator
	synthesizer driven.Synthesizer
}

// NewServices creates a new Services registry
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config: config,
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// Augmenter returns the current augmenter (may be nil)
func (s *Services) Augmenter() driven.Augmenter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.augmenter
}

// Translator returns the current translator (may be nil)
func (s *Services) Translator() driven.Translator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.translator
}

// Synthesizer returns the current synthesizer (may be nil)
func (s *Services) Synthesizer() driven.Synthesizer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synthesizer
}

// SetAugmenter updates the augmenter, closing the old one, and flips the
// capability flag.
func (s *Services) SetAugmenter(svc driven.Augmenter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.augmenter != nil {
		_ = s.augmenter.Close()
	}
	s.augmenter = svc
	s.config.SetAugmentationAvailable(svc != nil)
}

// SetTranslator updates the translator and flips the capability flag.
func (s *Services) SetTranslator(svc driven.Translator) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.translator = svc
	s.config.SetTranslationAvailable(svc != nil)
}

// SetSynthesizer updates the synthesizer and flips the capability flag.
func (s *Services) SetSynthesizer(svc driven.Synthesizer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.synthesizer = svc
	s.config.SetSynthesisAvailable(svc != nil)
}

// ValidateAndSetAugmenter probes the provider before installing it.
// A failed probe leaves the registry unchanged.
func (s *Services) ValidateAndSetAugmenter(ctx context.Context, svc driven.Augmenter) error {
	if svc == nil {
		s.SetAugmenter(nil)
		return nil
	}
	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return err
	}
	s.SetAugmenter(svc)
	return nil
}

// ValidateAndSetTranslator probes the provider before installing it.
func (s *Services) ValidateAndSetTranslator(ctx context.Context, svc driven.Translator) error {
	if svc == nil {
		s.SetTranslator(nil)
		return nil
	}
	if err := svc.Ping(ctx); err != nil {
		return err
	}
	s.SetTranslator(svc)
	return nil
}

// ValidateAndSetSynthesizer probes the provider before installing it.
func (s *Services) ValidateAndSetSynthesizer(ctx context.Context, svc driven.Synthesizer) error {
	if svc == nil {
		s.SetSynthesizer(nil)
		return nil
	}
	if err := svc.Ping(ctx); err != nil {
		return err
	}
	s.SetSynthesizer(svc)
	return nil
}

// Close shuts down all providers and clears the capability flags.
func (s *Services) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.augmenter != nil {
		_ = s.augmenter.Close()
		s.augmenter = nil
	}
	s.translator = nil
	s.synthesizer = nil

	s.config.SetAugmentationAvailable(false)
	s.config.SetTranslationAvailable(false)
	s.config.SetSynthesisAvailable(false)

	return nil
}
