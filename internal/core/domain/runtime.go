package domain

import "sync"

// RuntimeConfig tracks which optional providers are available at runtime.
// Availability is probed once at startup and can be updated dynamically.
// Thread-safe for concurrent access.
type RuntimeConfig struct {
	mu sync.RWMutex

	// Static (set at startup, read-only)
	QueueBackend   string // "redis", "postgres" or "memory"
	SessionBackend string // "redis" or "memory"

	// WorkingLanguage is the language retrieval operates in.
	WorkingLanguage string

	// Dynamic capability flags (updated when providers change)
	augmentationAvailable bool
	translationAvailable  bool
	synthesisAvailable    bool
}

// NewRuntimeConfig creates a new RuntimeConfig with initial values
func NewRuntimeConfig(queueBackend, sessionBackend, workingLanguage string) *RuntimeConfig {
	if workingLanguage == "" {
		workingLanguage = "en"
	}
	return &RuntimeConfig{
		QueueBackend:    queueBackend,
		SessionBackend:  sessionBackend,
		WorkingLanguage: workingLanguage,
	}
}

// AugmentationAvailable returns whether the augmentation provider is available
func (c *RuntimeConfig) AugmentationAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.augmentationAvailable
}

// TranslationAvailable returns whether the translation provider is available
func (c *RuntimeConfig) TranslationAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.translationAvailable
}

// SynthesisAvailable returns whether the speech synthesis provider is available
func (c *RuntimeConfig) SynthesisAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synthesisAvailable
}

// SetAugmentationAvailable updates the augmentation availability flag
func (c *RuntimeConfig) SetAugmentationAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.augmentationAvailable = available
}

// SetTranslationAvailable updates the translation availability flag
func (c *RuntimeConfig) SetTranslationAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.translationAvailable = available
}

// SetSynthesisAvailable updates the synthesis availability flag
func (c *RuntimeConfig) SetSynthesisAvailable(available bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.synthesisAvailable = available
}
