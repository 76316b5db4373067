package config

import "time"

// AIConfig holds all scorer-related configuration
type AIConfig struct {
	APIKey string `env:"GEMINI_API_KEY" json:"-"` // Never serialize

	// Models are tried in order; later entries are the widely available fallbacks
	Models []string `env:"SCORER_MODELS" envSeparator:"," envDefault:"gemini-2.5-flash,gemini-2.0-flash" json:"models"`

	// TimeoutMS bounds each model attempt, not the whole chain
	TimeoutMS int `env:"SCORER_TIMEOUT_MS" envDefault:"20000" json:"timeoutMs"`

	// Concurrency caps parallel WAT sentence scoring calls per request
	Concurrency int `env:"SCORER_CONCURRENCY" envDefault:"4" json:"concurrency"`

	Temperature float32 `env:"SCORER_TEMPERATURE" envDefault:"0.2" json:"temperature"`
}

// IsEnabled returns true if the AI API is configured
func (c *AIConfig) IsEnabled() bool {
	return c.APIKey != "" && len(c.Models) > 0
}

// AttemptTimeout returns the per-model timeout
func (c *AIConfig) AttemptTimeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}
