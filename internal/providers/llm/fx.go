package llm

import (
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.llm",
	fx.Provide(NewFromConfig),
)

// NewFromConfig selects the strategy by credential capability: a
// well-formed secret key enables the OpenAI path, anything else stays
// on the deterministic fallback without attempting network calls.
func NewFromConfig(cfg config.Config, log *zap.Logger) Summarizer {
	if !HasValidCredential(cfg.OpenAIAPIKey) {
		log.Named("providers.llm").Info("no usable llm credential, using fallback summarizer")
		return NewFallback()
	}

	summarizer, err := NewOpenAI(cfg.OpenAIAPIKey, log)
	if err != nil {
		log.Named("providers.llm").Warn("openai client init failed, using fallback summarizer", zap.Error(err))
		return NewFallback()
	}
	return summarizer
}
