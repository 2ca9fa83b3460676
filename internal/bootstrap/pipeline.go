package bootstrap

import (
	"fmt"
	"log"
	"net/http"

	"pharmacy-assistant-be/internal/config"
	"pharmacy-assistant-be/internal/pkg/logger"
	"pharmacy-assistant-be/pkg/assistant/classifier"
	"pharmacy-assistant-be/pkg/assistant/clinical"
	"pharmacy-assistant-be/pkg/assistant/identity"
	"pharmacy-assistant-be/pkg/assistant/inventory"
	"pharmacy-assistant-be/pkg/assistant/pipeline"
	"pharmacy-assistant-be/pkg/assistant/response"
	"pharmacy-assistant-be/pkg/llm/factory"
)

// NewExecutor wires the assistant pipeline from configuration. inv may be
// nil when no inventory database is configured.
func NewExecutor(cfg *config.Config, inv inventory.Lookup, sysLogger logger.ILogger) (*pipeline.Executor, error) {
	tier, ok := classifier.ParseTier(cfg.Assistant.UnknownMedicalTier)
	if !ok || tier == classifier.NonMedical {
		return nil, fmt.Errorf("invalid unknown-medical tier %q", cfg.Assistant.UnknownMedicalTier)
	}

	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.OllamaBaseURL,
		APIKey:   cfg.Ai.HuggingFaceAPIKey,
		Timeout:  cfg.Providers.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	if llmProvider != nil {
		log.Printf("[INFO] Using LLM Provider: %s", llmProvider.Label())
	} else {
		log.Printf("[INFO] No LLM provider configured, answers use templates")
	}

	client := &http.Client{Timeout: cfg.Providers.Timeout}
	p := cfg.Providers

	// AI mapping first, RxNorm second, web search provenance last
	identityChain := identity.NewChain(sysLogger, p.Timeout,
		identity.NewAIMapper(llmProvider),
		identity.NewRxNorm(p.RxNormBaseURL, client),
		identity.NewWebSearch(p.WebSearchURL),
	)

	// structured labels outrank the consumer health summary
	clinicalAggregator := clinical.NewAggregator(sysLogger, p.Timeout,
		clinical.NewOpenFDA(p.OpenFDABaseURL, p.OpenFDAAPIKey, client),
		clinical.NewMedlinePlus(p.MedlinePlusBaseURL, client),
	)

	return pipeline.NewExecutor(pipeline.Deps{
		Classifier: classifier.New(tier),
		Inventory:  inv,
		Identity:   identityChain,
		Clinical:   clinicalAggregator,
		Composer:   response.NewComposer(llmProvider, response.ParseMode(cfg.Ai.ComposerMode), sysLogger),
		Logger:     sysLogger,
	}), nil
}
