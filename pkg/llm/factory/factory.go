package factory

import (
	"fmt"

	"mythos-curation-be/pkg/llm"
	"mythos-curation-be/pkg/llm/gemini"
	"mythos-curation-be/pkg/llm/huggingface"
	"mythos-curation-be/pkg/llm/ollama"
)

// Keys holds provider credentials; only the selected provider's key is used.
type Keys struct {
	HuggingFace  string
	GoogleGemini string
}

func NewLLMProvider(providerType, modelName, baseURL string, keys Keys) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		if keys.HuggingFace == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(keys.HuggingFace, baseURL, modelName), nil
	case "gemini":
		if keys.GoogleGemini == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return gemini.NewGeminiProvider(keys.GoogleGemini, modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
