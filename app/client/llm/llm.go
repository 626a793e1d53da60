package llm

import (
	"historydash/app/config"
	"net/http"

	"github.com/samber/do"
	"github.com/samber/oops"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewClient builds the text-generation model behind the extraction adapter. Any
// OpenAI compatible endpoint works (Gemini, OpenRouter, a local server).
func NewClient(di *do.Injector) (*openai.LLM, error) {
	cfg := do.MustInvoke[*config.Config](di)

	client, err := openai.New(
		openai.WithBaseURL(cfg.LLM.BaseURL),
		openai.WithToken(cfg.LLM.Token),
		openai.WithModel(cfg.LLM.Model),
		openai.WithHTTPClient(&http.Client{
			Timeout: cfg.Extract.Timeout,
		}),
		openai.WithCallback(LogCallbackHandler{}),
	)
	if err != nil {
		return nil, oops.In("llm").With("base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model).Wrapf(err, "create client")
	}

	return client, nil
}
