// Package app wires configuration into a ready analysis service.
package app

import (
	"github.com/apex/log"

	"cardiac-xai/api/internal/analysis"
	"cardiac-xai/api/internal/config"
	"cardiac-xai/api/internal/llm"
	"cardiac-xai/api/internal/llm/gemini"
	"cardiac-xai/api/internal/llm/openai"
	"cardiac-xai/api/internal/llm/stub"
)

func Engines(cfg *config.Config) *llm.Engines {
	return &llm.Engines{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL),
		Stub:   stub.New(),
	}
}

// NewService selects the configured provider and builds the service. A
// missing credential is logged, not fatal.
func NewService(cfg *config.Config) (*analysis.Service, error) {
	client, err := Engines(cfg).GetEngine(cfg.Provider)
	if err != nil {
		return nil, err
	}
	svc := analysis.NewService(analysis.Config{
		Credential:       cfg.Credential(),
		MaxImageBytes:    cfg.MaxImageBytes,
		Timeout:          cfg.UpstreamTimeout,
		EchoImage:        cfg.EchoImage,
		EchoMaxDimension: cfg.EchoMaxDimension,
	}, client)

	entry := log.WithFields(log.Fields{
		"provider": client.Name(),
		"model":    client.GetModel(),
		"timeout":  cfg.UpstreamTimeout.String(),
	})
	if !svc.Configured() {
		entry.Warn("provider credential is not set; analyze calls will fail with not_configured")
	} else {
		entry.Info("analysis service ready")
	}
	return svc, nil
}
