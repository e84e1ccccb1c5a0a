package provider

import (
	"fmt"

	"github.com/recoverlens/recovery-engine/pkg/config"
	"github.com/recoverlens/recovery-engine/pkg/interfaces"
	"github.com/recoverlens/recovery-engine/pkg/logger"
)

// NewAdapters builds the adapter set from explicit configuration. There is no
// process-wide registry: the orchestrator owns the adapters it is given.
func NewAdapters(cfg *config.Config, log *logger.Logger) ([]interfaces.ProviderAdapter, error) {
	adapters := make([]interfaces.ProviderAdapter, 0, len(cfg.Providers))

	for _, pc := range cfg.Providers {
		adapter, err := NewHTTPAdapter(pc, cfg.Engine.FallbackDiscount, log)
		if err != nil {
			return nil, fmt.Errorf("failed to build adapter %s: %w", pc.Name, err)
		}

		log.WithProvider(pc.Name).WithFields(map[string]interface{}{
			"capabilities": pc.Capabilities,
			"reliability":  pc.Reliability,
		}).Info("Registered analysis provider")

		adapters = append(adapters, adapter)
	}

	return adapters, nil
}
