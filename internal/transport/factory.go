package transport

import (
	"fmt"

	"fsdrift/internal/config"
	"fsdrift/internal/drift"
)

// NewTransportFromConfig returns the transport selected by cfg.Type.
func NewTransportFromConfig(cfg config.TransportConfig, logger drift.Logger) (drift.Transport, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalTransport(logger), nil
	case "command":
		return NewCommandTransport(cfg.Command, logger)
	default:
		return nil, fmt.Errorf("unsupported transport type: %s", cfg.Type)
	}
}
