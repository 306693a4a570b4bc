package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/Htaaxx/NotebookLLM/internal/core/domain"
	"github.com/Htaaxx/NotebookLLM/internal/infrastructure/resilience"
)

var classifyNATSError = resilience.GatewayClassifier(nil, connectionLost)

// connectionLost matches errors a reconnecting client recovers from.
func connectionLost(err error) bool {
	for _, target := range []error{nats.ErrNoServers, nats.ErrTimeout, nats.ErrConnectionClosed, nats.ErrDisconnected, nats.ErrConnectionReconnecting} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// publishError makes a publish that failed on a lost connection look like
// any other transient gateway failure to the ingest use case.
func publishError(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "nats publish", err)
	}
	return err
}
