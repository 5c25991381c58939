package discovery

import (
	"context"

	"solana-sniper/internal/domain"
)

// CandidateSource produces candidate events for the engine to evaluate.
// The channel is closed when the source stops; callers own the context.
type CandidateSource interface {
	Events(ctx context.Context) (<-chan *domain.CandidateEvent, error)
}
