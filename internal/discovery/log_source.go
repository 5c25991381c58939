package discovery

import (
	"context"
	"log"
	"strings"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// Raydium AMM v4 emits this instruction log when a new pool is created.
const raydiumInitLogMarker = "initialize2"

// CandidateResolver turns a pool-initialization transaction signature
// into a candidate event. Resolution usually needs a follow-up lookup
// (pair metadata API or account fetch), so it lives behind an interface.
type CandidateResolver interface {
	ResolveCandidate(ctx context.Context, txSignature string) (*domain.CandidateEvent, error)
}

// LogSource subscribes to program logs over WebSocket and emits a
// candidate event for every pool-initialization transaction it can
// resolve. Transactions that fail resolution are logged and skipped;
// the stream keeps going.
type LogSource struct {
	ws       solana.WSClient
	resolver CandidateResolver
	programs []string
}

// NewLogSource creates a log source watching the given program IDs.
func NewLogSource(ws solana.WSClient, resolver CandidateResolver, programs []string) *LogSource {
	return &LogSource{ws: ws, resolver: resolver, programs: programs}
}

// Compile-time interface check.
var _ CandidateSource = (*LogSource)(nil)

// Events subscribes and returns the event channel. The channel is
// closed when the subscription ends or ctx is cancelled.
func (s *LogSource) Events(ctx context.Context) (<-chan *domain.CandidateEvent, error) {
	notifications, err := s.ws.SubscribeLogs(ctx, s.programs)
	if err != nil {
		return nil, err
	}

	out := make(chan *domain.CandidateEvent, 64)

	go func() {
		defer close(out)

		for {
			select {
			case note, ok := <-notifications:
				if !ok {
					return
				}
				ev := s.process(ctx, note)
				if ev == nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *LogSource) process(ctx context.Context, note solana.LogNotification) *domain.CandidateEvent {
	// Failed transactions cannot have created a pool
	if note.Err != nil || !isPoolInitialization(note.Logs) {
		return nil
	}

	ev, err := s.resolver.ResolveCandidate(ctx, note.Signature)
	if err != nil {
		log.Printf("resolve candidate for tx %s: %v", note.Signature, err)
		return nil
	}
	return ev
}

// isPoolInitialization reports whether the logs contain a pool init
// instruction.
func isPoolInitialization(logs []string) bool {
	for _, line := range logs {
		if strings.Contains(line, raydiumInitLogMarker) {
			return true
		}
	}
	return false
}
