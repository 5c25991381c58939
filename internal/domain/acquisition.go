package domain

// Venue identifiers for AcquisitionResult.VenueUsed.
const (
	VenueAggregator = "AGGREGATOR"
	VenueDirectAMM  = "DIRECT_AMM"
)

// AcquisitionResult is the outcome of an asset acquisition attempt.
// AcquiredAmount is always the measured post-swap balance minus the
// pre-swap balance in raw token units, never the venue's quoted estimate.
type AcquisitionResult struct {
	Success        bool
	AcquiredAmount uint64 // raw units, measured
	VenueUsed      string
	TxSignature    string
	Err            *Failure // classified failure when Success is false
}
