package priceagg

import "github.com/pkg/errors"

// ValidationError reports a price observation rejected outright because
// the payload failed the low<=high / both nonzero / multiplier>=1 shape
// check. A publisher key mismatch is not reported through this type;
// VerifyPublisher returns false for it. Never fatal to the engine — the
// caller simply does not apply the observation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "priceagg: rejected price observation: " + e.Reason
}

// NonMonotonicError reports a price observation at a height at or before
// the last accepted one that isn't a byte-identical duplicate of it.
type NonMonotonicError struct {
	Height, LastHeight uint64
}

func (e *NonMonotonicError) Error() string {
	return errors.Errorf("priceagg: height %d is not after last accepted height %d", e.Height, e.LastHeight).Error()
}
