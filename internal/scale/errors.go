package scale

import "errors"

// Feed errors never reach callers of the manager; they drive state
// transitions and are only logged.
var (
	ErrTransportOpenFailed = errors.New("scale: transport open failed")
	ErrTransportRuntime    = errors.New("scale: transport runtime error")
	ErrSampleOutOfRange    = errors.New("scale: sample out of range")
	ErrNoWeightInLine      = errors.New("scale: no weight in line")
	ErrManagerStopped      = errors.New("scale: manager stopped")
)
