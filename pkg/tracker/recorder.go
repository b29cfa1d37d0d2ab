package tracker

// Recorder receives operational measurements from a Service.
type Recorder interface {
	// ObserveStoreOp reports one store call; err is nil on success.
	ObserveStoreOp(op string, seconds float64, err error)

	// RecordAnalytics counts one analytics computation by kind and outcome.
	RecordAnalytics(kind, outcome string)

	// SetSamples reports the number of stored samples last seen.
	SetSamples(n int)
}

// NopRecorder discards everything.
type NopRecorder struct{}

func (NopRecorder) ObserveStoreOp(string, float64, error) {}
func (NopRecorder) RecordAnalytics(string, string)        {}
func (NopRecorder) SetSamples(int)                        {}
