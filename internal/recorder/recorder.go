package recorder

// Observation outcomes.
const (
	OutcomePublished = "PUBLISHED"
	OutcomeDryRun    = "DRY_RUN"
	OutcomeFailed    = "FAILED"
)

// ObservationEvent holds one index's closes for a run. Prices are stored as
// their decimal string form.
type ObservationEvent struct {
	RunID      string
	Symbol     string
	Name       string
	Latest     string
	Previous   string
	Change     string
	Percentage string
	Direction  string // "RISING" or "FALLING"
	Outcome    string
}

// Recorder persists the price observations behind each run.
type Recorder interface {
	RecordObservation(evt *ObservationEvent) error
	Close() error
}
