package domain

// Outcome is the tagged result of one download attempt. It drives
// logging and pass accounting only and is never persisted beyond the
// run-history record of the whole pass.
type Outcome int

const (
	// OutcomeFetched means the file was downloaded in this attempt
	OutcomeFetched Outcome = iota
	// OutcomeSkippedAlreadyValid means the payload was present and verified
	OutcomeSkippedAlreadyValid
	// OutcomeRefreshedSidecar means an existing sidecar was replaced
	OutcomeRefreshedSidecar
	// OutcomeFailedAlreadyPresent means the destination existed with no
	// refresh rule for it
	OutcomeFailedAlreadyPresent
	// OutcomeIgnored means the entry was outside the recognized classes
	OutcomeIgnored
)

// String returns the outcome name used in logs and run history.
func (o Outcome) String() string {
	switch o {
	case OutcomeFetched:
		return "fetched"
	case OutcomeSkippedAlreadyValid:
		return "skipped"
	case OutcomeRefreshedSidecar:
		return "refreshed"
	case OutcomeFailedAlreadyPresent:
		return "already-present"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}
