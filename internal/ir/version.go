package ir

// Version constants recorded alongside the log.
const (
	// RecordVersion is the transition record schema version.
	RecordVersion = "1"

	// EngineVersion is the boxoffice engine version.
	EngineVersion = "0.1.0"
)
