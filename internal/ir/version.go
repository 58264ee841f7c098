package ir

// Version constants for the IR and engine.
const (
	// IRVersion is the rule representation version. Bumping it changes every
	// RuleHash.
	IRVersion = "1"

	// EngineVersion is the datalogq engine version.
	EngineVersion = "0.1.0"
)
