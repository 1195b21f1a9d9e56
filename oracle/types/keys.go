package types

const (
	// Codespace scopes the registered errors of this tool.
	Codespace = "pricepush"

	// AppName is used for the default home directory and the User-Agent.
	AppName = "pricepush"

	Version = "0.3.0"
)

// Oracle kinds understood by the pipeline.
const (
	OracleStork = "stork"
	OraclePyth  = "pyth"
)
