package config

// Default configuration values.
const (
	// DefaultMode is the reconciler's deletion policy when none is set.
	DefaultMode = "ledger-only"

	// DefaultAlgorithm is the fingerprint algorithm.
	DefaultAlgorithm = "sha256"

	// DefaultCurrentManifest is the conventional current-snapshot name,
	// relative to the work directory.
	DefaultCurrentManifest = "Manifest.txt"

	// DefaultPreviousManifest is the conventional previous-snapshot name,
	// relative to the work directory.
	DefaultPreviousManifest = "Manifest.previous.txt"

	// DefaultLogLevel is the log level when none is configured.
	DefaultLogLevel = "info"

	// DefaultHistoryLimit caps how many runs `patchkit history` shows.
	DefaultHistoryLimit = 20
)
