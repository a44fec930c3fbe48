package ir

const (
	// WireVersion is the message envelope version written to the journal.
	WireVersion = "1"

	// Version is the mirror module version.
	Version = "0.1.0"
)
