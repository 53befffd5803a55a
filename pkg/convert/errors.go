package convert

import "errors"

// The enumeration tables are closed by design: an unrecognized code means
// the source schema does not match what this tool understands, so the row
// or thread fails instead of being papered over.
var (
	ErrUnknownMessageType  = errors.New("unknown message type")
	ErrUnknownThreadStatus = errors.New("unknown thread status")

	// ErrThreadRecipientUnresolved is raised at serialization time: the
	// canonical document requires a non-null recipient identity block.
	ErrThreadRecipientUnresolved = errors.New("thread recipient unresolved")
)
