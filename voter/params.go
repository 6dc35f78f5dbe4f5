package voter

import "errors"

// Vote payload constants
const (
	// MessageLength is the plaintext arity of every protocol message:
	// [packed, newPubX, newPubY, R8x, R8y, S, 0].
	MessageLength = 7

	// CiphertextLength is the wire arity of an encrypted message:
	// MessageLength payload slots plus the authentication tag.
	CiphertextLength = MessageLength + 1

	// SaltBits is the width of the random salt in a packed command.
	SaltBits = 56

	// WeightBits is the width of the vote weight in a packed command.
	WeightBits = 96

	// saltShift positions the salt above the command payload.
	saltShift = 192

	// weightShift positions the vote weight above the index fields.
	weightShift = 96
)

var (
	// ErrorDuplicateOption is returned when a vote plan contains the same
	// option index twice.
	ErrorDuplicateOption = errors.New("duplicate option index")

	// ErrorPackOverflow is returned when a command field exceeds its bit
	// allocation in the packed layout.
	ErrorPackOverflow = errors.New("packed command field overflow")

	// ErrorNotDeactivated is returned when the key-rotation builder cannot
	// find a deactivate leaf bound to the voter's shared key.
	ErrorNotDeactivated = errors.New("builder failed: no deactivate leaf for this key")

	// ErrorMalformedDeactivateLeaf is returned when a published deactivate
	// leaf does not carry exactly five field elements.
	ErrorMalformedDeactivateLeaf = errors.New("malformed deactivate leaf")

	// ErrorEmptyVotePlan is returned when a vote plan is empty after
	// dropping zero-weight options.
	ErrorEmptyVotePlan = errors.New("empty vote plan")
)
