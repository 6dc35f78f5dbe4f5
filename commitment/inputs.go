package commitment

import "math/big"

// CircuitInputs is the uniform surface every circuit public-input bundle
// satisfies. The Groth16 verifier consumes bundles through this interface
// without knowing which proof type it is checking.
type CircuitInputs interface {
	// Name returns the circuit's name.
	Name() string

	// PublicInputs returns the ordered public inputs of the proof.
	PublicInputs() []*big.Int
}

// ProcessMessagesInputs are the public inputs of a message-processing batch
// proof.
type ProcessMessagesInputs struct {
	NewStateCommitment *big.Int
}

// Name returns the circuit's name.
func (i *ProcessMessagesInputs) Name() string {
	return CircuitProcessMessages
}

// PublicInputs returns the ordered public inputs of the proof.
func (i *ProcessMessagesInputs) PublicInputs() []*big.Int {
	return []*big.Int{i.NewStateCommitment}
}

// TallyVotesInputs are the public inputs of a tally batch proof.
type TallyVotesInputs struct {
	NewTallyCommitment *big.Int
}

// Name returns the circuit's name.
func (i *TallyVotesInputs) Name() string {
	return CircuitTallyVotes
}

// PublicInputs returns the ordered public inputs of the proof.
func (i *TallyVotesInputs) PublicInputs() []*big.Int {
	return []*big.Int{i.NewTallyCommitment}
}

// ProcessDeactivateInputs are the public inputs of a deactivate batch
// proof.
type ProcessDeactivateInputs struct {
	NewDeactivateCommitment *big.Int
	NewDeactivateRoot       *big.Int
	BatchSize               *big.Int
}

// Name returns the circuit's name.
func (i *ProcessDeactivateInputs) Name() string {
	return CircuitProcessDeactivate
}

// PublicInputs returns the ordered public inputs of the proof.
func (i *ProcessDeactivateInputs) PublicInputs() []*big.Int {
	return []*big.Int{i.NewDeactivateCommitment, i.NewDeactivateRoot, i.BatchSize}
}

// AddNewKeyInputs are the public inputs of a key-rotation proof: the single
// input hash collapsing the deactivate root, the hashed operator key, the
// nullifier and the rerandomised ciphertext.
type AddNewKeyInputs struct {
	InputHash *big.Int
}

// Name returns the circuit's name.
func (i *AddNewKeyInputs) Name() string {
	return CircuitAddNewKey
}

// PublicInputs returns the ordered public inputs of the proof.
func (i *AddNewKeyInputs) PublicInputs() []*big.Int {
	return []*big.Int{i.InputHash}
}
