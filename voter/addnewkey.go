package voter

import (
	"crypto/rand"
	"math/big"

	"github.com/iden3/go-iden3-crypto/babyjub"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/elgamal"
	"github.com/privacy-ethereum/amaci-core/babyjubjub/keys"
	"github.com/privacy-ethereum/amaci-core/commitment"
	"github.com/privacy-ethereum/amaci-core/merkle"
	"github.com/privacy-ethereum/amaci-core/poseidon"
)

// nullifierDomain is the constant suffix binding key-rotation nullifiers to
// their domain.
var nullifierDomain, _ = new(big.Int).SetString("1444992409218394441042", 10)

// Nullifier derives the one-shot key-rotation nullifier of a formatted
// private key: poseidon2(formattedPrivKey, domain). The same secret always
// yields the same nullifier, which is what lets the contract reject a
// second rotation.
func Nullifier(formattedPrivKey *big.Int) (*big.Int, error) {
	return poseidon.Hash2(formattedPrivKey, nullifierDomain)
}

// AddNewKeyWitness is the structured witness of the key-rotation circuit.
type AddNewKeyWitness struct {
	InputHash       *big.Int
	CoordPubKey     [2]*big.Int
	DeactivateRoot  *big.Int
	DeactivateIndex uint64
	DeactivateLeaf  *big.Int
	C1              [2]*big.Int
	C2              [2]*big.Int
	RandomVal       *big.Int
	D1              [2]*big.Int
	D2              [2]*big.Int
	PathElements    [][]*big.Int
	PathIndices     []int
	Nullifier       *big.Int
	OldPrivateKey   *big.Int
}

// deactivateTreeDepth returns the tree height the key-rotation circuit
// commits to for a given state tree depth.
func deactivateTreeDepth(stateTreeDepth int) int {
	return stateTreeDepth + 2
}

// BuildAddNewKeyInput assembles the key-rotation witness for a voter.
//
// The builder scans the published deactivate leaves for the one bound to
// the voter's operator shared key, rerandomises its ciphertext with a fresh
// scalar, derives the nullifier, and proves inclusion against the
// circuit-height deactivate tree. The tree is built at the smallest height
// covering the published leaves and lifted to circuit height through the
// zero-subtree extension, which yields the identical root and path as a
// full rebuild.
//
// Returns ErrorNotDeactivated when no leaf matches the voter's shared key.
func BuildAddNewKeyInput(
	voter *keys.Keypair,
	operatorPub *babyjub.PublicKey,
	deactivates [][]*big.Int,
	stateTreeDepth int,
) (*AddNewKeyWitness, error) {
	shared := voter.SharedKey(operatorPub)

	sharedKeyHash, err := poseidon.Hash2(shared.X, shared.Y)

	if err != nil {
		return nil, err
	}

	index := -1
	leafHashes := make([]*big.Int, len(deactivates))

	for i, leaf := range deactivates {
		if len(leaf) != 5 {
			return nil, ErrorMalformedDeactivateLeaf
		}

		leafHashes[i], err = poseidon.Hash5(leaf[0], leaf[1], leaf[2], leaf[3], leaf[4])

		if err != nil {
			return nil, err
		}

		if index < 0 && leaf[4].Cmp(sharedKeyHash) == 0 {
			index = i
		}
	}

	if index < 0 {
		return nil, ErrorNotDeactivated
	}

	target := deactivates[index]

	original := &elgamal.Ciphertext{
		C1:         &babyjub.Point{X: target[0], Y: target[1]},
		C2:         &babyjub.Point{X: target[2], Y: target[3]},
		XIncrement: big.NewInt(0),
	}

	randomVal, err := rand.Int(rand.Reader, babyjub.SubOrder)

	if err != nil {
		return nil, err
	}

	rerandomised, err := elgamal.Rerandomize(original, operatorPub, randomVal)

	if err != nil {
		return nil, err
	}

	nullifier, err := Nullifier(voter.FormattedPrivKey)

	if err != nil {
		return nil, err
	}

	// Smallest tree height covering the published leaves; the circuit
	// height is reached through zero-subtree extension.
	circuitDepth := deactivateTreeDepth(stateTreeDepth)
	builtDepth := 1

	for capacity := uint64(merkle.Branching); capacity < uint64(len(deactivates)); capacity *= merkle.Branching {
		builtDepth++
	}

	if builtDepth > circuitDepth {
		return nil, merkle.ErrorTreeTooManyLeaves
	}

	tree, err := merkle.New(builtDepth)

	if err != nil {
		return nil, err
	}

	if err := tree.InitLeaves(leafHashes); err != nil {
		return nil, err
	}

	root, err := merkle.ExtendRoot(tree.Root(), builtDepth, circuitDepth)

	if err != nil {
		return nil, err
	}

	path, err := tree.PathOf(uint64(index))

	if err != nil {
		return nil, err
	}

	path, err = merkle.ExtendPath(path, builtDepth, circuitDepth)

	if err != nil {
		return nil, err
	}

	coordPubHash, err := poseidon.Hash2(operatorPub.X, operatorPub.Y)

	if err != nil {
		return nil, err
	}

	inputHash, err := commitment.InputHash(
		root,
		coordPubHash,
		nullifier,
		rerandomised.C1.X,
		rerandomised.C1.Y,
		rerandomised.C2.X,
		rerandomised.C2.Y,
	)

	if err != nil {
		return nil, err
	}

	return &AddNewKeyWitness{
		InputHash:       inputHash,
		CoordPubKey:     [2]*big.Int{operatorPub.X, operatorPub.Y},
		DeactivateRoot:  root,
		DeactivateIndex: uint64(index),
		DeactivateLeaf:  leafHashes[index],
		C1:              [2]*big.Int{target[0], target[1]},
		C2:              [2]*big.Int{target[2], target[3]},
		RandomVal:       randomVal,
		D1:              [2]*big.Int{rerandomised.C1.X, rerandomised.C1.Y},
		D2:              [2]*big.Int{rerandomised.C2.X, rerandomised.C2.Y},
		PathElements:    path.Elements,
		PathIndices:     path.Indices,
		Nullifier:       nullifier,
		OldPrivateKey:   voter.FormattedPrivKey,
	}, nil
}
