package transcript

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"

	"github.com/jaskrrish/Go-QEC/internal/qec/correction"
	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
)

// ErrUnknownMethod is returned for digest methods the transcript does not support
var ErrUnknownMethod = errors.New("unknown digest method")

// Method defines the hash function a transcript absorbs messages into
type Method string

const (
	// SHA256Method uses SHA-256
	SHA256Method Method = "SHA256"
	// SHA512Method uses SHA-512
	SHA512Method Method = "SHA512"
	// SHA3_256Method uses SHA3-256
	SHA3_256Method Method = "SHA3-256"
	// SHA3_512Method uses SHA3-512
	SHA3_512Method Method = "SHA3-512"
	// BLAKE2b512Method uses BLAKE2b-512
	BLAKE2b512Method Method = "BLAKE2b-512"
)

// Methods lists every supported digest method
var Methods = []Method{SHA256Method, SHA512Method, SHA3_256Method, SHA3_512Method, BLAKE2b512Method}

// NewHasher returns a fresh hash for method
func NewHasher(method Method) (hash.Hash, error) {
	switch method {
	case SHA256Method:
		return sha256.New(), nil
	case SHA512Method:
		return sha512.New(), nil
	case SHA3_256Method:
		return sha3.New256(), nil
	case SHA3_512Method:
		return sha3.New512(), nil
	case BLAKE2b512Method:
		return blake2b.New512(nil)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// Transcript is an append-only, labelled record of the statement handed to
// the proof layer. Every message is framed as
//
//	len(label) uint32 BE | label | len(msg) uint64 BE | msg
//
// so distinct message sequences never hash to the same input.
type Transcript struct {
	method Method
	h      hash.Hash
}

// New starts a transcript under a domain-separation label
func New(label string, method Method) (*Transcript, error) {
	h, err := NewHasher(method)
	if err != nil {
		return nil, err
	}
	t := &Transcript{method: method, h: h}
	t.AppendMessage("dom-sep", []byte(label))
	return t, nil
}

// Method returns the digest method
func (t *Transcript) Method() Method {
	return t.method
}

// AppendMessage absorbs a labelled message
func (t *Transcript) AppendMessage(label string, msg []byte) {
	var frame [8]byte
	binary.BigEndian.PutUint32(frame[:4], uint32(len(label)))
	t.h.Write(frame[:4])
	t.h.Write([]byte(label))
	binary.BigEndian.PutUint64(frame[:], uint64(len(msg)))
	t.h.Write(frame[:])
	t.h.Write(msg)
}

// AppendState absorbs the versioned binary encoding of state
func (t *Transcript) AppendState(label string, state *quantum.State) error {
	data, err := state.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage(label, data)
	return nil
}

// AppendSyndrome absorbs the versioned binary encoding of s
func (t *Transcript) AppendSyndrome(label string, s correction.Syndrome) error {
	data, err := s.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage(label, data)
	return nil
}

// AppendPauliError absorbs the versioned binary encoding of e
func (t *Transcript) AppendPauliError(label string, e quantum.PauliError) error {
	data, err := e.MarshalBinary()
	if err != nil {
		return err
	}
	t.AppendMessage(label, data)
	return nil
}

// Digest returns the hash of everything absorbed so far
func (t *Transcript) Digest() []byte {
	return t.h.Sum(nil)
}

// Challenge derives n pseudo-random bytes from the transcript state and
// absorbs them, so later challenges depend on earlier ones. Output longer
// than one digest is expanded with a counter.
func (t *Transcript) Challenge(label string, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("challenge length must be positive, got %d", n)
	}

	seed := t.h.Sum(nil)
	out := make([]byte, 0, n)
	var counter [4]byte
	for i := uint32(0); len(out) < n; i++ {
		h, err := NewHasher(t.method)
		if err != nil {
			return nil, err
		}
		h.Write(seed)
		h.Write([]byte(label))
		binary.BigEndian.PutUint32(counter[:], i)
		h.Write(counter[:])
		out = h.Sum(out)
	}
	out = out[:n]

	t.AppendMessage(label, out)
	return out, nil
}

// Statement is the opaque payload bound into a proof: the corrected state's
// encoding followed by the syndrome's encoding
type Statement struct {
	State    []byte `json:"state"`
	Syndrome []byte `json:"syndrome"`
}

// NewStatement encodes state and syndrome
func NewStatement(state *quantum.State, s correction.Syndrome) (Statement, error) {
	stateBytes, err := state.MarshalBinary()
	if err != nil {
		return Statement{}, err
	}
	syndromeBytes, err := s.MarshalBinary()
	if err != nil {
		return Statement{}, err
	}
	return Statement{State: stateBytes, Syndrome: syndromeBytes}, nil
}

// Bind returns the digest of a fresh transcript holding the statement
func Bind(method Method, state *quantum.State, s correction.Syndrome) ([]byte, error) {
	t, err := New("qec-statement", method)
	if err != nil {
		return nil, err
	}
	if err := t.AppendState("state", state); err != nil {
		return nil, err
	}
	if err := t.AppendSyndrome("syndrome", s); err != nil {
		return nil, err
	}
	return t.Digest(), nil
}
