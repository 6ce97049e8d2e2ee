package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("patient not found")
	ErrConflict        = errors.New("patient already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrStorage marks a document that could not be read, parsed or written.
	ErrStorage = errors.New("patient storage error")
)

// Repository loads and persists the whole patient collection at once.
// Implementations read the full document on Load and overwrite it on Save.
type Repository interface {
	Load(ctx context.Context) (*Store, error)
	Save(ctx context.Context, s *Store) error
}

// Backend is a Repository that can also create an empty document and
// report which storage it uses.
type Backend interface {
	Repository
	Init(ctx context.Context) error
	Name() string
}

// Sealer encrypts and decrypts the serialised document.
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// Codec turns a Store into document bytes and back, sealing the bytes when
// a Sealer is configured.
type Codec struct {
	Sealer Sealer
}

func (c Codec) Encode(s *Store) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrStorage, err)
	}
	if c.Sealer == nil {
		return data, nil
	}
	sealed, err := c.Sealer.Seal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return sealed, nil
}

func (c Codec) Decode(data []byte) (*Store, error) {
	if c.Sealer != nil {
		plain, err := c.Sealer.Open(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		data = plain
	}
	s := NewStore()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: malformed document: %w", ErrStorage, err)
	}
	return s, nil
}
