package contracts

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ParadiseToken/solhydra/internal/domain/optional"
)

// Variants are the three content forms of one contract. Flattened always
// exists; the others are present only when a file backs them.
type Variants struct {
	Original  optional.Value[string] `json:"original"`
	Flattened string                 `json:"flattened"`
	Combined  optional.Value[string] `json:"combined"`
}

// ReadVariant loads a file as an optional variant. A missing file is absent,
// not an error.
func ReadVariant(path string) (optional.Value[string], error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return optional.None[string](), nil
	}
	if err != nil {
		return optional.None[string](), err
	}
	return optional.Some(string(b)), nil
}

// LoadVariants reads the three forms of id. originalRoot holds the nested
// source tree; flattenDir and combineDir hold files under canonical names.
func LoadVariants(id Identity, originalRoot, flattenDir, combineDir string) (Variants, error) {
	flat, err := os.ReadFile(filepath.Join(flattenDir, id.CanonicalName))
	if err != nil {
		return Variants{}, err
	}
	orig, err := ReadVariant(filepath.Join(append([]string{originalRoot}, id.NestedPath...)...))
	if err != nil {
		return Variants{}, err
	}
	comb, err := ReadVariant(filepath.Join(combineDir, id.CanonicalName))
	if err != nil {
		return Variants{}, err
	}
	return Variants{Original: orig, Flattened: string(flat), Combined: comb}, nil
}
