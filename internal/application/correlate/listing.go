package correlate

import (
	"fmt"
	"os"
	"strings"

	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
)

// Listing reads the canonical contract set from the flatten directory.
// Order is the directory's name order, so it is stable across runs.
// Hidden files are ignored.
func Listing(flattenDir string) ([]contracts.Identity, error) {
	entries, err := os.ReadDir(flattenDir)
	if err != nil {
		return nil, fmt.Errorf("%w: read listing: %v", ErrCorrelation, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	return contracts.NewListing(names)
}

// Variants loads the three content forms of every identity.
func Variants(ids []contracts.Identity, originalRoot, flattenDir, combineDir string) (map[string]contracts.Variants, error) {
	out := make(map[string]contracts.Variants, len(ids))
	for _, id := range ids {
		v, err := contracts.LoadVariants(id, originalRoot, flattenDir, combineDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrelation, id.CanonicalName, err)
		}
		out[id.CanonicalName] = v
	}
	return out, nil
}
