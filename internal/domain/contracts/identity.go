// Package contracts defines the canonical identity of a source file and its
// content variants.
//
// A canonical name is the flattened filename: the directory structure of the
// original tree is encoded with dots, e.g. contracts/Governance/Leader/LeaderGov.sol
// becomes Governance.Leader.LeaderGov.sol.
package contracts

import (
	"fmt"
	"path"
	"strings"
)

const (
	// Separator joins directory segments inside a canonical name.
	Separator = "."

	// ReservedName is the framework's migrations-tracking contract. It is
	// never reported.
	ReservedName = "Migrations.sol"
)

// Identity is one contract in the canonical listing.
type Identity struct {
	CanonicalName string   `json:"canonical_name"`
	Slug          string   `json:"slug"`
	NestedPath    []string `json:"nested_path"`
}

// NewIdentity derives slug and nested path from a canonical name.
func NewIdentity(canonical string) (Identity, error) {
	nested, err := NestedPath(canonical)
	if err != nil {
		return Identity{}, err
	}
	return Identity{
		CanonicalName: canonical,
		Slug:          Slug(canonical),
		NestedPath:    nested,
	}, nil
}

// NestedPath reverses flattening: the last segment is the extension, the one
// before it is the filename, everything earlier is a directory.
//
//	"Governance.Leader.LeaderGov.sol" -> ["Governance", "Leader", "LeaderGov.sol"]
//	"Token.sol"                       -> ["Token.sol"]
func NestedPath(canonical string) ([]string, error) {
	segs := strings.Split(canonical, Separator)
	if len(segs) < 2 {
		return nil, &MalformedIdentityError{Name: canonical}
	}
	ext := Separator + segs[len(segs)-1]
	out := make([]string, 0, len(segs)-1)
	out = append(out, segs[:len(segs)-2]...)
	return append(out, segs[len(segs)-2]+ext), nil
}

// RelPath is the nested path joined with forward slashes.
func (id Identity) RelPath() string {
	return path.Join(id.NestedPath...)
}

// Filename is the last nested path segment.
func (id Identity) Filename() string {
	return id.NestedPath[len(id.NestedPath)-1]
}

// Slug strips the extension, replaces every separator with a hyphen and
// lowercases the result.
func Slug(canonical string) string {
	base := canonical
	if i := strings.LastIndex(base, Separator); i >= 0 {
		base = base[:i]
	}
	return strings.ToLower(strings.ReplaceAll(base, Separator, "-"))
}

// IsReserved reports whether name is the bookkeeping contract.
func IsReserved(name string) bool {
	return name == ReservedName
}

// NewListing builds identities in the given order, skipping the reserved
// name. A slug collision fails the whole listing.
func NewListing(names []string) ([]Identity, error) {
	out := make([]Identity, 0, len(names))
	seen := make(map[string]string, len(names))
	for _, name := range names {
		if IsReserved(name) {
			continue
		}
		id, err := NewIdentity(name)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[id.Slug]; ok {
			if prev == name {
				return nil, fmt.Errorf("duplicate canonical name %q", name)
			}
			return nil, &SlugCollisionError{Slug: id.Slug, First: prev, Second: name}
		}
		seen[id.Slug] = name
		out = append(out, id)
	}
	return out, nil
}
