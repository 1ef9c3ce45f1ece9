package assemble

import (
	"reflect"
	"testing"

	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
	"github.com/ParadiseToken/solhydra/internal/domain/optional"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

func fixture(t *testing.T) ([]contracts.Identity, map[string]contracts.Variants, []tools.Run, map[string]map[string]tools.Output) {
	t.Helper()
	var ids []contracts.Identity
	for _, n := range []string{"Token.sol", contracts.ReservedName, "Governance.Leader.LeaderGov.sol"} {
		id, err := contracts.NewIdentity(n)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	variants := map[string]contracts.Variants{
		"Token.sol":                       {Original: optional.Some("o"), Flattened: "f", Combined: optional.Some("c")},
		contracts.ReservedName:            {Flattened: "m"},
		"Governance.Leader.LeaderGov.sol": {Flattened: "g"},
	}
	visible := []tools.Run{{Name: "solhint", ContentType: tools.ContentText, OutputRootExists: true}}
	outputs := map[string]map[string]tools.Output{
		"Token.sol": {
			"solhint": {Tool: "solhint", ContentType: tools.ContentText, Content: "no issues"},
			"mythril": {Tool: "mythril", ContentType: tools.ContentMarkdown, Content: "<p>stale</p>"},
		},
	}
	return ids, variants, visible, outputs
}

func TestAssemble(t *testing.T) {
	ids, variants, visible, outputs := fixture(t)
	m, err := Assemble(ids, variants, visible, outputs)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", m.Len())
	}
	if _, ok := m.Lookup(contracts.ReservedName); ok {
		t.Error("reserved contract must not be reported")
	}

	tok, _ := m.Lookup("Token.sol")
	out := tok.OutputFor("solhint")
	if out == nil || out.ContentType != tools.ContentText || out.Content != "no issues" {
		t.Errorf("solhint output: %+v", out)
	}
	if tok.OutputFor("mythril") != nil {
		t.Error("tool outside the visible set must not appear")
	}

	gov, ok := m.Lookup("Governance.Leader.LeaderGov.sol")
	if !ok {
		t.Fatal("contract without outputs must still be present")
	}
	if len(gov.Outputs) != 0 {
		t.Errorf("expected no outputs, got %v", gov.Outputs)
	}
	if gov.Variants.Combined.Present() || gov.Variants.Original.Present() {
		t.Error("absent variants must stay absent")
	}
	if gov.Identity.Slug != "governance-leader-leadergov" {
		t.Errorf("slug: %s", gov.Identity.Slug)
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	ids, variants, visible, outputs := fixture(t)
	a, err := Assemble(ids, variants, visible, outputs)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Assemble(ids, variants, visible, outputs)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Entries(), b.Entries()) || !reflect.DeepEqual(a.Tools(), b.Tools()) {
		t.Error("two assemblies of the same inputs differ")
	}
}

func TestAssembleMissingFlattened(t *testing.T) {
	ids, _, visible, outputs := fixture(t)
	if _, err := Assemble(ids, map[string]contracts.Variants{}, visible, outputs); err == nil {
		t.Fatal("expected error when a listed contract has no variants")
	}
}
