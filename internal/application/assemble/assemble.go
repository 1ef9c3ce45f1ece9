// Package assemble merges identities, content variants and correlated tool
// outputs into the render model. It performs no I/O.
package assemble

import (
	"fmt"

	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
	"github.com/ParadiseToken/solhydra/internal/domain/report"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// Assemble builds one entry per identity, in listing order. Only tools in
// visible contribute outputs; a contract with no outputs still gets an
// entry. The reserved bookkeeping contract is dropped.
func Assemble(
	ids []contracts.Identity,
	variants map[string]contracts.Variants,
	visible []tools.Run,
	outputs map[string]map[string]tools.Output,
) (*report.Model, error) {
	m := report.NewModel(visible)
	for _, id := range ids {
		if contracts.IsReserved(id.CanonicalName) {
			continue
		}
		v, ok := variants[id.CanonicalName]
		if !ok {
			return nil, fmt.Errorf("no flattened content for %q", id.CanonicalName)
		}
		byTool := make(map[string]tools.Output, len(visible))
		for _, run := range visible {
			if out, ok := outputs[id.CanonicalName][run.Name]; ok {
				byTool[run.Name] = out
			}
		}
		if err := m.Add(report.Entry{Identity: id, Variants: v, Outputs: byTool}); err != nil {
			return nil, err
		}
	}
	return m, nil
}
