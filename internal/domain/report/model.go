// Package report holds the aggregated render model: one entry per canonical
// contract, in discovery order.
package report

import (
	"fmt"

	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// Entry is everything known about one contract.
type Entry struct {
	Identity contracts.Identity      `json:"identity"`
	Variants contracts.Variants      `json:"variants"`
	Outputs  map[string]tools.Output `json:"outputs"`
}

// OutputFor returns the tool's output for this contract, or nil when the tool
// wrote nothing for it.
func (e Entry) OutputFor(tool string) *tools.Output {
	o, ok := e.Outputs[tool]
	if !ok {
		return nil
	}
	return &o
}

// Model is the terminal structure handed to the renderer.
type Model struct {
	entries []Entry
	index   map[string]int
	tools   []tools.Run
}

// NewModel returns an empty model whose visible tools are runs, in order.
func NewModel(runs []tools.Run) *Model {
	return &Model{
		index: make(map[string]int),
		tools: append([]tools.Run(nil), runs...),
	}
}

// Add appends an entry. Each canonical name may appear once.
func (m *Model) Add(e Entry) error {
	name := e.Identity.CanonicalName
	if _, dup := m.index[name]; dup {
		return fmt.Errorf("contract %q already in report", name)
	}
	m.index[name] = len(m.entries)
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns entries in insertion order.
func (m *Model) Entries() []Entry {
	return m.entries
}

// Lookup finds the entry for a canonical name.
func (m *Model) Lookup(canonical string) (Entry, bool) {
	i, ok := m.index[canonical]
	if !ok {
		return Entry{}, false
	}
	return m.entries[i], true
}

// Len is the number of contracts.
func (m *Model) Len() int { return len(m.entries) }

// Tools are the runs that produced output, in registry order.
func (m *Model) Tools() []tools.Run { return m.tools }

// ToolNames lists visible tool names.
func (m *Model) ToolNames() []string {
	out := make([]string, len(m.tools))
	for i, r := range m.tools {
		out[i] = r.Name
	}
	return out
}
