// Package correlate maps the files each tool wrote back onto canonical
// contract identities.
//
// Tools run once over the whole flattened tree and write one file per
// canonical name (plus the tool's fixed suffix), so correlation is a lookup
// by name and never parses tool output.
package correlate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ParadiseToken/solhydra/internal/domain/contracts"
	"github.com/ParadiseToken/solhydra/internal/domain/tools"
)

// Converter renders markdown to HTML.
type Converter interface {
	ToHTML(markdown string) string
}

// Result is the correlator's view of one run.
type Result struct {
	// Runs holds every registry tool; OutputRootExists is false for tools
	// whose output directory is missing or empty.
	Runs []tools.Run
	// Outputs is keyed by canonical name, then tool name. Absent pairs have
	// no key.
	Outputs map[string]map[string]tools.Output
}

// Visible returns the runs that produced any output.
func (r Result) Visible() []tools.Run {
	var out []tools.Run
	for _, run := range r.Runs {
		if run.OutputRootExists {
			out = append(out, run)
		}
	}
	return out
}

type Correlator struct {
	Registry tools.Registry
	Markdown Converter
}

// Correlate walks outputRoot/<tool> for every registered tool.
func (c *Correlator) Correlate(outputRoot string, ids []contracts.Identity) (Result, error) {
	res := Result{Outputs: make(map[string]map[string]tools.Output, len(ids))}
	for _, spec := range c.Registry.Specs() {
		dir := filepath.Join(outputRoot, spec.Name)
		produced, err := hasEntries(dir)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrCorrelation, spec.Name, err)
		}
		res.Runs = append(res.Runs, tools.Run{Name: spec.Name, ContentType: spec.ContentType, OutputRootExists: produced})
		if !produced {
			continue
		}
		for _, id := range ids {
			out, ok, err := c.read(spec, dir, id)
			if err != nil {
				return Result{}, fmt.Errorf("%w: %s/%s: %v", ErrCorrelation, spec.Name, id.CanonicalName, err)
			}
			if !ok {
				continue
			}
			if res.Outputs[id.CanonicalName] == nil {
				res.Outputs[id.CanonicalName] = make(map[string]tools.Output)
			}
			res.Outputs[id.CanonicalName][spec.Name] = out
		}
	}
	return res, nil
}

func (c *Correlator) read(spec tools.Spec, dir string, id contracts.Identity) (tools.Output, bool, error) {
	path := filepath.Join(dir, spec.OutputName(id.CanonicalName))
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return tools.Output{}, false, nil
	}
	if err != nil {
		return tools.Output{}, false, err
	}
	if fi.IsDir() {
		return tools.Output{}, false, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return tools.Output{}, false, err
	}
	content := string(b)
	if spec.ContentType == tools.ContentMarkdown && c.Markdown != nil {
		content = c.Markdown.ToHTML(content)
	}
	return tools.Output{Tool: spec.Name, ContentType: spec.ContentType, Content: content}, true, nil
}

func hasEntries(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
