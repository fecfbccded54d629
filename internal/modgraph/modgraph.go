// Package modgraph arranges the module paths of a crate model into a
// parent-to-child hierarchy so consumers can walk modules parents first.
package modgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/cratescope/internal/model"
)

// RootPath is the module path of the crate root.
const RootPath = ""

// Module is one vertex of the hierarchy.
type Module struct {
	Path   string             `json:"path" yaml:"path"`
	Parent string             `json:"parent" yaml:"parent"`
	Depth  int                `json:"depth" yaml:"depth"`
	Counts map[model.Kind]int `json:"counts" yaml:"counts"` // records declared directly in this module
}

// Total returns the number of records declared directly in the module.
func (m *Module) Total() int {
	total := 0
	for _, n := range m.Counts {
		total += n
	}
	return total
}

// Graph is a directed acyclic graph of modules with parent → child edges.
type Graph struct {
	g graph.Graph[string, *Module]
}

// Build creates the hierarchy for every module path in c plus all ancestors.
// Re-exports carry no module path and are not counted.
func Build(c *model.Crate) (*Graph, error) {
	mg := &Graph{
		g: graph.New(func(m *Module) string { return m.Path }, graph.Directed(), graph.Acyclic(), graph.PreventCycles()),
	}

	if _, err := mg.ensure(RootPath); err != nil {
		return nil, err
	}

	for path, counts := range countByModule(&c.Items) {
		m, err := mg.ensure(path)
		if err != nil {
			return nil, err
		}
		for kind, n := range counts {
			m.Counts[kind] += n
		}
	}

	return mg, nil
}

// ensure adds path and its ancestors, returning the vertex for path.
func (mg *Graph) ensure(path string) (*Module, error) {
	if m, err := mg.g.Vertex(path); err == nil {
		return m, nil
	}

	m := &Module{
		Path:   path,
		Parent: parentOf(path),
		Depth:  depthOf(path),
		Counts: map[model.Kind]int{},
	}
	if err := mg.g.AddVertex(m); err != nil {
		return nil, fmt.Errorf("failed to add module %q: %w", path, err)
	}
	if path == RootPath {
		return m, nil
	}

	if _, err := mg.ensure(m.Parent); err != nil {
		return nil, err
	}
	if err := mg.g.AddEdge(m.Parent, path); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		return nil, fmt.Errorf("failed to link module %q to %q: %w", path, m.Parent, err)
	}
	return m, nil
}

// Modules lists every module with parents before children; siblings are ordered by path.
func (mg *Graph) Modules() ([]*Module, error) {
	order, err := graph.StableTopologicalSort(mg.g, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, fmt.Errorf("failed to order modules: %w", err)
	}

	modules := make([]*Module, 0, len(order))
	for _, path := range order {
		m, err := mg.g.Vertex(path)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// Children returns the direct child module paths of path, sorted.
func (mg *Graph) Children(path string) ([]string, error) {
	adjacency, err := mg.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	edges, ok := adjacency[path]
	if !ok {
		return nil, fmt.Errorf("unknown module %q", path)
	}

	children := make([]string, 0, len(edges))
	for child := range edges {
		children = append(children, child)
	}
	sort.Strings(children)
	return children, nil
}

// Len returns the number of modules, including the root.
func (mg *Graph) Len() int {
	n, err := mg.g.Order()
	if err != nil {
		return 0
	}
	return n
}

func parentOf(path string) string {
	i := strings.LastIndex(path, "::")
	if i < 0 {
		return RootPath
	}
	return path[:i]
}

func depthOf(path string) int {
	if path == RootPath {
		return 0
	}
	return strings.Count(path, "::") + 1
}

func countByModule(it *model.Items) map[string]map[model.Kind]int {
	counts := map[string]map[model.Kind]int{}
	add := func(path string, kind model.Kind) {
		if counts[path] == nil {
			counts[path] = map[model.Kind]int{}
		}
		counts[path][kind]++
	}

	for _, f := range it.Functions {
		add(f.ModulePath, model.KindFunction)
	}
	for _, s := range it.Structs {
		add(s.ModulePath, model.KindStruct)
	}
	for _, e := range it.Enums {
		add(e.ModulePath, model.KindEnum)
	}
	for _, i := range it.Impls {
		add(i.ModulePath, model.KindImpl)
	}
	for _, t := range it.TypeAliases {
		add(t.ModulePath, model.KindTypeAlias)
	}
	for _, c := range it.Constants {
		add(c.ModulePath, model.KindConstant)
	}
	for _, s := range it.Statics {
		add(s.ModulePath, model.KindStatic)
	}
	for _, a := range it.EnumVariantAliases {
		add(a.ModulePath, model.KindEnumVariantAlias)
	}
	for _, m := range it.Macros {
		add(m.ModulePath, model.KindMacro)
	}
	return counts
}
