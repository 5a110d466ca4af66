// Package graph provides the foreign-key dependency graph and ordering
// algorithms for goseed.
package graph

import (
	"sort"

	"github.com/dbsmedya/goseed/internal/schema"
)

// Edge represents a parent -> child foreign-key dependency between tables.
type Edge struct {
	From string // Parent (referenced) table name
	To   string // Child (referencing) table name
}

// Graph represents the cross-table foreign-key structure of one schema's
// seed set. Node names are bare table names; all edges stay within one schema.
type Graph struct {
	Nodes    map[string]bool
	Children map[string][]string // parent -> child table names (outgoing edges)
	Parents  map[string][]string // child -> parent table names (incoming edges)
	edgeSet  map[Edge]bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]bool),
		Children: make(map[string][]string),
		Parents:  make(map[string][]string),
		edgeSet:  make(map[Edge]bool),
	}
}

// Build constructs the dependency graph for a seed set. An edge
// parent -> child exists when child declares a foreign key into parent,
// restricted to both endpoints being in the set and the reference staying
// within the same schema. Self-references never become edges; they cannot
// change insertion order.
func Build(tables []schema.Table) *Graph {
	g := NewGraph()

	inSet := make(map[string]bool, len(tables))
	for i := range tables {
		g.AddNode(tables[i].Name)
		inSet[tables[i].Name] = true
	}

	for i := range tables {
		t := &tables[i]
		for j := range t.ForeignKeys {
			fk := &t.ForeignKeys[j]
			if fk.IsSelfReference(t) {
				continue
			}
			if fk.RefSchema != t.Schema || !inSet[fk.RefTable] {
				continue
			}
			g.AddEdge(fk.RefTable, t.Name)
		}
	}

	return g
}

// AddNode adds a table node to the graph.
func (g *Graph) AddNode(name string) {
	g.Nodes[name] = true
}

// AddEdge adds a parent -> child relationship. Duplicate edges (two foreign
// keys into the same parent) collapse to one so in-degree bookkeeping stays
// consistent.
func (g *Graph) AddEdge(parent, child string) {
	e := Edge{From: parent, To: child}
	if g.edgeSet[e] {
		return
	}
	g.edgeSet[e] = true

	g.Children[parent] = append(g.Children[parent], child)
	g.Parents[child] = append(g.Parents[child], parent)
}

// GetChildren returns all direct children of a table.
func (g *Graph) GetChildren(parent string) []string {
	return g.Children[parent]
}

// GetParents returns all direct parents of a table.
func (g *Graph) GetParents(child string) []string {
	return g.Parents[child]
}

// HasNode returns true if the graph contains the named table.
func (g *Graph) HasNode(name string) bool {
	return g.Nodes[name]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.edgeSet)
}

// AllNodes returns all table names, sorted for deterministic iteration.
func (g *Graph) AllNodes() []string {
	nodes := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// AllEdges returns all edges, sorted for deterministic iteration.
func (g *Graph) AllEdges() []Edge {
	edges := make([]Edge, 0, len(g.edgeSet))
	for e := range g.edgeSet {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// InDegree returns the number of incoming edges (parents) for a node.
func (g *Graph) InDegree(name string) int {
	return len(g.Parents[name])
}

// OutDegree returns the number of outgoing edges (children) for a node.
func (g *Graph) OutDegree(name string) int {
	return len(g.Children[name])
}
