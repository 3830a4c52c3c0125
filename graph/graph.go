// Package graph implements the dependency graph over rules (spec §4.4):
// construction from a project, cycle detection, depends? reachability,
// and deterministic topological sequencing for a target set.
//
// It mirrors original_source/build/graph.py's RuleGraph, which wraps
// networkx's DiGraph for exactly this purpose; gonum.org/v1/gonum's
// graph/simple and graph/topo packages are the direct Go analogue.
package graph

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/anvil-build/anvil/project"
	"github.com/anvil-build/anvil/types"
)

// Graph is a DAG with one node per project rule. An edge A -> B exists
// iff B lists A in srcs or deps (spec §4.4): B depends on A, so A must
// run first — the edge direction gonum's topo.Sort walks is therefore
// "predecessor before dependent".
type Graph struct {
	g        *simple.DirectedGraph
	idByPath map[string]int64
	ruleByID map[int64]*project.Rule
}

// Build constructs a Graph over every rule reachable from the project's
// currently-registered modules, resolving each rule-typed reference
// against requestingModule for bare ":name" entries. Fails with
// UnknownRule if a reference does not resolve, or CycleDetected (naming
// one concrete cycle) if the result is not acyclic.
func Build(p *project.Project) (*Graph, error) {
	gr := &Graph{
		g:        simple.NewDirectedGraph(),
		idByPath: make(map[string]int64),
		ruleByID: make(map[int64]*project.Rule),
	}

	// A worklist, not a fixed snapshot of p.AllRules(): resolving a
	// reference can lazily load a module the project didn't have yet
	// (§4.3), and that module's own rules need their edges processed
	// too. A plain range over an up-front AllRules() slice would miss
	// any rule more than one resolver hop away from what was already
	// registered when Build was called.
	seen := make(map[string]bool)
	var queue []*project.Rule
	enqueue := func(r *project.Rule) {
		if seen[r.Path()] {
			return
		}
		seen[r.Path()] = true
		gr.addNode(r)
		queue = append(queue, r)
	}
	for _, r := range p.AllRules() {
		enqueue(r)
	}

	for i := 0; i < len(queue); i++ {
		r := queue[i]
		requestingModule := r.ParentModule().Path
		for _, ref := range r.AllReferences() {
			dep, err := p.ResolveRule(ref, requestingModule)
			if err != nil {
				return nil, err
			}
			enqueue(dep)
			depID := gr.idByPath[dep.Path()]
			ruleID := gr.idByPath[r.Path()]
			// Edge direction: dependency (dep) -> dependent (r), so a
			// topological sort visits dep before r.
			gr.g.SetEdge(gr.g.NewEdge(simple.Node(depID), simple.Node(ruleID)))
		}
	}

	if cycle := gr.findCycle(); cycle != nil {
		return nil, types.NewError(types.ErrCycleDetected, "dependency cycle: "+pathJoin(cycle))
	}

	return gr, nil
}

func (gr *Graph) addNode(r *project.Rule) {
	if _, exists := gr.idByPath[r.Path()]; exists {
		return
	}
	id := int64(len(gr.idByPath))
	gr.idByPath[r.Path()] = id
	gr.ruleByID[id] = r
	gr.g.AddNode(simple.Node(id))
}

func (gr *Graph) findCycle() []string {
	cycles := topo.DirectedCyclesIn(gr.g)
	if len(cycles) == 0 {
		return nil
	}
	first := cycles[0]
	out := make([]string, 0, len(first))
	for _, n := range first {
		out = append(out, gr.ruleByID[n.ID()].Path())
	}
	return out
}

func pathJoin(paths []string) string {
	s := ""
	for i, p := range paths {
		if i > 0 {
			s += " -> "
		}
		s += p
	}
	return s
}

// DependsOn reports whether a transitively needs b — i.e. whether there
// is a directed path from b to a in our dependency-before-dependent edge
// convention. Reflexive: DependsOn(a, a) is true.
func (gr *Graph) DependsOn(a, b string) (bool, error) {
	aID, ok := gr.idByPath[a]
	if !ok {
		return false, types.NewError(types.ErrUnknownRule, "unknown rule "+a)
	}
	bID, ok := gr.idByPath[b]
	if !ok {
		return false, types.NewError(types.ErrUnknownRule, "unknown rule "+b)
	}
	if aID == bID {
		return true, nil
	}
	return topo.PathExistsIn(gr.g, simple.Node(bID), simple.Node(aID)), nil
}

// Sequence computes the minimal rule set containing every target and all
// of its transitive predecessors, and returns it in a topological order
// (predecessors before dependents). Ties among mutually-independent
// rules are broken by ascending rule path for reproducibility (spec §9
// Open Question (i)).
func (gr *Graph) Sequence(targets []string) ([]*project.Rule, error) {
	targetIDs := make(map[int64]bool, len(targets))
	for _, t := range targets {
		id, ok := gr.idByPath[t]
		if !ok {
			return nil, types.NewError(types.ErrUnknownRule, "unknown target rule "+t)
		}
		targetIDs[id] = true
	}

	included := make(map[int64]bool)
	var walk func(id int64)
	walk = func(id int64) {
		if included[id] {
			return
		}
		included[id] = true
		to := gr.g.To(id)
		for to.Next() {
			walk(to.Node().ID())
		}
	}
	for id := range targetIDs {
		walk(id)
	}

	sub := simple.NewDirectedGraph()
	for id := range included {
		sub.AddNode(simple.Node(id))
	}
	for id := range included {
		from := gr.g.From(id)
		for from.Next() {
			to := from.Node().ID()
			if included[to] {
				sub.SetEdge(sub.NewEdge(simple.Node(id), simple.Node(to)))
			}
		}
	}

	ordered, err := topo.SortStabilized(sub, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool {
			return gr.ruleByID[nodes[i].ID()].Path() < gr.ruleByID[nodes[j].ID()].Path()
		})
	})
	if err != nil {
		return nil, types.WrapError(types.ErrCycleDetected, "sequencing targets", err)
	}

	out := make([]*project.Rule, 0, len(ordered))
	for _, n := range ordered {
		out = append(out, gr.ruleByID[n.ID()])
	}
	return out, nil
}

// Rule returns the rule at path, or nil if the graph has no such node.
func (gr *Graph) Rule(path string) *project.Rule {
	id, ok := gr.idByPath[path]
	if !ok {
		return nil
	}
	return gr.ruleByID[id]
}
