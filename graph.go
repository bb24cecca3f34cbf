package shovel

import "fmt"

// Node is a resolved position in a task's dependency tree. Synthetic is set
// only on the null-name wrapper introduced by Tree's flatten step when a
// root's entire chain flattens into a sibling list.
type Node struct {
	Name         string
	Synthetic    bool
	Dependencies []*Node
}

// Tree resolves root into a dependency tree by looking up task names in reg
// at build time (not registration time), so forward references and modular
// composition work. With dedupe, a task visited once elsewhere in the walk
// is included as a childless leaf on subsequent occurrences rather than
// re-expanded. With flatten, single-child dependency chains are collapsed
// into a flat, cosmetic sibling list; execution always walks the
// unflattened form.
func Tree(reg *Registry, root string, dedupe, flatten bool) (*Node, error) {
	b := &treeBuilder{reg: reg, dedupe: dedupe, visited: map[string]bool{}, onStack: map[string]bool{}}
	node, err := b.build(root)
	if err != nil {
		return nil, err
	}
	if flatten {
		node = flattenTree(node)
	}
	return node, nil
}

type treeBuilder struct {
	reg     *Registry
	dedupe  bool
	visited map[string]bool
	onStack map[string]bool
	path    []string
}

func (b *treeBuilder) build(name string) (*Node, error) {
	if b.onStack[name] {
		return nil, &CycleError{Path: append(append([]string(nil), b.path...), name)}
	}
	if _, ok := b.reg.Lookup(name); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if b.dedupe && b.visited[name] {
		return &Node{Name: name}, nil
	}

	b.onStack[name] = true
	b.path = append(b.path, name)
	defer func() {
		delete(b.onStack, name)
		b.path = b.path[:len(b.path)-1]
	}()

	task, _ := b.reg.Lookup(name)
	node := &Node{Name: name}
	for _, depName := range task.Dependencies {
		child, err := b.build(depName)
		if err != nil {
			return nil, err
		}
		node.Dependencies = append(node.Dependencies, child)
	}
	if b.dedupe {
		b.visited[name] = true
	}
	return node, nil
}

// flattenChain collapses node's single-child dependency chain into a flat
// slice, child-first then node itself. Nodes with two or more dependencies
// keep a nested structure, but any dependency that is itself a flattened
// chain (length > 1) is spread into the node's own Dependencies as siblings
// rather than kept nested.
func flattenChain(node *Node) []*Node {
	switch len(node.Dependencies) {
	case 0:
		return []*Node{node}
	case 1:
		chain := flattenChain(node.Dependencies[0])
		return append(chain, &Node{Name: node.Name})
	default:
		merged := &Node{Name: node.Name}
		for _, dep := range node.Dependencies {
			rec := flattenChain(dep)
			if len(rec) > 1 {
				merged.Dependencies = append(merged.Dependencies, rec...)
			} else {
				merged.Dependencies = append(merged.Dependencies, rec[0])
			}
		}
		return []*Node{merged}
	}
}

// flattenTree applies flattenChain to root, wrapping the result in a
// synthetic null-name node when root's own chain flattens into more than
// one sibling, so callers always see a single root node.
func flattenTree(root *Node) *Node {
	result := flattenChain(root)
	if len(result) > 1 {
		return &Node{Synthetic: true, Dependencies: result}
	}
	return result[0]
}

// Names returns every task name reachable in node, including node's own
// name unless it is the synthetic wrapper. Used to assert that flatten is
// cosmetic (same reachable set as the unflattened tree).
func (n *Node) Names() []string {
	var names []string
	var walk func(*Node)
	walk = func(cur *Node) {
		if !cur.Synthetic {
			names = append(names, cur.Name)
		}
		for _, d := range cur.Dependencies {
			walk(d)
		}
	}
	walk(n)
	return names
}
