package parser

// Layer 1: concrete syntax tree for the justfile grammar.
//
// Nodes are integer handles into an arena owned by the Tree, so a node can
// never outlive the tree that produced it.

// Node kind tags produced by the grammar.
const (
	KindSourceFile = "source_file"
	KindComment    = "comment"
	KindAssignment = "assignment"
	KindSetting    = "setting"
	KindAlias      = "alias"

	KindAttribute         = "attribute"
	KindAttributeArgument = "attribute_argument"

	KindRecipe       = "recipe"
	KindRecipeHeader = "recipe_header"
	KindIdentifier   = "identifier"

	KindParameters        = "parameters"
	KindParameter         = "parameter"
	KindVariadicParameter = "variadic_parameter"
	KindDefaultValue      = "default_value"

	KindDependencies       = "dependencies"
	KindDependency         = "dependency"
	KindDependencyArgument = "dependency_argument"
	KindCondition          = "condition"

	KindBody       = "body"
	KindRecipeLine = "recipe_line"

	KindError = "ERROR"
)

// NodeID is a handle into a Tree's node arena.
type NodeID int32

// NoNode marks the absence of a node.
const NoNode NodeID = -1

type nodeData struct {
	kind      string
	startByte int
	endByte   int
	startLine int // 1-based
	startCol  int // 0-based byte column
	parent    NodeID
	children  []NodeID
}

// Tree owns the parsed structure for one source text. It is immutable after
// Parse returns.
type Tree struct {
	source []byte
	nodes  []nodeData
	root   NodeID
	errors []NodeID
}

// Root returns the top-level node. Its kind is grammar-defined; callers
// should not assume a single fixed tag.
func (t *Tree) Root() Node {
	return Node{tree: t, id: t.root}
}

// HasErrors reports whether the grammar produced any error nodes. A tree can
// have errors even when Parse returned no error.
func (t *Tree) HasErrors() bool {
	return len(t.errors) > 0
}

// ErrorNodes returns every error node in source order.
func (t *Tree) ErrorNodes() []Node {
	out := make([]Node, 0, len(t.errors))
	for _, id := range t.errors {
		out = append(out, Node{tree: t, id: id})
	}
	return out
}

// Source returns the raw text the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.source
}

func (t *Tree) addNode(kind string, startByte, endByte, startLine, startCol int, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, nodeData{
		kind:      kind,
		startByte: startByte,
		endByte:   endByte,
		startLine: startLine,
		startCol:  startCol,
		parent:    parent,
	})
	if parent != NoNode {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	if kind == KindError {
		t.errors = append(t.errors, id)
	}
	return id
}

// Node is a borrowed view into a Tree.
type Node struct {
	tree *Tree
	id   NodeID
}

func (n Node) IsValid() bool {
	return n.tree != nil && n.id != NoNode
}

func (n Node) Kind() string {
	return n.tree.nodes[n.id].kind
}

// Text extracts the node's span from the source lazily.
func (n Node) Text() string {
	d := n.tree.nodes[n.id]
	return string(n.tree.source[d.startByte:d.endByte])
}

func (n Node) StartByte() int  { return n.tree.nodes[n.id].startByte }
func (n Node) EndByte() int    { return n.tree.nodes[n.id].endByte }
func (n Node) StartLine() int  { return n.tree.nodes[n.id].startLine }
func (n Node) StartCol() int   { return n.tree.nodes[n.id].startCol }
func (n Node) ChildCount() int { return len(n.tree.nodes[n.id].children) }

func (n Node) Child(i int) Node {
	return Node{tree: n.tree, id: n.tree.nodes[n.id].children[i]}
}

func (n Node) Children() []Node {
	ids := n.tree.nodes[n.id].children
	out := make([]Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, Node{tree: n.tree, id: id})
	}
	return out
}

// ChildByKind returns the first direct child with the given kind.
func (n Node) ChildByKind(kind string) (Node, bool) {
	for _, id := range n.tree.nodes[n.id].children {
		if n.tree.nodes[id].kind == kind {
			return Node{tree: n.tree, id: id}, true
		}
	}
	return Node{}, false
}

// ChildrenByKind returns every direct child with the given kind.
func (n Node) ChildrenByKind(kind string) []Node {
	var out []Node
	for _, id := range n.tree.nodes[n.id].children {
		if n.tree.nodes[id].kind == kind {
			out = append(out, Node{tree: n.tree, id: id})
		}
	}
	return out
}

// Walk visits n and every descendant depth-first in source order.
func (n Node) Walk(visit func(Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(visit)
	}
}
