package markup

// TextTag is the node type used for text runs. Text nodes carry their run in
// Text and never have children.
const TextTag = "text"

// NodeID indexes into a Tree's arena. Parent references are ids rather than
// pointers so the structure stays acyclic for ownership purposes; the parent
// link is lookup-only.
type NodeID int

// NoNode is the parent of root-level nodes.
const NoNode NodeID = -1

// Node is one structural unit of a content document: a tag with attributes
// and children, or a text run.
type Node struct {
	Tag      string
	Text     string            // set only when Tag == TextTag
	Attrs    map[string]string // boolean attributes hold "true"
	NavID    string            // table-of-contents correlation, set post-parse
	Parent   NodeID
	Children []NodeID
}

// Tree is a node arena plus the root list for one content document.
type Tree struct {
	Nodes []Node
	Roots []NodeID
}

// Node returns the arena entry for id. The pointer stays valid until the
// next node is added.
func (t *Tree) Node(id NodeID) *Node {
	return &t.Nodes[id]
}

// ParentTag returns the tag of a node's parent, or "" for roots. The only
// structural question that needs the parent link: list items must know
// whether they sit in an ol or a ul.
func (t *Tree) ParentTag(id NodeID) string {
	p := t.Nodes[id].Parent
	if p == NoNode {
		return ""
	}
	return t.Nodes[p].Tag
}

// ListOrdinal returns the 1-based position of a li node among its li
// siblings when its parent is an ordered list, and 0 otherwise.
func (t *Tree) ListOrdinal(id NodeID) int {
	if t.Nodes[id].Tag != "li" || t.ParentTag(id) != "ol" {
		return 0
	}
	n := 0
	for _, sib := range t.Nodes[t.Nodes[id].Parent].Children {
		if t.Nodes[sib].Tag == "li" {
			n++
			if sib == id {
				return n
			}
		}
	}
	return 0
}

// FindByAttrID returns the first node whose id attribute equals want, in
// document order.
func (t *Tree) FindByAttrID(want string) (NodeID, bool) {
	for i := range t.Nodes {
		if t.Nodes[i].Attrs["id"] == want {
			return NodeID(i), true
		}
	}
	return NoNode, false
}

// Walk visits every node reachable from the roots in document order.
func (t *Tree) Walk(fn func(id NodeID, n *Node)) {
	var visit func(id NodeID)
	visit = func(id NodeID) {
		fn(id, &t.Nodes[id])
		for _, c := range t.Nodes[id].Children {
			visit(c)
		}
	}
	for _, r := range t.Roots {
		visit(r)
	}
}

func (t *Tree) add(n Node) NodeID {
	t.Nodes = append(t.Nodes, n)
	return NodeID(len(t.Nodes) - 1)
}
