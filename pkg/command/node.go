package command

import "github.com/bench-ai/workbench-go/api/wire"

// Node is a read-only descriptor of one DOM node parsed back from agent
// output. The xpath locates the node for later interaction such as clicking.
type Node struct {
	XPath      string
	Type       string
	ID         string
	Attributes map[string]string
	CSS        map[string]string
}

func nodeFromDoc(d wire.NodeDoc) Node {
	n := Node{
		XPath:      d.XPath,
		Type:       d.Type,
		ID:         d.ID,
		Attributes: d.Attributes,
	}
	if len(d.CSSStyles) > 0 {
		n.CSS = d.CSSStyles
	}
	return n
}

// Tag returns the element tag derived from the last xpath segment. Only nodes
// of type "Element" carry a tag.
func (n Node) Tag() (string, error) {
	if n.Type != "Element" {
		return "", ErrNotElement
	}
	return trimXPathTail(n.XPath), nil
}
