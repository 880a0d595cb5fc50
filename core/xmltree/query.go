package xmltree

import (
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/xmldelta/xmldelta/core/errors"
)

// selectElement resolves an XPath expression against the parsed document and
// returns the first matching element.
func selectElement(doc *xmlquery.Node, expr string) (*xmlquery.Node, error) {
	if _, err := xpath.Compile(expr); err != nil {
		return nil, errors.Wrap(err, "invalid xpath")
	}

	nodes, err := xmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, errors.Wrap(err, "xpath query failed")
	}
	for _, n := range nodes {
		if n.Type == xmlquery.ElementNode {
			return n, nil
		}
	}
	return nil, errors.NewNotFound("node", expr)
}

// FindByPath walks the canonical tree for the node with the given path.
// Returns nil when no node matches.
func FindByPath(root *Node, path string) *Node {
	if root == nil {
		return nil
	}
	if root.Path == path {
		return root
	}
	// Paths are prefix-structured, so only matching branches are descended.
	for _, c := range root.Children {
		if c.Path == path || pathHasPrefix(path, c.Path) {
			if found := FindByPath(c, path); found != nil {
				return found
			}
		}
	}
	return nil
}

func pathHasPrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
