package api

import (
	"fmt"
	"sort"
	"strings"

	"github.com/s0up4200/restkit/apierr"
	"github.com/s0up4200/restkit/resource"
)

// Namespace is a placeholder grouping the resources registered under a
// dotted name. "my.nested.users" creates namespaces "my" and "my.nested".
type Namespace struct {
	name     string
	children map[string]*node
}

// node is exactly one of a namespace or a handler
type node struct {
	namespace *Namespace
	handler   resource.Handler
}

func newNamespace(name string) *Namespace {
	return &Namespace{name: name, children: make(map[string]*node)}
}

// Name returns the full dotted name, empty for the root
func (n *Namespace) Name() string {
	return n.name
}

// Children returns the names of direct children in sorted order
func (n *Namespace) Children() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resource resolves a dotted name relative to n
func (n *Namespace) Resource(name string) (resource.Handler, error) {
	nd, err := n.lookup(name)
	if err != nil {
		return nil, err
	}
	if nd.handler == nil {
		return nil, &apierr.ResourceError{Msg: fmt.Sprintf("'%s' is a namespace, not a resource", name)}
	}
	return nd.handler, nil
}

// Namespace resolves a dotted namespace name relative to n
func (n *Namespace) Namespace(name string) (*Namespace, error) {
	nd, err := n.lookup(name)
	if err != nil {
		return nil, err
	}
	if nd.namespace == nil {
		return nil, &apierr.ResourceError{Msg: fmt.Sprintf("'%s' is a resource, not a namespace", name)}
	}
	return nd.namespace, nil
}

func (n *Namespace) lookup(name string) (*node, error) {
	current := n
	parts := strings.Split(name, ".")
	for i, part := range parts {
		nd, ok := current.children[part]
		if !ok {
			return nil, &apierr.ResourceError{Msg: fmt.Sprintf("No resource '%s' exists", name)}
		}
		if i == len(parts)-1 {
			return nd, nil
		}
		if nd.namespace == nil {
			return nil, &apierr.ResourceError{Msg: fmt.Sprintf("No resource '%s' exists", name)}
		}
		current = nd.namespace
	}
	return nil, &apierr.ResourceError{Msg: fmt.Sprintf("No resource '%s' exists", name)}
}

// insert places h at the dotted name, creating or reusing namespaces on the way
func (n *Namespace) insert(name string, h resource.Handler) error {
	parts := strings.Split(name, ".")
	current := n

	for i, part := range parts[:len(parts)-1] {
		nd, ok := current.children[part]
		switch {
		case !ok:
			prefix := strings.Join(parts[:i+1], ".")
			nd = &node{namespace: newNamespace(prefix)}
			current.children[part] = nd
		case nd.namespace == nil:
			return errDuplicate(strings.Join(parts[:i+1], "."))
		}
		current = nd.namespace
	}

	last := parts[len(parts)-1]
	if _, ok := current.children[last]; ok {
		return errDuplicate(name)
	}
	current.children[last] = &node{handler: h}
	return nil
}

func errDuplicate(name string) error {
	return &apierr.ResourceError{Msg: fmt.Sprintf("The object '%s' already exists", name)}
}
