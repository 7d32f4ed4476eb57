package mtree

import (
	"fmt"
	"strings"
)

type pathStep struct {
	node  PageID
	index int // slot of the entry representing node in its parent, -1 for the root
}

// Path is a root-to-node sequence of (page, slot) pairs. It never holds node
// or entry references; every step is resolved again through the NodeStore.
type Path struct {
	steps []pathStep
}

// RootPath returns the path consisting only of the root.
func (t *Tree) RootPath() Path {
	return Path{steps: []pathStep{{node: t.store.RootID(), index: -1}}}
}

// Child returns a new path extended by the child stored at index of the last node.
func (p Path) Child(node PageID, index int) Path {
	steps := make([]pathStep, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return Path{steps: append(steps, pathStep{node: node, index: index})}
}

// NodeID is the page of the last node on the path.
func (p Path) NodeID() PageID { return p.steps[len(p.steps)-1].node }

// Index is the slot of the last node's entry in its parent.
func (p Path) Index() int { return p.steps[len(p.steps)-1].index }

func (p Path) Len() int { return len(p.steps) }

func (p Path) IsRoot() bool { return len(p.steps) == 1 }

// Parent drops the last step. It must not be called on the root path.
func (p Path) Parent() Path {
	return Path{steps: p.steps[: len(p.steps)-1 : len(p.steps)-1]}
}

func (p Path) String() string {
	parts := make([]string, len(p.steps))
	for i, s := range p.steps {
		parts[i] = fmt.Sprintf("%d[%d]", s.node, s.index)
	}
	return strings.Join(parts, " -> ")
}

// pathEntry resolves the directory entry representing the last node of p.
func (t *Tree) pathEntry(p Path) (*DirectoryEntry, error) {
	if p.IsRoot() {
		return t.rootEntry, nil
	}
	parent, err := t.store.ReadNode(p.Parent().NodeID())
	if err != nil {
		return nil, err
	}
	return parent.directoryEntry(p.Index())
}
