// Package tasktree reconstructs the parent/child forest from a flat
// task listing for tree-shaped presentation.
package tasktree

import "github.com/iliyamo/task-tracker/internal/repository"

// Node is one task in the assembled forest. Children is nil for leaves
// so it serializes away cleanly.
type Node struct {
	repository.TaskRow
	Children []*Node
}

// Build assembles a forest from a flat row list. Rows whose parent is
// present in the input hang under it; rows with no parent, or with a
// parent outside the visible set (dangling or foreign), become roots.
// Root order follows the input encounter order; no row is ever dropped.
func Build(rows []repository.TaskRow) []*Node {
	index := make(map[uint64]*Node, len(rows))
	nodes := make([]*Node, len(rows))
	for i := range rows {
		n := &Node{TaskRow: rows[i]}
		nodes[i] = n
		index[rows[i].ID] = n
	}

	forest := []*Node{}
	for _, n := range nodes {
		if n.Parent != nil {
			if parent, ok := index[*n.Parent]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		forest = append(forest, n)
	}
	return forest
}
