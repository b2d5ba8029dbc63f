package repository

import "siteops/internal/model"

// BuildTaskTree links flat task rows into a parent/child tree and returns
// the roots. Two passes over an id-indexed map: rows arrive in arbitrary
// order, so a child may be scanned before its parent; linking cannot happen
// until every node exists. A task whose parent id is not present in the set
// is promoted to a root rather than dropped.
func BuildTaskTree(tasks []model.Task) []*model.Task {
	byID := make(map[int]*model.Task, len(tasks))
	for i := range tasks {
		t := tasks[i]
		t.Children = []*model.Task{}
		byID[t.ID] = &t
	}

	roots := []*model.Task{}
	// second pass preserves the input (created_at) ordering for both roots
	// and child lists
	for i := range tasks {
		node := byID[tasks[i].ID]
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := byID[*node.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}
