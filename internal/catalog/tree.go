package catalog

import "lojinha/models"

// Node is a category with its resolved children. Expanded mirrors a
// caller-held set of expanded IDs and is never persisted.
type Node struct {
	models.Category
	Expanded bool    `json:"expanded"`
	Nodes    []*Node `json:"children"`
}

// childIndex groups categories by parent once, so tree building and
// descendant walks stay O(n).
func childIndex(items []models.Category) map[uint][]models.Category {
	index := make(map[uint][]models.Category, len(items))
	for _, c := range items {
		var parent uint
		if c.ParentID != nil {
			parent = *c.ParentID
		}
		index[parent] = append(index[parent], c)
	}
	return index
}

// BuildTree turns a flat category list into a nested tree. Root nodes are
// the categories without a parent. expanded may be nil.
func BuildTree(items []models.Category, expanded map[uint]bool) []*Node {
	return buildSubtree(childIndex(items), 0, expanded)
}

func buildSubtree(index map[uint][]models.Category, parentID uint, expanded map[uint]bool) []*Node {
	children := index[parentID]
	nodes := make([]*Node, 0, len(children))
	for _, c := range children {
		nodes = append(nodes, &Node{
			Category: c,
			Expanded: expanded[c.ID],
			Nodes:    buildSubtree(index, c.ID, expanded),
		})
	}
	return nodes
}

// DescendantIDs returns rootID plus every category transitively reachable
// through ParentID links. Used to filter the catalog by a category and its
// subcategories, and to exclude a category's own subtree from its parent
// selector.
func DescendantIDs(items []models.Category, rootID uint) []uint {
	index := childIndex(items)
	ids := []uint{rootID}
	for i := 0; i < len(ids); i++ {
		for _, child := range index[ids[i]] {
			ids = append(ids, child.ID)
		}
	}
	return ids
}

// ValidParents returns the categories that categoryID may adopt as a new
// parent: everything except itself and its own descendants.
func ValidParents(items []models.Category, categoryID uint) []models.Category {
	excluded := make(map[uint]bool)
	for _, id := range DescendantIDs(items, categoryID) {
		excluded[id] = true
	}
	valid := make([]models.Category, 0, len(items))
	for _, c := range items {
		if !excluded[c.ID] {
			valid = append(valid, c)
		}
	}
	return valid
}
