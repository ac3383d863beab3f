package units

import (
	"github.com/pkg/errors"

	"github.com/emolog/emolog/internal/db/models"
)

// Node is a unit with its children, as returned by Tree.
type Node struct {
	models.Unit
	Children []*Node `json:"children"`
}

// Tree returns the full unit hierarchy as a forest of root units.
// Dangling parent references and parent cycles are broken by treating
// the offending unit as a root, so a corrupt hierarchy can still be
// listed and repaired.
func (s *Service) Tree() ([]*Node, error) {
	var units []models.Unit

	if err := s.db.Order("code").Find(&units).Error; err != nil {
		return nil, errors.Wrap(err, "loading units")
	}

	byID := make(map[uint]*models.Unit, len(units))
	for i := range units {
		byID[units[i].ID] = &units[i]
	}

	nodes := make(map[uint]*Node, len(units))
	for i := range units {
		nodes[units[i].ID] = &Node{Unit: units[i], Children: []*Node{}}
	}

	var roots []*Node

	for i := range units {
		node := nodes[units[i].ID]

		if node.ParentID == nil || byID[*node.ParentID] == nil || onOwnAncestorPath(byID, node.ID) {
			roots = append(roots, node)
			continue
		}

		parent := nodes[*node.ParentID]
		parent.Children = append(parent.Children, node)
	}

	return roots, nil
}

// onOwnAncestorPath reports whether following parent references from the
// unit leads back to the unit itself.
func onOwnAncestorPath(byID map[uint]*models.Unit, id uint) bool {
	visited := map[uint]bool{id: true}

	current := byID[id]
	for current != nil && current.ParentID != nil {
		next := byID[*current.ParentID]
		if next == nil {
			return false
		}
		if visited[next.ID] {
			return next.ID == id
		}

		visited[next.ID] = true
		current = next
	}

	return false
}
