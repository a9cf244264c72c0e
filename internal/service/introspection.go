package service

import (
	"fmt"

	"github.com/andresuchdata/pirs/internal/domain"
)

// heapGraph renders a binary heap array as nodes with parent/child edges.
func heapGraph(prefix string, slots []domain.HeapSlot) domain.Graph {
	g := domain.Graph{
		Nodes: make([]domain.GraphNode, 0, len(slots)),
		Edges: make([]domain.GraphEdge, 0, len(slots)),
	}

	id := func(i int) string { return fmt.Sprintf("%s-%d", prefix, i) }
	for i, slot := range slots {
		g.Nodes = append(g.Nodes, domain.GraphNode{
			ID:     id(i),
			Label:  slot.Key,
			Name:   slot.Name,
			Value:  slot.Value,
			Status: string(domain.ClassifyDays(slot.DaysRemaining)),
		})

		if i == 0 {
			continue
		}
		side := "left"
		if i%2 == 0 {
			side = "right"
		}
		g.Edges = append(g.Edges, domain.GraphEdge{From: id((i - 1) / 2), To: id(i), Side: side})
	}
	return g
}
