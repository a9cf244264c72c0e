package domain

// Introspection views expose raw engine structures to visualization tooling.
// They are read-only copies and never feed back into the engine.

type GraphNode struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Name   string  `json:"name,omitempty"`
	Value  float64 `json:"value"`
	Status string  `json:"status,omitempty"`
}

type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Side string `json:"side,omitempty"`
}

type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// HeapSlot is one position of a binary heap's backing array
type HeapSlot struct {
	Index         int     `json:"index"`
	Key           string  `json:"key"`
	Name          string  `json:"name"`
	Value         float64 `json:"value"`
	DaysRemaining float64 `json:"days_remaining"`
	Reason        string  `json:"reason,omitempty"`
}

type HeapState struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Complexity  map[string]string `json:"complexity"`
	RawArray    []HeapSlot        `json:"raw_array"`
	Tree        Graph             `json:"tree"`
	Size        int               `json:"size"`
}

type TreeState struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Complexity  map[string]string `json:"complexity"`
	Tree        Graph             `json:"tree"`
	InOrderPath []string          `json:"in_order_path"`
	Root        *GraphNode        `json:"root"`
	Height      int               `json:"height"`
	Size        int               `json:"size"`
}

type Bucket struct {
	Index int      `json:"index"`
	Items []string `json:"items"`
}

type HashSetState struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Complexity  map[string]string `json:"complexity"`
	BlockedLots []string          `json:"blocked_lots"`
	Buckets     []Bucket          `json:"buckets"`
	Size        int               `json:"size"`
}

type RingNode struct {
	Index     int    `json:"index"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	NextIndex int    `json:"next_index"`
}

type CircularListState struct {
	Type           string            `json:"type"`
	Description    string            `json:"description"`
	Complexity     map[string]string `json:"complexity"`
	Nodes          []RingNode        `json:"nodes"`
	CurrentPointer int               `json:"current_pointer"`
	Size           int               `json:"size"`
}
