package model

// Graph is the rendering-ready topology view consumed by the frontend
// force-graph. It is derived on every request and never persisted.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

// GraphNode is one rendered node. Val is the visual weight, Color the
// activity class (active/inactive/ghost).
type GraphNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Val   int    `json:"val"`
	Color string `json:"color"`
}

// GraphLink is one directed edge; a mutual neighbor relationship
// produces two links.
type GraphLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Color  string `json:"color"`
}
