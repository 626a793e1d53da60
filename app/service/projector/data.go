package projector

import "historydash/app/service/store"

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type NodeData struct {
	Label    string         `json:"label"`
	ItemType store.ItemType `json:"itemType"`
}

type NodeStyle struct {
	Background   string `json:"background"`
	Color        string `json:"color"`
	Border       string `json:"border"`
	BorderRadius string `json:"borderRadius"`
	Padding      string `json:"padding"`
	Width        int    `json:"width"`
	TextAlign    string `json:"textAlign"`
}

type Node struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Data     NodeData  `json:"data"`
	Position Position  `json:"position"`
	Style    NodeStyle `json:"style"`
}

type EdgeStyle struct {
	Stroke string `json:"stroke"`
}

type Edge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Label    string    `json:"label"`
	Animated bool      `json:"animated"`
	Style    EdgeStyle `json:"style"`
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Palette is the color triple of one item type.
type Palette struct {
	Background string `json:"background"`
	Border     string `json:"border"`
	Text       string `json:"text"`
}
