package model

// ContentUnit is one normalized block of content describing a single
// person, as handed in by the upstream render/navigation layer.
type ContentUnit struct {
	ID          string       `json:"id,omitempty"`
	PageURL     string       `json:"pageUrl,omitempty"`
	Text        string       `json:"text"`
	HTML        string       `json:"html,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Links       []Link       `json:"links,omitempty"`
	Words       []Word       `json:"words,omitempty"`
}

// Link is an anchor found inside a content unit.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Coordinates is the bounding box of a content unit on its page.
type Coordinates struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Word is a positioned token from PDF-rendered or OCR text. Y grows
// downward.
type Word struct {
	Text string  `json:"text"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
	Page int     `json:"page"`
}

// CenterX returns the horizontal center of the word.
func (w Word) CenterX() float64 { return (w.X0 + w.X1) / 2 }

// CenterY returns the vertical center of the word.
func (w Word) CenterY() float64 { return (w.Y0 + w.Y1) / 2 }
