package types

import "time"

type MarkShape string

const (
	MarkShapeCircle   MarkShape = "circle"
	MarkShapeSquare   MarkShape = "square"
	MarkShapeTriangle MarkShape = "triangle"
)

type MarkColor string

const (
	MarkColorRed    MarkColor = "red"
	MarkColorGreen  MarkColor = "green"
	MarkColorBlue   MarkColor = "blue"
	MarkColorYellow MarkColor = "yellow"
)

// Mark annotates a bar with the decision taken on it, for plotting collaborators.
type Mark struct {
	BarIndex int       `yaml:"bar_index" json:"bar_index" csv:"bar_index"`
	Time     time.Time `yaml:"time" json:"time" csv:"time"`
	Color    MarkColor `yaml:"color" json:"color" csv:"color"`
	Shape    MarkShape `yaml:"shape" json:"shape" csv:"shape"`
	Title    string    `yaml:"title" json:"title" csv:"title"`
	Message  string    `yaml:"message" json:"message" csv:"message"`
	Category string    `yaml:"category" json:"category" csv:"category"`
}
