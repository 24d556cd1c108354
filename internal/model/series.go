package model

// AggregatePoint is the simple moving average of one window.
// Date is the date of the last record folded into the window.
type AggregatePoint struct {
	Average float64 `json:"average"`
	Date    string  `json:"date"`
}

// Point is one plotted value. X is a day offset or a date-derived scalar.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Series is a labeled point sequence handed to a rendering sink.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Chart groups the series of one pipeline run with its axis labels.
type Chart struct {
	Title  string   `json:"title"`
	XLabel string   `json:"x_label"`
	YLabel string   `json:"y_label"`
	Series []Series `json:"series"`
}
