package models

import (
	"github.com/jengzang/landsat-go/internal/datastore"
	"github.com/jengzang/landsat-go/internal/stats"
)

// SampleView is one stored sample as returned by the API
type SampleView struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation"`
}

// BodyCount is the number of samples stored for a body
type BodyCount struct {
	Body  string `json:"body"`
	Count int    `json:"count"`
}

// BodyList lists every known body
type BodyList struct {
	Bodies []BodyCount `json:"bodies"`
	Total  int         `json:"total"`
}

// AverageResult is the mean elevation over a rectangle. Average is nil
// when no sample matched.
type AverageResult struct {
	Body    string         `json:"body"`
	Rect    datastore.Rect `json:"rect"`
	Average *float64       `json:"average"`
	Count   int            `json:"count"`
	HasData bool           `json:"has_data"`
}

// SampleList is a rendering slice of a body
type SampleList struct {
	Body      string       `json:"body"`
	Samples   []SampleView `json:"samples"`
	Truncated bool         `json:"truncated"`
}

// BodySummary describes the elevation distribution of a body
type BodySummary struct {
	Body string `json:"body"`
	stats.Summary
}

// StoreStatus is the snapshot state of the store
type StoreStatus struct {
	State   string `json:"state"`
	Pending int    `json:"pending"`
	Total   int    `json:"total"`
}

// IngestRequest is the body of POST /api/v1/samples
type IngestRequest struct {
	Readings []datastore.Reading `json:"readings" binding:"required"`
}

// IngestResult reports how many readings were handed to the store
type IngestResult struct {
	Accepted int  `json:"accepted"`
	Rejected int  `json:"rejected"`
	Buffered bool `json:"buffered"`
}
