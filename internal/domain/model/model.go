// Package model contains domain models passed between layers.
package model

import "time"

// Item is a rankable book. Title and Author are opaque to the engine.
type Item struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Rating float64 `json:"rating"` // input rating on the 1-10 scale
	Skill  int     `json:"skill"`  // current Elo-style skill
}

func (i Item) String() string {
	return i.Title + ", by " + i.Author
}

// ComparisonRecord is an append-only fact: WinnerID beat LoserID at Timestamp.
type ComparisonRecord struct {
	WinnerID  int64
	LoserID   int64
	Timestamp time.Time
}

// Ranked is a read-side row: an item with its position and confidence.
type Ranked struct {
	Rank       int     `json:"rank"`
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Rating     float64 `json:"rating"`
	Skill      int     `json:"skill"`
	Opponents  int     `json:"opponents"`
	Confidence float64 `json:"confidence"`
	Tier       string  `json:"tier"`
}
