package simulate

import "time"

// Config holds configuration for a simulated voting run.
type Config struct {
	BaseURL string        // Base URL of the service
	Votes   int           // Number of comparisons to submit
	Workers int           // Number of concurrent voters
	Timeout time.Duration // HTTP request timeout
	Seed    int64         // Seed for the hidden preference order and noise
	Noise   float64       // Probability a voter picks against its preference
	Replay  float64       // Probability a vote is sent twice under one key
	Verbose bool          // Log every vote
}

// Pair mirrors the GET /pair response.
type Pair struct {
	A Book `json:"a"`
	B Book `json:"b"`
}

// Book is the subset of an item the simulator reads.
type Book struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Skill int    `json:"skill"`
}

// Entry mirrors one GET /rankings element.
type Entry struct {
	Rank       int     `json:"rank"`
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Skill      int     `json:"skill"`
	Confidence float64 `json:"confidence"`
}

// Vote is the POST /comparisons body.
type Vote struct {
	WinnerID int64 `json:"winner_id"`
	LoserID  int64 `json:"loser_id"`
}

// Stats holds run statistics.
type Stats struct {
	VotesSubmitted int
	VotesAccepted  int
	VotesReplayed  int
	VotesFailed    int
	Books          int
	Agreement      float64
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
