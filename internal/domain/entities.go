package domain

import "time"

type Movie struct {
	ID       int64
	Title    string
	Director string
	FileID   string
}

type Genre struct {
	ID   int64
	Name string
}

// MovieSummary is the row shape of listing and search queries:
// genre names arrive pre-joined into a comma-separated string.
type MovieSummary struct {
	ID       int64
	Title    string
	Genres   string
	Director string
	FileID   string
}

type HistoryEntry struct {
	MovieID   int64
	Title     string
	Genres    string
	Director  string
	FileID    string
	WatchedAt time.Time
}
