package db

// RankedName is one row of a per-country popularity ranking.
type RankedName struct {
	Name        string
	Rank        int
	Occurrences int
}

// FirstName is a gendered first-name ranking row as stored in first_names.
type FirstName struct {
	Country string
	Gender  string
	RankedName
}

// LastName is a last-name ranking row as stored in last_names.
type LastName struct {
	Country string
	RankedName
}
