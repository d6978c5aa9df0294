package weather

import "context"

// DailyProvider abstracts a daily forecast source (e.g. Open-Meteo).
type DailyProvider interface {
	Name() string
	FetchDaily(ctx context.Context, loc Location, days int) ([]Record, error)
}

// Store is the contract the shared in-memory table must satisfy. Reads see a
// consistent table; each batch method applies entirely or not at all.
type Store interface {
	Range(begin, end Date) (*Table, error)
	All() *Table
	Len() int
	Text() string

	Insert(records []Record) error
	Update(dates []Date, patches []Patch) error
	Delete(dates []Date) error
}

// Persister writes the serialized table to durable storage.
type Persister interface {
	Save(ctx context.Context, text string) error
}
