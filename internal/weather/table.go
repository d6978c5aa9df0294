package weather

import (
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Table is an ordered Date to Record mapping. Tables built by Parse or
// NewTable are sorted by date; later inserts append at the end and deletes
// keep the relative order of the remaining entries.
//
// A Table is not safe for concurrent use; MemoryStore guards the shared one.
type Table struct {
	entries *orderedmap.OrderedMap[Date, Record]
}

func NewEmptyTable() *Table {
	return &Table{entries: orderedmap.New[Date, Record]()}
}

// NewTable sorts records by date and rejects repeated dates.
func NewTable(records []Record) (*Table, error) {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int { return a.Date.Compare(b.Date) })

	t := NewEmptyTable()
	for _, r := range sorted {
		if _, present := t.entries.Get(r.Date); present {
			return nil, &ParseError{Kind: ErrDuplicateDate, Date: r.Date}
		}
		t.entries.Set(r.Date, r)
	}
	return t, nil
}

func (t *Table) Len() int { return t.entries.Len() }

func (t *Table) Has(d Date) bool {
	_, ok := t.entries.Get(d)
	return ok
}

func (t *Table) Get(d Date) (Record, bool) {
	return t.entries.Get(d)
}

// Records returns the entries in table order.
func (t *Table) Records() []Record {
	out := make([]Record, 0, t.entries.Len())
	for p := t.entries.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Dates returns the keys in table order.
func (t *Table) Dates() []Date {
	out := make([]Date, 0, t.entries.Len())
	for p := t.entries.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Key)
	}
	return out
}

func (t *Table) Clone() *Table {
	c := NewEmptyTable()
	for p := t.entries.Oldest(); p != nil; p = p.Next() {
		c.entries.Set(p.Key, p.Value)
	}
	return c
}

// Range returns every entry whose date lies between begin and end inclusive,
// sorted ascending. Both bounds must be keys of the table. The bounds may be
// given in either order.
func (t *Table) Range(begin, end Date) (*Table, error) {
	if !t.Has(begin) {
		return nil, &DateError{Err: ErrRangeNotSatisfiable, Date: begin}
	}
	if !t.Has(end) {
		return nil, &DateError{Err: ErrRangeNotSatisfiable, Date: end}
	}
	if end.Before(begin) {
		begin, end = end, begin
	}

	var picked []Record
	for p := t.entries.Oldest(); p != nil; p = p.Next() {
		if p.Key.Before(begin) || p.Key.After(end) {
			continue
		}
		picked = append(picked, p.Value)
	}
	slices.SortFunc(picked, func(a, b Record) int { return a.Date.Compare(b.Date) })

	out := NewEmptyTable()
	for _, r := range picked {
		out.entries.Set(r.Date, r)
	}
	return out, nil
}

// Insert appends r. It fails with ErrDuplicateKey if the date is present.
func (t *Table) Insert(r Record) error {
	if t.Has(r.Date) {
		return &DateError{Err: ErrDuplicateKey, Date: r.Date}
	}
	t.entries.Set(r.Date, r)
	return nil
}

// Update overwrites the fields present in p. The entry keeps its position.
func (t *Table) Update(d Date, p Patch) error {
	r, ok := t.entries.Get(d)
	if !ok {
		return &DateError{Err: ErrNotFound, Date: d}
	}
	t.entries.Set(d, p.Apply(r))
	return nil
}

func (t *Table) Delete(d Date) error {
	if _, ok := t.entries.Delete(d); !ok {
		return &DateError{Err: ErrNotFound, Date: d}
	}
	return nil
}

// InsertBatch inserts every record or none of them.
func (t *Table) InsertBatch(records []Record) error {
	if len(records) == 0 {
		return ErrEmptyBatch
	}
	dates := make([]Date, len(records))
	for i, r := range records {
		dates[i] = r.Date
	}
	if err := checkUnique(dates); err != nil {
		return err
	}
	for _, d := range dates {
		if t.Has(d) {
			return &DateError{Err: ErrDuplicateKey, Date: d}
		}
	}
	for _, r := range records {
		t.entries.Set(r.Date, r)
	}
	return nil
}

// UpdateBatch applies patches[i] to dates[i], all or nothing.
func (t *Table) UpdateBatch(dates []Date, patches []Patch) error {
	if len(dates) == 0 {
		return ErrEmptyBatch
	}
	if len(dates) != len(patches) {
		return ErrBatchMismatch
	}
	if err := t.checkPresent(dates); err != nil {
		return err
	}
	for i, d := range dates {
		r, _ := t.entries.Get(d)
		t.entries.Set(d, patches[i].Apply(r))
	}
	return nil
}

// DeleteBatch removes every date or none of them.
func (t *Table) DeleteBatch(dates []Date) error {
	if len(dates) == 0 {
		return ErrEmptyBatch
	}
	if err := t.checkPresent(dates); err != nil {
		return err
	}
	for _, d := range dates {
		t.entries.Delete(d)
	}
	return nil
}

func (t *Table) checkPresent(dates []Date) error {
	if err := checkUnique(dates); err != nil {
		return err
	}
	for _, d := range dates {
		if !t.Has(d) {
			return &DateError{Err: ErrNotFound, Date: d}
		}
	}
	return nil
}

func checkUnique(dates []Date) error {
	seen := make(map[Date]struct{}, len(dates))
	for _, d := range dates {
		if _, dup := seen[d]; dup {
			return &DateError{Err: ErrDuplicateDate, Date: d}
		}
		seen[d] = struct{}{}
	}
	return nil
}
