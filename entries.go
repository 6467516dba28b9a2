package unifs

import (
	"io"
	"iter"
	"sort"
)

// Entries is a lazy, single-pass iterator over a directory listing. It is
// finite and cannot be restarted: a fresh ListDir call is needed to observe
// later mutations. Order is backend-defined; EntriesOf yields name order.
//
// An Entries value is not safe for concurrent use.
type Entries struct {
	next  func() (Entry, error)
	close func() error
	done  bool
	err   error
}

// NewEntries builds an iterator from a producer. next returns io.EOF after
// the last entry. close, which may be nil, is called exactly once when the
// iterator is exhausted, fails or is closed.
func NewEntries(next func() (Entry, error), close func() error) *Entries {
	return &Entries{next: next, close: close}
}

// EntriesOf iterates over a snapshot of entries, sorting it by name first.
func EntriesOf(entries []Entry) *Entries {
	SortEntries(entries)
	i := 0
	return NewEntries(func() (Entry, error) {
		if i >= len(entries) {
			return Entry{}, io.EOF
		}
		e := entries[i]
		i++
		return e, nil
	}, nil)
}

// SortEntries sorts entries by name.
func SortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
}

// Next returns the next entry, or io.EOF once the listing is exhausted.
// After any error every later call returns the same error.
func (e *Entries) Next() (Entry, error) {
	if e.done {
		return Entry{}, e.err
	}
	ent, err := e.next()
	if err != nil {
		e.finish(err)
		return Entry{}, e.err
	}
	return ent, nil
}

// All returns an iterator that consumes the remaining entries. Iteration
// stops after the first error, which is yielded with a zero Entry.
func (e *Entries) All() iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		for {
			ent, err := e.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(Entry{}, err)
				return
			}
			if !yield(ent, nil) {
				e.Close()
				return
			}
		}
	}
}

// Collect drains the iterator into a slice.
func (e *Entries) Collect() ([]Entry, error) {
	var out []Entry
	for ent, err := range e.All() {
		if err != nil {
			return out, err
		}
		out = append(out, ent)
	}
	return out, nil
}

// Close releases the resources held by the iterator. It is safe to call
// more than once; later calls to Next return io.EOF.
func (e *Entries) Close() error {
	if e.done {
		return nil
	}
	return e.finish(io.EOF)
}

func (e *Entries) finish(err error) error {
	e.done = true
	e.err = err
	if e.close == nil {
		return nil
	}
	cerr := e.close()
	e.close = nil
	if cerr != nil && err == io.EOF {
		e.err = cerr
	}
	return cerr
}
