package hal

import (
	"context"

	"github.com/fivetwenty-io/hal-client/internal/constants"
)

// PaginationOptions bounds a multi-page walk.
type PaginationOptions struct {
	// PageSize is the count defaulted into the first request when the
	// caller's parameters carry none.
	PageSize int

	// MaxPages is the hard ceiling on pagination turns after the first
	// page. The walk terminates at the ceiling even if the API never
	// stops reporting a next link.
	MaxPages int
}

// DefaultPaginationOptions returns the bulk-fetch defaults.
func DefaultPaginationOptions() *PaginationOptions {
	return &PaginationOptions{
		PageSize: constants.LargePageSize,
		MaxPages: constants.MaxPages,
	}
}

// CollectAll assembles the full, unpaginated collection for a parameter
// set: it fetches page one through the finder, then follows next links,
// concatenating records in page order. The iteration budget is a safety
// valve against APIs that never signal exhaustion, not a normal
// termination path. Errors from nested finds abort the accumulation
// immediately and propagate unwrapped.
func CollectAll(ctx context.Context, finder Finder, params *Params, opts *PaginationOptions) (*Result, error) {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	prepared := params.Clone()

	if prepared.Count == 0 {
		prepared.Count = opts.PageSize
	}

	if prepared.Page == 0 {
		prepared.Page = 1
	}

	first, err := finder.Find(ctx, KindAll, prepared)
	if err != nil {
		return nil, err
	}

	if first.Empty() {
		return first, nil
	}

	records := append([]Record(nil), first.Records...)

	for turn := 0; turn < opts.MaxPages; turn++ {
		page, err := finder.FindNext(ctx)
		if err != nil {
			return nil, err
		}

		if page == nil || len(page.Records) == 0 {
			break
		}

		records = append(records, page.Records...)
	}

	return &Result{Kind: KindAll, Records: records}, nil
}

// PageResult is one page delivered by StreamPages.
type PageResult struct {
	Records []Record
	Err     error
}

// StreamPages walks a collection page by page and delivers each page on
// the returned channel. The channel closes when the collection is
// exhausted, the iteration budget is reached, the context is canceled,
// or an error page has been delivered. The walk drives a single finder
// cursor, so the finder must not be used elsewhere until the channel
// closes.
func StreamPages(ctx context.Context, finder Finder, params *Params, opts *PaginationOptions) <-chan PageResult {
	if opts == nil {
		opts = DefaultPaginationOptions()
	}

	pages := make(chan PageResult, constants.SmallBufferSize)

	go func() {
		defer close(pages)

		prepared := params.Clone()

		if prepared.Count == 0 {
			prepared.Count = opts.PageSize
		}

		if prepared.Page == 0 {
			prepared.Page = 1
		}

		result, err := finder.Find(ctx, KindAll, prepared)

		for turn := 0; ; turn++ {
			if err != nil {
				pages <- PageResult{Err: err}

				return
			}

			if result == nil || len(result.Records) == 0 {
				return
			}

			select {
			case pages <- PageResult{Records: result.Records}:
			case <-ctx.Done():
				return
			}

			if turn >= opts.MaxPages {
				return
			}

			result, err = finder.FindNext(ctx)
		}
	}()

	return pages
}

// RecordIterator walks a collection record by record, fetching pages
// lazily through a finder's cursor.
type RecordIterator struct {
	ctx     context.Context
	finder  Finder
	params  *Params
	opts    *PaginationOptions
	buffer  []Record
	index   int
	turns   int
	started bool
	done    bool
	err     error
}

// NewRecordIterator creates an iterator over the collection selected by
// the parameters.
func NewRecordIterator(ctx context.Context, finder Finder, params *Params) *RecordIterator {
	return &RecordIterator{
		ctx:    ctx,
		finder: finder,
		params: params,
		opts:   DefaultPaginationOptions(),
	}
}

// HasNext reports whether another record is available, fetching the next
// page when the buffered one is consumed.
func (it *RecordIterator) HasNext() bool {
	if it.index < len(it.buffer) {
		return true
	}

	if it.done {
		return false
	}

	it.fetch()

	return it.index < len(it.buffer)
}

// Next returns the next record. It returns ErrNoMoreRecords past the end
// of the collection, or the fetch error that ended the walk.
func (it *RecordIterator) Next() (Record, error) {
	if !it.HasNext() {
		if it.err != nil {
			return nil, it.err
		}

		return nil, ErrNoMoreRecords
	}

	record := it.buffer[it.index]
	it.index++

	return record, nil
}

// All drains the iterator and returns the remaining records.
func (it *RecordIterator) All() ([]Record, error) {
	records := []Record{}

	for it.HasNext() {
		record, err := it.Next()
		if err != nil {
			return records, err
		}

		records = append(records, record)
	}

	if it.err != nil {
		return records, it.err
	}

	return records, nil
}

// ForEach applies a function to every remaining record, stopping on the
// first error.
func (it *RecordIterator) ForEach(apply func(Record) error) error {
	for it.HasNext() {
		record, err := it.Next()
		if err != nil {
			return err
		}

		if err := apply(record); err != nil {
			return err
		}
	}

	return it.err
}

func (it *RecordIterator) fetch() {
	var (
		result *Result
		err    error
	)

	if !it.started {
		it.started = true

		prepared := it.params.Clone()

		if prepared.Count == 0 {
			prepared.Count = it.opts.PageSize
		}

		if prepared.Page == 0 {
			prepared.Page = 1
		}

		result, err = it.finder.Find(it.ctx, KindAll, prepared)
	} else {
		if it.turns >= it.opts.MaxPages {
			it.done = true

			return
		}

		it.turns++
		result, err = it.finder.FindNext(it.ctx)
	}

	if err != nil {
		it.err = err
		it.done = true

		return
	}

	if result == nil || len(result.Records) == 0 {
		it.done = true

		return
	}

	it.buffer = result.Records
	it.index = 0
}
