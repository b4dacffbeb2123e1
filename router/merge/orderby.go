package merge

import (
	"container/heap"
	"context"
	"strings"

	"github.com/pg-sharding/shardplan/pkg/models/planerror"
	"github.com/pg-sharding/shardplan/pkg/models/statement"
	"github.com/pg-sharding/shardplan/pkg/shlog"
	"go.uber.org/atomic"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

type mergeState int

const (
	stateUninitialized = mergeState(iota)
	stateAdvancing
	stateYielding
	stateExhausted
	stateFailed
)

type Options struct {
	// PrefetchConcurrently pulls the first row of every shard in parallel.
	PrefetchConcurrently bool
	// AssertOrdering checks that every shard delivers rows in merge order.
	AssertOrdering bool
}

type mergeCursor struct {
	idx    int
	cursor ShardCursor
	row    []any
	prev   []any
	closed atomic.Bool
}

func (mc *mergeCursor) close() error {
	if !mc.closed.CompareAndSwap(false, true) {
		return nil
	}
	shlog.Zero.Debug().Int("cursor", mc.idx).Msg("closing shard cursor")
	return mc.cursor.Close()
}

type cursorHeap struct {
	items []*mergeCursor
	cmp   *Comparator
}

func (h *cursorHeap) Len() int { return len(h.items) }

func (h *cursorHeap) Less(i, j int) bool {
	if r := h.cmp.Compare(h.items[i].row, h.items[j].row); r != 0 {
		return r < 0
	}
	return h.items[i].idx < h.items[j].idx
}

func (h *cursorHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *cursorHeap) Push(x any) { h.items = append(h.items, x.(*mergeCursor)) }

func (h *cursorHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	return item
}

// OrderByMerger merges individually ordered shard cursors into one ordered
// stream. It buffers one row per shard and only advances the shard whose row
// was emitted last. OrderByMerger is itself a ShardCursor.
type OrderByMerger struct {
	cursors []*mergeCursor
	items   []statement.OrderByItem
	opts    Options

	columns []string
	h       cursorHeap
	state   mergeState
	current *mergeCursor
	err     error
}

var _ ShardCursor = &OrderByMerger{}

func NewOrderByMerger(cursors []ShardCursor, items []statement.OrderByItem, opts Options) *OrderByMerger {
	m := &OrderByMerger{items: items, opts: opts}
	for i, c := range cursors {
		m.cursors = append(m.cursors, &mergeCursor{idx: i, cursor: c})
	}
	return m
}

// Columns returns the result columns, known after the first Next.
func (m *OrderByMerger) Columns() []string {
	return m.columns
}

// Next moves to the next row in merge order. After it returns false or an
// error every shard cursor is closed.
func (m *OrderByMerger) Next(ctx context.Context) (bool, error) {
	switch m.state {
	case stateExhausted:
		return false, nil
	case stateFailed:
		return false, m.err
	}
	if err := ctx.Err(); err != nil {
		return m.fail(err)
	}

	switch m.state {
	case stateUninitialized:
		m.state = stateAdvancing
		if err := m.prefetch(ctx); err != nil {
			return m.fail(err)
		}
	case stateYielding:
		m.state = stateAdvancing
		mc := m.current
		m.current = nil
		ok, err := m.pull(ctx, mc)
		if err != nil {
			return m.fail(err)
		}
		if err := m.accept(mc, ok); err != nil {
			return m.fail(err)
		}
	}

	if err := ctx.Err(); err != nil {
		return m.fail(err)
	}
	if m.h.Len() == 0 {
		m.state = stateExhausted
		shlog.Zero.Debug().Int("cursors", len(m.cursors)).Msg("merge exhausted")
		return false, m.closeAll()
	}
	m.current = heap.Pop(&m.h).(*mergeCursor)
	m.state = stateYielding
	return true, nil
}

// prefetch pulls exactly one row from every shard, then builds the comparator.
// When every shard is empty the comparator is never built and the heap stays
// empty.
func (m *OrderByMerger) prefetch(ctx context.Context) error {
	found := make([]bool, len(m.cursors))
	if m.opts.PrefetchConcurrently && len(m.cursors) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, mc := range m.cursors {
			g.Go(func() error {
				ok, err := m.pull(gctx, mc)
				found[i] = ok
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, mc := range m.cursors {
			ok, err := m.pull(ctx, mc)
			if err != nil {
				return err
			}
			found[i] = ok
		}
	}

	if !slices.Contains(found, true) {
		shlog.Zero.Debug().Int("cursors", len(m.cursors)).Msg("no shard returned a row")
		for _, mc := range m.cursors {
			if err := m.accept(mc, false); err != nil {
				return err
			}
		}
		return nil
	}

	for _, mc := range m.cursors {
		if cols := mc.cursor.Columns(); len(cols) > 0 {
			m.columns = cols
			break
		}
	}
	cmp, err := NewComparator(m.items, m.columns)
	if err != nil {
		return err
	}
	m.h = cursorHeap{cmp: cmp}

	shlog.Zero.Debug().
		Int("cursors", len(m.cursors)).
		Bool("concurrent", m.opts.PrefetchConcurrently).
		Msg("prefetched first rows")

	for i, mc := range m.cursors {
		if err := m.accept(mc, found[i]); err != nil {
			return err
		}
	}
	return nil
}

// pull advances one shard. It touches nothing shared, so prefetch may run
// it for different shards at once.
func (m *OrderByMerger) pull(ctx context.Context, mc *mergeCursor) (bool, error) {
	ok, err := mc.cursor.Next(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		mc.row = nil
		return false, nil
	}
	mc.row = mc.cursor.Values()
	return true, nil
}

// accept puts a freshly pulled shard back into the heap, or closes it when
// it ran dry.
func (m *OrderByMerger) accept(mc *mergeCursor, ok bool) error {
	if !ok {
		shlog.Zero.Debug().Int("cursor", mc.idx).Msg("shard cursor exhausted")
		return mc.close()
	}
	if m.opts.AssertOrdering {
		if mc.prev != nil && m.h.cmp.Compare(mc.prev, mc.row) > 0 {
			return planerror.Newf(planerror.SHARDPLAN_ORDERING_VIOLATION, "shard %d returned %v after %v", mc.idx, mc.row, mc.prev)
		}
		mc.prev = append(mc.prev[:0], mc.row...)
	}
	heap.Push(&m.h, mc)
	return nil
}

func (m *OrderByMerger) fail(err error) (bool, error) {
	m.state = stateFailed
	m.err = err
	m.current = nil
	if cerr := m.closeAll(); cerr != nil {
		shlog.Zero.Debug().Err(cerr).Msg("failed to close shard cursor after merge error")
	}
	return false, err
}

func (m *OrderByMerger) closeAll() error {
	var first error
	for _, mc := range m.cursors {
		if err := mc.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Values returns the current row. It is valid until the next call to Next.
func (m *OrderByMerger) Values() []any {
	if m.current == nil {
		return nil
	}
	return m.current.row
}

// Value returns the column at 1-based position i of the current row.
func (m *OrderByMerger) Value(i int) (any, error) {
	row := m.Values()
	if row == nil {
		return nil, planerror.New(planerror.SHARDPLAN_UNEXPECTED, "no current row")
	}
	if i < 1 || i > len(row) {
		return nil, planerror.Newf(planerror.SHARDPLAN_UNEXPECTED, "column position %d is out of range", i)
	}
	return row[i-1], nil
}

func (m *OrderByMerger) ValueByName(name string) (any, error) {
	idx := columnIndex(m.columns, name)
	if idx < 0 {
		return nil, planerror.Newf(planerror.SHARDPLAN_UNEXPECTED, "column %q is not in the result [%s]", name, strings.Join(m.columns, ", "))
	}
	return m.Value(idx + 1)
}

// Close releases every shard cursor that is still open. It is safe to call
// more than once.
func (m *OrderByMerger) Close() error {
	if m.state != stateFailed {
		m.state = stateExhausted
	}
	m.current = nil
	return m.closeAll()
}
