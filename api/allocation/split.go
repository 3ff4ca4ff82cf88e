package allocation

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"SevaDeskSaas/api/constants"
)

// QuantityWriter is the slice of the store the controller needs.
type QuantityWriter interface {
	UpdateRowQuantities(ctx context.Context, id string, waiting, token int, userName string) error
}

// SplitController holds a session's rows in memory and splits each row's
// fixed quantity between waiting hall and token. Mutations apply in memory
// immediately; persistence is debounced per row id so rapid increments
// collapse into one write. A failed write never rolls the in-memory value
// back; the operator is told to refresh instead.
type SplitController struct {
	mu     sync.Mutex
	rows   map[string]*SeatAllocationRow
	order  []string
	timers map[string]*time.Timer
	writer QuantityWriter
	delay  time.Duration
	closed bool

	// OnWriteError receives debounced-write failures; defaults to logging.
	OnWriteError func(id string, err error)
}

func NewSplitController(writer QuantityWriter, delay time.Duration) *SplitController {
	return &SplitController{
		rows:   make(map[string]*SeatAllocationRow),
		timers: make(map[string]*time.Timer),
		writer: writer,
		delay:  delay,
	}
}

// Load replaces the controller's row set (after an import or a refresh).
// Pending debounce timers for the old rows are dropped, not flushed: the
// store was just re-read, so their values are stale.
func (c *SplitController) Load(rows []SeatAllocationRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.rows = make(map[string]*SeatAllocationRow, len(rows))
	c.order = make([]string, 0, len(rows))
	for i := range rows {
		row := rows[i]
		c.rows[row.ID] = &row
		c.order = append(c.order, row.ID)
	}
}

// Rows returns a snapshot copy in load order.
func (c *SplitController) Rows() []SeatAllocationRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]SeatAllocationRow, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.rows[id])
	}
	return out
}

// Row returns one row by id.
func (c *SplitController) Row(id string) (SeatAllocationRow, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[id]
	if !ok {
		return SeatAllocationRow{}, false
	}
	return *row, true
}

// Step moves the waiting-hall quantity by delta, clamped to [0, quantity].
// The token quantity is always the remainder.
func (c *SplitController) Step(id string, delta int, userName string) (SeatAllocationRow, error) {
	return c.setWaiting(id, func(row *SeatAllocationRow) int {
		return row.WaitingHallQuantity + delta
	}, userName)
}

// SetWaitingInput applies a direct-entry value. Anything that does not
// parse as a non-negative integer is treated as 0.
func (c *SplitController) SetWaitingInput(id, input, userName string) (SeatAllocationRow, error) {
	value := 0
	if n, err := strconv.Atoi(strings.TrimSpace(input)); err == nil && n > 0 {
		value = n
	}
	return c.setWaiting(id, func(*SeatAllocationRow) int { return value }, userName)
}

func (c *SplitController) setWaiting(id string, next func(*SeatAllocationRow) int, userName string) (SeatAllocationRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	row, ok := c.rows[id]
	if !ok {
		return SeatAllocationRow{}, fmt.Errorf("%s: %s", constants.ErrRowNotFound, id)
	}
	row.WaitingHallQuantity = clamp(next(row), 0, row.Quantity)
	row.TokenQuantity = row.Quantity - row.WaitingHallQuantity
	if userName != "" {
		row.UpdatedBy = &userName
	}
	c.scheduleWriteLocked(id, userName)
	return *row, nil
}

// scheduleWriteLocked cancels and replaces any pending timer for the row so
// an earlier snapshot can never clobber a later value.
func (c *SplitController) scheduleWriteLocked(id, userName string) {
	if c.closed {
		return
	}
	if t, ok := c.timers[id]; ok {
		t.Stop()
	}
	c.timers[id] = time.AfterFunc(c.delay, func() {
		c.flushRow(id, userName)
	})
}

func (c *SplitController) flushRow(id, userName string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	delete(c.timers, id)
	row, ok := c.rows[id]
	if !ok {
		c.mu.Unlock()
		return
	}
	waiting, token := row.WaitingHallQuantity, row.TokenQuantity
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := c.writer.UpdateRowQuantities(ctx, id, waiting, token, userName); err != nil {
		if c.OnWriteError != nil {
			c.OnWriteError(id, err)
		}
	}
}

// BulkResult aggregates the outcome of a bulk waiting-hall operation.
type BulkResult struct {
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// BulkWaiting sets every listed row to full waiting hall (full=true) or all
// tokens (full=false). In-memory state updates synchronously; the store
// writes go out concurrently and the outcomes are collected into one
// aggregate report. Rows not in the controller are counted as failures.
func (c *SplitController) BulkWaiting(ids []string, full bool, userName string) BulkResult {
	type write struct {
		id             string
		waiting, token int
	}

	c.mu.Lock()
	writes := make([]write, 0, len(ids))
	var res BulkResult
	for _, id := range ids {
		row, ok := c.rows[id]
		if !ok {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", constants.ErrRowNotFound, id))
			continue
		}
		if full {
			row.WaitingHallQuantity = row.Quantity
			row.TokenQuantity = 0
		} else {
			row.WaitingHallQuantity = 0
			row.TokenQuantity = row.Quantity
		}
		if userName != "" {
			row.UpdatedBy = &userName
		}
		// A pending debounced write would race the bulk write; drop it.
		if t, ok := c.timers[id]; ok {
			t.Stop()
			delete(c.timers, id)
		}
		writes = append(writes, write{id: id, waiting: row.WaitingHallQuantity, token: row.TokenQuantity})
	}
	c.mu.Unlock()

	var wg sync.WaitGroup
	errCh := make(chan string, len(writes))
	for _, w := range writes {
		wg.Add(1)
		go func(w write) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := c.writer.UpdateRowQuantities(ctx, w.id, w.waiting, w.token, userName); err != nil {
				errCh <- fmt.Sprintf("row %s: %v", w.id, err)
			}
		}(w)
	}
	wg.Wait()
	close(errCh)

	failed := 0
	for msg := range errCh {
		failed++
		res.Errors = append(res.Errors, msg)
	}
	res.Failed += failed
	res.Updated = len(writes) - failed
	return res
}

// Flush writes every pending debounced edit immediately.
func (c *SplitController) Flush(userName string) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.timers))
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.flushRow(id, userName)
	}
}

// Close flushes every pending debounced edit, then stops scheduling.
// Further mutations no longer schedule writes.
func (c *SplitController) Close() {
	type pending struct {
		id             string
		waiting, token int
		userName       string
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	var flush []pending
	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
		row, ok := c.rows[id]
		if !ok {
			continue
		}
		p := pending{id: id, waiting: row.WaitingHallQuantity, token: row.TokenQuantity}
		if row.UpdatedBy != nil {
			p.userName = *row.UpdatedBy
		}
		flush = append(flush, p)
	}
	c.mu.Unlock()

	for _, p := range flush {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := c.writer.UpdateRowQuantities(ctx, p.id, p.waiting, p.token, p.userName)
		cancel()
		if err != nil && c.OnWriteError != nil {
			c.OnWriteError(p.id, err)
		}
	}
}
