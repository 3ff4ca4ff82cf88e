package allocation

import (
	"context"
	"log"
	"sync"
	"time"

	"SevaDeskSaas/internal/config"
	"SevaDeskSaas/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Manager ties the import pipeline, the store and the per-session split
// controllers together. One controller per session name; the merge audit of
// the latest import is held in memory only and discarded on the next import
// of that session.
type Manager struct {
	store  *Store
	engine *MergeEngine

	mu          sync.Mutex
	controllers map[string]*SplitController
	lastAudit   map[string][]MergedAuditRow

	debounce time.Duration
}

func NewManager(pool *pgxpool.Pool) *Manager {
	return &Manager{
		store:       NewStore(pool),
		engine:      NewMergeEngine(),
		controllers: make(map[string]*SplitController),
		lastAudit:   make(map[string][]MergedAuditRow),
		debounce:    config.SplitDebounceDelay,
	}
}

// Controller returns the session's split controller, loading the row set
// from the store on first access.
func (m *Manager) Controller(ctx context.Context, sessionName string) (*SplitController, error) {
	m.mu.Lock()
	if c, ok := m.controllers[sessionName]; ok {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	rows, err := m.store.FetchRows(ctx, sessionName)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[sessionName]; ok {
		return c, nil
	}
	c := NewSplitController(m.store, m.debounce)
	c.OnWriteError = func(id string, err error) {
		log.Printf("[ERROR] debounced split write failed for row %s: %v", id, err)
	}
	c.Load(rows)
	m.controllers[sessionName] = c
	return c, nil
}

// Import runs decode output through normalize, merge and replace-all, then
// reloads the session controller with the authoritative re-read rows.
// All fatal validation happens before the first store call.
func (m *Manager) Import(ctx context.Context, sessionName, sourceFileName, userName string, cells [][]string) ([]SeatAllocationRow, []MergedAuditRow, []string, error) {
	records, headers, err := Normalize(cells)
	if err != nil {
		return nil, nil, nil, err
	}

	result, err := m.engine.Merge(records, headers)
	if err != nil {
		return nil, nil, nil, err
	}

	rows, err := m.store.ReplaceSessionRows(ctx, sessionName, sourceFileName, userName, result.Rows)
	if err != nil {
		return nil, nil, nil, err
	}

	c, err := m.Controller(ctx, sessionName)
	if err != nil {
		return nil, nil, nil, err
	}
	c.Load(rows)

	m.mu.Lock()
	m.lastAudit[sessionName] = result.Audit
	m.mu.Unlock()

	if logger.GlobalLogger != nil {
		logger.GlobalLogger.LogAudit("Session " + sessionName + " replaced from " + sourceFileName + " by " + userName)
	}
	return rows, result.Audit, result.Warnings, nil
}

// Refresh re-reads a session from the store and reloads its controller.
func (m *Manager) Refresh(ctx context.Context, sessionName string) ([]SeatAllocationRow, error) {
	rows, err := m.store.FetchRows(ctx, sessionName)
	if err != nil {
		return nil, err
	}
	c, err := m.Controller(ctx, sessionName)
	if err != nil {
		return nil, err
	}
	c.Load(rows)
	return rows, nil
}

// LastAudit returns the merge audit of the latest import for the session.
func (m *Manager) LastAudit(sessionName string) []MergedAuditRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastAudit[sessionName]
}

// Store exposes the underlying store for jobs and session lookups.
func (m *Manager) Store() *Store { return m.store }

// Close flushes and shuts down every session controller.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.controllers {
		c.Close()
	}
}
