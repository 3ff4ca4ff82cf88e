package allocation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SevaDeskSaas/internal/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists seat allocation rows keyed by session name plus row id.
// Replace-all is delete-then-insert: a failure during the chunked insert
// phase leaves the session partially replaced, which is a documented
// property of the design, not a bug to retry around.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const fetchColumns = `
	id, session_name, source_file_name,
	application_number, beneficiary_name, requested_item, quantity,
	beneficiary_type, item_type, comments, district,
	waiting_hall_quantity, token_quantity,
	master_row, master_headers, sort_order,
	created_by, updated_by, created_at, updated_at`

// FetchRows returns every row of a session in deterministic display order:
// original import order first, then district, item and application number.
func (s *Store) FetchRows(ctx context.Context, sessionName string) ([]SeatAllocationRow, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM seat_allocation_rows
		WHERE session_name = $1
		ORDER BY sort_order ASC NULLS LAST, district ASC, requested_item ASC, application_number ASC`,
		fetchColumns)

	rows, err := s.pool.Query(ctx, query, sessionName)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch", Err: err}
	}
	defer rows.Close()

	results := make([]SeatAllocationRow, 0)
	for rows.Next() {
		var (
			it          SeatAllocationRow
			masterJSON  []byte
			headersJSON []byte
		)
		if err := rows.Scan(
			&it.ID, &it.SessionName, &it.SourceFileName,
			&it.ApplicationNumber, &it.BeneficiaryName, &it.RequestedItem, &it.Quantity,
			&it.BeneficiaryType, &it.ItemType, &it.Comments, &it.District,
			&it.WaitingHallQuantity, &it.TokenQuantity,
			&masterJSON, &headersJSON, &it.SortOrder,
			&it.CreatedBy, &it.UpdatedBy, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, &PersistenceError{Op: "fetch scan", Err: err}
		}
		if err := json.Unmarshal(masterJSON, &it.MasterRow); err != nil {
			return nil, &PersistenceError{Op: "fetch master_row decode", Err: err}
		}
		if err := json.Unmarshal(headersJSON, &it.MasterHeaders); err != nil {
			return nil, &PersistenceError{Op: "fetch master_headers decode", Err: err}
		}
		results = append(results, it)
	}
	if rows.Err() != nil {
		return nil, &PersistenceError{Op: "fetch", Err: rows.Err()}
	}
	return results, nil
}

// ReplaceSessionRows hard-deletes the session's rows, then inserts the new
// set in chunks, then re-reads the store so server-assigned ids and
// timestamps are authoritative. A delete failure aborts before any insert.
func (s *Store) ReplaceSessionRows(ctx context.Context, sessionName, sourceFileName, userName string, uploadRows []SeatAllocationUploadRow) ([]SeatAllocationRow, error) {
	if _, err := s.pool.Exec(ctx, `DELETE FROM seat_allocation_rows WHERE session_name = $1`, sessionName); err != nil {
		return nil, &PersistenceError{Op: "replace delete", Err: err}
	}

	insertSQL := `
		INSERT INTO seat_allocation_rows
			(id, session_name, source_file_name,
			 application_number, beneficiary_name, requested_item, quantity,
			 beneficiary_type, item_type, comments, district,
			 waiting_hall_quantity, token_quantity,
			 master_row, master_headers, sort_order, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	for start := 0; start < len(uploadRows); start += config.ReplaceChunkSize {
		end := start + config.ReplaceChunkSize
		if end > len(uploadRows) {
			end = len(uploadRows)
		}
		chunk := uploadRows[start:end]

		batch := &pgx.Batch{}
		for _, row := range chunk {
			masterJSON, err := json.Marshal(row.MasterRow)
			if err != nil {
				return nil, &PersistenceError{Op: "replace master_row encode", Err: err}
			}
			headersJSON, err := json.Marshal(row.MasterHeaders)
			if err != nil {
				return nil, &PersistenceError{Op: "replace master_headers encode", Err: err}
			}
			batch.Queue(insertSQL,
				uuid.New().String(), sessionName, sourceFileName,
				row.ApplicationNumber, row.BeneficiaryName, row.RequestedItem, row.Quantity,
				row.BeneficiaryType, row.ItemType, row.Comments, row.District,
				row.WaitingHallQuantity, row.TokenQuantity,
				masterJSON, headersJSON, row.SortOrder, userName)
		}

		br := s.pool.SendBatch(ctx, batch)
		var firstErr error
		for i := 0; i < len(chunk); i++ {
			if _, err := br.Exec(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("row %d of chunk at offset %d: %w", i+1, start, err)
			}
		}
		br.Close()
		if firstErr != nil {
			return nil, &PersistenceError{Op: "replace insert", Err: firstErr}
		}
	}

	return s.FetchRows(ctx, sessionName)
}

// UpdateRowQuantities writes one row's split. The caller has already
// enforced the sum invariant; the WHERE clause only guards the id.
func (s *Store) UpdateRowQuantities(ctx context.Context, id string, waiting, token int, userName string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE seat_allocation_rows
		SET waiting_hall_quantity = $1, token_quantity = $2, updated_by = $3, updated_at = now()
		WHERE id = $4`,
		waiting, token, userName, id)
	if err != nil {
		return &PersistenceError{Op: "update quantities", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return &PersistenceError{Op: "update quantities", Err: fmt.Errorf("row %s not found", id)}
	}
	return nil
}

// LatestSession returns the most recently imported session name.
func (s *Store) LatestSession(ctx context.Context) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx, `
		SELECT session_name
		FROM seat_allocation_rows
		GROUP BY session_name
		ORDER BY max(created_at) DESC
		LIMIT 1`).Scan(&name)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", &PersistenceError{Op: "latest session", Err: err}
	}
	return name, nil
}

// PurgeStaleSessions removes sessions with no activity inside the retention
// window. Run from the nightly retention job.
func (s *Store) PurgeStaleSessions(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM seat_allocation_rows
		WHERE session_name IN (
			SELECT session_name
			FROM seat_allocation_rows
			GROUP BY session_name
			HAVING max(greatest(created_at, coalesce(updated_at, created_at))) < $1
		)`, cutoff)
	if err != nil {
		return 0, &PersistenceError{Op: "purge stale sessions", Err: err}
	}
	return tag.RowsAffected(), nil
}
