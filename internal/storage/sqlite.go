package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vedsharma/momentscli/internal/model"

	_ "modernc.org/sqlite"
)

const (
	dbFile = "momentscli.db"

	// DefaultLimit is the number of executions kept
	DefaultLimit = 100

	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// parseJSONHeaders safely parses JSON headers, returning an empty map on error
func parseJSONHeaders(jsonStr string) (map[string]string, error) {
	if jsonStr == "" {
		return make(map[string]string), nil
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &headers); err != nil {
		return make(map[string]string), fmt.Errorf("failed to parse headers JSON: %w", err)
	}

	if headers == nil {
		headers = make(map[string]string)
	}
	return headers, nil
}

// ensureSecureFile creates the file with owner-only permissions, or fixes the
// permissions of an existing one, before sqlite opens it
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		return f.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}

// SQLiteStorage keeps the execution history
type SQLiteStorage struct {
	db    *sql.DB
	limit int
}

// NewStorage opens the history in ~/.momentscli
func NewStorage(limit int) (*SQLiteStorage, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewStorageAt(filepath.Join(homeDir, ".momentscli"), limit)
}

// NewStorageAt opens the history in dataDir. A limit of zero means DefaultLimit.
func NewStorageAt(dataDir string, limit int) (*SQLiteStorage, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFile)
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db, limit: limit}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		endpoint_id TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		headers TEXT DEFAULT '{}',
		body TEXT DEFAULT '',
		response_status INTEGER,
		response_status_text TEXT,
		response_headers TEXT,
		response_data TEXT,
		response_elapsed_ms INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

const selectHistory = `
	SELECT id, timestamp, endpoint_id, method, url, headers, body,
	       response_status, response_status_text, response_headers,
	       response_data, response_elapsed_ms
	FROM history`

type scanner interface {
	Scan(dest ...any) error
}

func scanRequest(row scanner) (model.Request, error) {
	var req model.Request
	var headersJSON string
	var respStatus, respElapsed sql.NullInt64
	var respText, respHeaders, respData sql.NullString

	err := row.Scan(
		&req.ID, &req.Timestamp, &req.EndpointID, &req.Method, &req.URL,
		&headersJSON, &req.Body,
		&respStatus, &respText, &respHeaders,
		&respData, &respElapsed,
	)
	if err != nil {
		return req, err
	}

	// Malformed headers degrade to an empty map
	req.Headers, _ = parseJSONHeaders(headersJSON)

	if respStatus.Valid {
		req.Response = &model.Response{
			Status:     int(respStatus.Int64),
			StatusText: respText.String,
			ElapsedMs:  respElapsed.Int64,
		}
		req.Response.Headers, _ = parseJSONHeaders(respHeaders.String)
		if respData.Valid && respData.String != "" {
			var data any
			if json.Unmarshal([]byte(respData.String), &data) == nil {
				req.Response.Data = data
			} else {
				req.Response.Data = respData.String
			}
		}
	}
	return req, nil
}

// LoadHistory returns the stored executions, newest first
func (s *SQLiteStorage) LoadHistory() ([]model.Request, error) {
	rows, err := s.db.Query(selectHistory+` ORDER BY timestamp DESC LIMIT ?`, s.limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := []model.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// AddToHistory stores req and drops the oldest entries beyond the limit
func (s *SQLiteStorage) AddToHistory(req model.Request) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertHistoryRequest(tx, req); err != nil {
		return err
	}

	_, err = tx.Exec(`
		DELETE FROM history
		WHERE id NOT IN (
			SELECT id FROM history ORDER BY timestamp DESC LIMIT ?
		)`, s.limit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func insertHistoryRequest(tx *sql.Tx, req model.Request) error {
	headersJSON, err := json.Marshal(req.Headers)
	if err != nil {
		return err
	}

	var respStatus, respElapsed sql.NullInt64
	var respText, respHeaders, respData sql.NullString

	if req.Response != nil {
		respStatus = sql.NullInt64{Int64: int64(req.Response.Status), Valid: true}
		respText = sql.NullString{String: req.Response.StatusText, Valid: true}
		respHeadersJSON, err := json.Marshal(req.Response.Headers)
		if err != nil {
			return err
		}
		respHeaders = sql.NullString{String: string(respHeadersJSON), Valid: true}
		data, err := json.Marshal(req.Response.Data)
		if err != nil {
			return fmt.Errorf("failed to encode response data: %w", err)
		}
		respData = sql.NullString{String: string(data), Valid: true}
		respElapsed = sql.NullInt64{Int64: req.Response.ElapsedMs, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO history (
			id, timestamp, endpoint_id, method, url, headers, body,
			response_status, response_status_text, response_headers,
			response_data, response_elapsed_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.Timestamp, req.EndpointID, req.Method, req.URL, string(headersJSON), req.Body,
		respStatus, respText, respHeaders, respData, respElapsed,
	)
	return err
}

// ClearHistory clears all history
func (s *SQLiteStorage) ClearHistory() error {
	_, err := s.db.Exec("DELETE FROM history")
	return err
}

// GetHistoryRequest returns the execution with the given id, or nil
func (s *SQLiteStorage) GetHistoryRequest(id string) (*model.Request, error) {
	req, err := scanRequest(s.db.QueryRow(selectHistory+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}
