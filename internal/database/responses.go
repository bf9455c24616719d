package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// storedAtLayout is fixed-width so stored_at sorts lexically in time order.
const storedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// GetResponse returns the cached response for url, or nil when absent.
func (db *DB) GetResponse(url string) (*CachedResponse, error) {
	row := db.conn.QueryRow(
		"SELECT url, status_code, header, body, stored_at FROM http_responses WHERE url = ?", url,
	)

	var (
		r        CachedResponse
		header   string
		storedAt string
	)
	if err := row.Scan(&r.URL, &r.StatusCode, &header, &r.Body, &storedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	r.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &r.Header); err != nil {
		return nil, fmt.Errorf("decoding cached header for %s: %w", url, err)
	}
	t, err := time.Parse(storedAtLayout, storedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding cached timestamp for %s: %w", url, err)
	}
	r.StoredAt = t
	return &r, nil
}

// PutResponse inserts or replaces the cached response for r.URL.
func (db *DB) PutResponse(r *CachedResponse) error {
	header, err := json.Marshal(r.Header)
	if err != nil {
		return fmt.Errorf("encoding header: %w", err)
	}
	body := r.Body
	if body == nil {
		body = []byte{}
	}

	_, err = db.conn.Exec(
		`INSERT OR REPLACE INTO http_responses (url, status_code, header, body, stored_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.URL, r.StatusCode, string(header), body, r.StoredAt.UTC().Format(storedAtLayout),
	)
	return err
}

// DeleteResponsesBefore removes entries stored before cutoff and returns how many were removed.
func (db *DB) DeleteResponsesBefore(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(
		"DELETE FROM http_responses WHERE stored_at < ?", cutoff.UTC().Format(storedAtLayout),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ClearResponses removes every cached response.
func (db *DB) ClearResponses() (int64, error) {
	result, err := db.conn.Exec("DELETE FROM http_responses")
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// GetStats returns entry count, total body size and the age range of the cache.
func (db *DB) GetStats() (*Stats, error) {
	var (
		s              Stats
		oldest, newest sql.NullString
	)
	err := db.conn.QueryRow(
		"SELECT COUNT(*), COALESCE(SUM(LENGTH(body)), 0), MIN(stored_at), MAX(stored_at) FROM http_responses",
	).Scan(&s.Entries, &s.BodyBytes, &oldest, &newest)
	if err != nil {
		return nil, err
	}

	if oldest.Valid {
		if t, err := time.Parse(storedAtLayout, oldest.String); err == nil {
			s.Oldest = &t
		}
	}
	if newest.Valid {
		if t, err := time.Parse(storedAtLayout, newest.String); err == nil {
			s.Newest = &t
		}
	}
	return &s, nil
}
