package database

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrAlreadySeen is returned when a (feed, url) pair was recorded by a
// previous or concurrent run. The unique constraint is the dedup
// authority, not the in-memory seen set.
var ErrAlreadySeen = errors.New("url already seen")

// SeenURLRepository handles database operations for processed item URLs
type SeenURLRepository struct {
	db *DB
}

func NewSeenURLRepository(db *DB) *SeenURLRepository {
	return &SeenURLRepository{db: db}
}

// Insert records a URL as seen for a feed. Returns ErrAlreadySeen on a
// unique violation.
func (r *SeenURLRepository) Insert(feedID, url string) (string, error) {
	var id string
	err := r.db.QueryRow(`
		INSERT INTO seen_urls (feed_id, url)
		VALUES ($1, $2)
		RETURNING id
	`, feedID, url).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrAlreadySeen
		}
		return "", fmt.Errorf("failed to insert seen url: %w", err)
	}
	return id, nil
}

// ListURLs returns the set of every URL recorded across all feeds.
func (r *SeenURLRepository) ListURLs() (map[string]bool, error) {
	rows, err := r.db.Query("SELECT url FROM seen_urls")
	if err != nil {
		return nil, fmt.Errorf("failed to list seen urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("failed to scan seen url row: %w", err)
		}
		urls[url] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating seen url rows: %w", err)
	}

	return urls, nil
}

// GetCount returns the total number of seen URLs
func (r *SeenURLRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM seen_urls").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get seen url count: %w", err)
	}
	return count, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
