package database

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ResultRepository handles database operations for processed article
// results
type ResultRepository struct {
	db *DB
}

func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// Insert creates a result record and returns its id. The id is
// generated client-side so a record can be referenced before the
// insert completes.
func (r *ResultRepository) Insert(result *Result) (string, error) {
	id := uuid.NewString()

	publishResults := result.PublishResults
	if publishResults == nil {
		publishResults = json.RawMessage("[]")
	}

	_, err := r.db.Exec(`
		INSERT INTO results (id, feed_id, item_url, title, markdown, publish_results, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, result.FeedID, result.ItemURL, result.Title, result.Markdown,
		[]byte(publishResults), result.Status, result.Error)
	if err != nil {
		return "", fmt.Errorf("failed to insert result: %w", err)
	}

	return id, nil
}

// UpdateOutcome records the final state of a result after the publish
// step.
func (r *ResultRepository) UpdateOutcome(id string, markdown string, publishResults json.RawMessage, status, errorMsg string) error {
	if publishResults == nil {
		publishResults = json.RawMessage("[]")
	}

	_, err := r.db.Exec(`
		UPDATE results
		SET markdown = $2, publish_results = $3, status = $4, error = $5, updated_at = NOW()
		WHERE id = $1
	`, id, markdown, []byte(publishResults), status, errorMsg)
	if err != nil {
		return fmt.Errorf("failed to update result: %w", err)
	}
	return nil
}

// List returns the most recent results joined with their source feed
// URL.
func (r *ResultRepository) List(limit int) ([]ResultWithFeed, error) {
	rows, err := r.db.Query(`
		SELECT r.id, r.feed_id, r.item_url, r.title, r.markdown,
		       r.publish_results, r.status, r.error, r.created_at, r.updated_at,
		       COALESCE(f.feed_url, '')
		FROM results r
		LEFT JOIN feeds f ON f.id = r.feed_id
		ORDER BY r.created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var results []ResultWithFeed
	for rows.Next() {
		var res ResultWithFeed
		var publishResults []byte
		err := rows.Scan(
			&res.ID, &res.FeedID, &res.ItemURL, &res.Title, &res.Markdown,
			&publishResults, &res.Status, &res.Error, &res.CreatedAt, &res.UpdatedAt,
			&res.FeedURL,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		res.PublishResults = json.RawMessage(publishResults)
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}

	return results, nil
}

// GetCount returns the total number of results
func (r *ResultRepository) GetCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM results").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get result count: %w", err)
	}
	return count, nil
}
