package database

import (
	"database/sql"
	"fmt"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

// ResolveFeed returns the feed record for a URL, creating it on first
// sight.
func (r *FeedRepository) ResolveFeed(feedURL string) (*Feed, error) {
	feed, err := r.getByURL(feedURL)
	if err != nil {
		return nil, err
	}
	if feed != nil {
		return feed, nil
	}

	var created Feed
	err = r.db.QueryRow(`
		INSERT INTO feeds (feed_url)
		VALUES ($1)
		RETURNING id, feed_url, title, created_at, updated_at
	`, feedURL).Scan(&created.ID, &created.FeedURL, &created.Title, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert feed: %w", err)
	}

	return &created, nil
}

// UpdateFeedTitle records the feed's title once a parse succeeds.
func (r *FeedRepository) UpdateFeedTitle(feedID, title string) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET title = $2, updated_at = NOW()
		WHERE id = $1
	`, feedID, title)
	if err != nil {
		return fmt.Errorf("failed to update feed title: %w", err)
	}
	return nil
}

// GetFeedCount returns the total number of registered feeds
func (r *FeedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}

func (r *FeedRepository) getByURL(feedURL string) (*Feed, error) {
	var feed Feed
	err := r.db.QueryRow(`
		SELECT id, feed_url, title, created_at, updated_at
		FROM feeds
		WHERE feed_url = $1
	`, feedURL).Scan(&feed.ID, &feed.FeedURL, &feed.Title, &feed.CreatedAt, &feed.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by url: %w", err)
	}
	return &feed, nil
}
