package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/wayfarer-ai/wayfarer/internal/pipeline"
)

// Journal is an append-only record of completed planning runs. The engine
// itself never reads it; it exists so finished itineraries survive the
// process.
type Journal struct {
	DB *sql.DB
}

func Open(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	query := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		origin TEXT,
		destination TEXT,
		start_date TEXT,
		end_date TEXT,
		itinerary TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.Exec(query); err != nil {
		return nil, fmt.Errorf("failed to create runs table: %w", err)
	}

	return &Journal{DB: db}, nil
}

func (j *Journal) Record(run *pipeline.Run) error {
	query := `INSERT INTO runs (id, origin, destination, start_date, end_date, itinerary) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := j.DB.Exec(query,
		run.ID,
		run.Request.Origin,
		run.Destination,
		run.Request.StartDate,
		run.Request.EndDate,
		run.Itinerary,
	)
	return err
}

// Entry is one journaled run.
type Entry struct {
	ID          string
	Origin      string
	Destination string
	StartDate   string
	EndDate     string
	Itinerary   string
	CreatedAt   time.Time
}

func (j *Journal) Recent(limit int) ([]Entry, error) {
	query := `SELECT id, origin, destination, start_date, end_date, itinerary, created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`
	rows, err := j.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Origin, &e.Destination, &e.StartDate, &e.EndDate, &e.Itinerary, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (j *Journal) Close() error {
	return j.DB.Close()
}
