package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

type Store struct {
	db *sql.DB
	mu sync.Mutex
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	// Optimize for write throughput
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-64000",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createSchema(db); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS businesses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		search_term TEXT NOT NULL,
		rank INTEGER NOT NULL,
		name TEXT NOT NULL,
		rating REAL,
		review_count INTEGER,
		reviews_text TEXT,
		address TEXT,
		link TEXT,
		lat REAL,
		lng REAL,
		search_location TEXT,
		distance_km REAL,
		composite_score REAL,
		tier TEXT,
		quality_indicators TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(session_id, name, address)
	);
	CREATE INDEX IF NOT EXISTS idx_businesses_session ON businesses(session_id);
	CREATE INDEX IF NOT EXISTS idx_businesses_term ON businesses(search_term);
	CREATE INDEX IF NOT EXISTS idx_businesses_score ON businesses(composite_score);
	`
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// InsertBatch persists one session's ranked results. Re-running the
// same session is a no-op thanks to the unique constraint.
func (s *Store) InsertBatch(sessionID, searchTerm string, businesses []model.Business) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning tx: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO businesses
		(session_id, search_term, rank, name, rating, review_count, reviews_text,
		 address, link, lat, lng, search_location, distance_km,
		 composite_score, tier, quality_indicators)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing stmt: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, b := range businesses {
		res, err := stmt.Exec(
			sessionID, searchTerm, b.Rank, b.Name, b.Rating, b.ReviewCount, b.ReviewsText,
			b.Address, b.Link, b.Lat, b.Lng, b.SearchLocation, b.DistanceKm,
			b.CompositeScore, b.Tier, strings.Join(b.QualityIndicators, ","),
		)
		if err != nil {
			continue
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing tx: %w", err)
	}

	return inserted, nil
}

// LoadByTerm returns the most recent session's results for a search
// term, best score first.
func (s *Store) LoadByTerm(searchTerm string) ([]model.Business, error) {
	rows, err := s.db.Query(`
		SELECT rank, name, rating, review_count, reviews_text, address, link,
		       lat, lng, search_location, distance_km, composite_score, tier, quality_indicators
		FROM businesses
		WHERE search_term = ?
		  AND session_id = (
			SELECT session_id FROM businesses
			WHERE search_term = ?
			ORDER BY id DESC LIMIT 1
		  )
		ORDER BY rank ASC
	`, searchTerm, searchTerm)
	if err != nil {
		return nil, fmt.Errorf("querying businesses: %w", err)
	}
	defer rows.Close()

	var out []model.Business
	for rows.Next() {
		var b model.Business
		var indicators string
		if err := rows.Scan(
			&b.Rank, &b.Name, &b.Rating, &b.ReviewCount, &b.ReviewsText, &b.Address, &b.Link,
			&b.Lat, &b.Lng, &b.SearchLocation, &b.DistanceKm, &b.CompositeScore, &b.Tier, &indicators,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if indicators != "" {
			b.QualityIndicators = strings.Split(indicators, ",")
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Sessions lists the stored session IDs for a term, newest first.
func (s *Store) Sessions(searchTerm string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT session_id FROM businesses
		WHERE search_term = ?
		GROUP BY session_id
		ORDER BY MAX(id) DESC
	`, searchTerm)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM businesses").Scan(&count)
	return count, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
