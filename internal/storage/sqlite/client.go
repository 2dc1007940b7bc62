package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/healthnet/backend/internal/storage/models"
	"github.com/healthnet/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recommendation_history (
		id TEXT PRIMARY KEY,
		query_text TEXT NOT NULL,
		user_latitude REAL NOT NULL,
		user_longitude REAL NOT NULL,
		conditions TEXT,
		specialties TEXT,
		query_location TEXT,
		max_severity INTEGER,
		top_hospital TEXT,
		hospitals_count INTEGER,
		cache_hit INTEGER DEFAULT 0,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_recommendation_created ON recommendation_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_recommendation_hospital ON recommendation_history(top_hospital);

	CREATE TABLE IF NOT EXISTS recommended_hospitals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recommendation_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		hospital_id INTEGER NOT NULL,
		hospital_name TEXT NOT NULL,
		FOREIGN KEY (recommendation_id) REFERENCES recommendation_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_recommended_hospitals_rec ON recommended_hospitals(recommendation_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recommendation_id TEXT NOT NULL,
		helpful INTEGER NOT NULL,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (recommendation_id) REFERENCES recommendation_history(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_rec ON feedback(recommendation_id);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertRecommendationRecord(record *models.RecommendationRecord) error {
	query := `
		INSERT INTO recommendation_history
			(id, query_text, user_latitude, user_longitude, conditions, specialties,
			 query_location, max_severity, top_hospital, hospitals_count, cache_hit,
			 latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	cacheHit := 0
	if record.CacheHit {
		cacheHit = 1
	}

	_, err := c.db.Exec(
		query,
		record.ID,
		record.QueryText,
		record.UserLatitude,
		record.UserLongitude,
		strings.Join(record.Conditions, "; "),
		strings.Join(record.Specialties, "; "),
		record.QueryLocation,
		record.MaxSeverity,
		record.TopHospital,
		record.HospitalsCount,
		cacheHit,
		record.LatencyMS,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert recommendation record: %w", err)
	}

	logger.Debug("Recommendation recorded", zap.String("recommendation_id", record.ID))
	return nil
}

func (c *Client) InsertRecommendedHospital(entry *models.RecommendedHospital) error {
	query := `INSERT INTO recommended_hospitals (recommendation_id, position, hospital_id, hospital_name) VALUES (?, ?, ?, ?)`

	_, err := c.db.Exec(query, entry.RecommendationID, entry.Rank, entry.HospitalID, entry.HospitalName)
	if err != nil {
		return fmt.Errorf("failed to insert recommended hospital: %w", err)
	}

	return nil
}

func (c *Client) InsertFeedback(fb *models.Feedback) error {
	query := `INSERT INTO feedback (recommendation_id, helpful, comment, created_at) VALUES (?, ?, ?, ?)`

	helpful := 0
	if fb.Helpful {
		helpful = 1
	}

	_, err := c.db.Exec(query, fb.RecommendationID, helpful, fb.Comment, fb.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}

	return nil
}

func (c *Client) GetRecentRecommendations(limit int) ([]models.RecommendationRecord, error) {
	query := `
		SELECT id, query_text, user_latitude, user_longitude, conditions, specialties,
		       query_location, max_severity, top_hospital, hospitals_count, cache_hit,
		       latency_ms, created_at
		FROM recommendation_history
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendation history: %w", err)
	}
	defer rows.Close()

	records := make([]models.RecommendationRecord, 0)
	for rows.Next() {
		var record models.RecommendationRecord
		var conditions, specialties string
		var cacheHit int
		var createdAt int64

		err := rows.Scan(
			&record.ID,
			&record.QueryText,
			&record.UserLatitude,
			&record.UserLongitude,
			&conditions,
			&specialties,
			&record.QueryLocation,
			&record.MaxSeverity,
			&record.TopHospital,
			&record.HospitalsCount,
			&cacheHit,
			&record.LatencyMS,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation record: %w", err)
		}

		record.Conditions = splitList(conditions)
		record.Specialties = splitList(specialties)
		record.CacheHit = cacheHit != 0
		record.CreatedAt = time.Unix(createdAt, 0)

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recommendation history: %w", err)
	}

	return records, nil
}

func splitList(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "; ")
}
