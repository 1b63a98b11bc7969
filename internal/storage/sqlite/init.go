package sqlite

import (
	"database/sql"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// InitDB initializes the SQLite database and creates the enqueues table if it doesn't exist.
func InitDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS enqueues (
		id INTEGER PRIMARY KEY,
		course_id INTEGER,
		lecture_id INTEGER,
		filename TEXT,
		outcome TEXT,
		created_at DATETIME,
		UNIQUE(course_id, filename)
	)`)

	if err != nil {
		return nil, err
	}

	return db, nil
}
