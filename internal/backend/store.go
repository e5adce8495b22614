package backend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"simple-mercari-web/internal/api"
)

var ErrItemNotFound = errors.New("item not found")

const schema = `CREATE TABLE IF NOT EXISTS items (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	image_name TEXT NOT NULL
)`

// Store keeps items in a sqlite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenStore(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// a second connection to ":memory:" would see a different database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Add(ctx context.Context, item api.Item) (api.Item, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO items (name, category, image_name) VALUES (?, ?, ?)",
		item.Name, item.Category, item.ImageName)
	if err != nil {
		return api.Item{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return api.Item{}, err
	}
	item.ID = int(id)
	return item, nil
}

func (s *Store) List(ctx context.Context) ([]api.Item, error) {
	return s.query(ctx, "SELECT id, name, category, image_name FROM items ORDER BY id")
}

func (s *Store) Get(ctx context.Context, id int) (api.Item, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, name, category, image_name FROM items WHERE id = ?", id)
	var item api.Item
	if err := row.Scan(&item.ID, &item.Name, &item.Category, &item.ImageName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.Item{}, ErrItemNotFound
		}
		return api.Item{}, err
	}
	return item, nil
}

// Search returns items whose name contains keyword.
func (s *Store) Search(ctx context.Context, keyword string) ([]api.Item, error) {
	return s.query(ctx,
		"SELECT id, name, category, image_name FROM items WHERE name LIKE ? ORDER BY id",
		"%"+keyword+"%")
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]api.Item, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []api.Item{}
	for rows.Next() {
		var item api.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.ImageName); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
