package postgres

import (
	"context"
	"fmt"

	"solana-fund-tracer/internal/domain"
	"solana-fund-tracer/internal/storage"
)

// EntityStore implements storage.EntityStore using PostgreSQL.
type EntityStore struct {
	pool *Pool
}

// NewEntityStore creates a new EntityStore.
func NewEntityStore(pool *Pool) *EntityStore {
	return &EntityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EntityStore = (*EntityStore)(nil)

// Insert adds an entity. Returns ErrDuplicateKey if the address exists.
func (s *EntityStore) Insert(ctx context.Context, e *domain.EntityRecord) error {
	if e == nil || e.Address == "" || !e.Category.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `INSERT INTO entities (address, name, category) VALUES ($1, $2, $3)`

	_, err := s.pool.Exec(ctx, query, e.Address, e.Name, string(e.Category))
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert entity: %w", err)
	}
	return nil
}

// GetByAddress retrieves an entity. Returns ErrNotFound if not exists.
func (s *EntityStore) GetByAddress(ctx context.Context, address string) (*domain.EntityRecord, error) {
	query := `SELECT address, name, category, created_at FROM entities WHERE address = $1`

	var e domain.EntityRecord
	var category string
	err := s.pool.QueryRow(ctx, query, address).Scan(&e.Address, &e.Name, &category, &e.CreatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get entity by address: %w", err)
	}
	e.Category = domain.EntityCategory(category)
	return &e, nil
}

// GetAll retrieves all entities, ordered by address.
func (s *EntityStore) GetAll(ctx context.Context) ([]*domain.EntityRecord, error) {
	query := `SELECT address, name, category, created_at FROM entities ORDER BY address ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all entities: %w", err)
	}
	defer rows.Close()

	var result []*domain.EntityRecord
	for rows.Next() {
		var e domain.EntityRecord
		var category string
		if err := rows.Scan(&e.Address, &e.Name, &category, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		e.Category = domain.EntityCategory(category)
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return result, nil
}
