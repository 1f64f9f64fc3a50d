package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SavedSearchRepository - интерфейс для работы с сохраненными поисками.
type SavedSearchRepository interface {
	CreateSavedSearch(ctx context.Context, username string, criteria models.SavedSearchCriteria) (*models.SavedSearch, error)
	GetUserSavedSearches(ctx context.Context, username string) ([]models.SavedSearch, error)
	ListSavedSearches(ctx context.Context) ([]models.SavedSearch, error)
	DeleteSavedSearch(ctx context.Context, searchId, username string) error
}

// PostgresSavedSearchRepository - реализация SavedSearchRepository для базы данных.
type PostgresSavedSearchRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresSavedSearchRepository создает новый экземпляр PostgresSavedSearchRepository.
func NewPostgresSavedSearchRepository(db *pgxpool.Pool) *PostgresSavedSearchRepository {
	return &PostgresSavedSearchRepository{DB: db}
}

// CreateSavedSearch сохраняет критерии поиска пользователя.
func (r *PostgresSavedSearchRepository) CreateSavedSearch(ctx context.Context, username string, criteria models.SavedSearchCriteria) (*models.SavedSearch, error) {
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return nil, err
	}

	newSearch := models.SavedSearch{
		ID:        uuid.New().String(),
		Username:  username,
		Criteria:  criteria,
		CreatedAt: time.Now().UTC(),
	}
	insertQuery := `INSERT INTO saved_search (id, username, criteria, created_at) VALUES ($1, $2, $3, $4)`
	_, err = r.DB.Exec(ctx, insertQuery, newSearch.ID, newSearch.Username, criteriaJSON, newSearch.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &newSearch, nil
}

// GetUserSavedSearches возвращает сохраненные поиски пользователя.
func (r *PostgresSavedSearchRepository) GetUserSavedSearches(ctx context.Context, username string) ([]models.SavedSearch, error) {
	query := `SELECT id, username, criteria, created_at FROM saved_search WHERE username = $1 ORDER BY created_at DESC`
	return r.querySearches(ctx, query, username)
}

// ListSavedSearches возвращает все сохраненные поиски для обхода рассылкой.
func (r *PostgresSavedSearchRepository) ListSavedSearches(ctx context.Context) ([]models.SavedSearch, error) {
	query := `SELECT id, username, criteria, created_at FROM saved_search ORDER BY created_at`
	return r.querySearches(ctx, query)
}

// DeleteSavedSearch удаляет сохраненный поиск пользователя.
// Возвращает pgx.ErrNoRows, если поиска нет или он принадлежит другому пользователю.
func (r *PostgresSavedSearchRepository) DeleteSavedSearch(ctx context.Context, searchId, username string) error {
	deleteQuery := `DELETE FROM saved_search WHERE id = $1 AND username = $2`
	tag, err := r.DB.Exec(ctx, deleteQuery, searchId, username)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *PostgresSavedSearchRepository) querySearches(ctx context.Context, query string, args ...interface{}) ([]models.SavedSearch, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var searches []models.SavedSearch
	for rows.Next() {
		var search models.SavedSearch
		var criteriaJSON []byte
		if err := rows.Scan(&search.ID, &search.Username, &criteriaJSON, &search.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(criteriaJSON, &search.Criteria); err != nil {
			return nil, err
		}
		searches = append(searches, search)
	}
	return searches, rows.Err()
}
