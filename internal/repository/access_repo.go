package repository

import (
	"context"
	"errors"

	"github.com/avdeenkov/procurement-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccessRepository разрешает актора запроса: существование пользователя,
// существование организации и роль пользователя в ней.
type AccessRepository interface {
	CheckUserExists(ctx context.Context, username string) (bool, error)
	CheckOrganizationExists(ctx context.Context, organizationId string) (bool, error)
	GetOrganizationRole(ctx context.Context, username, organizationId string) (models.OrgRole, error)
}

// PostgresAccessRepository - реализация AccessRepository для базы данных.
type PostgresAccessRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresAccessRepository создает новый экземпляр PostgresAccessRepository.
func NewPostgresAccessRepository(db *pgxpool.Pool) *PostgresAccessRepository {
	return &PostgresAccessRepository{DB: db}
}

// CheckUserExists проверяет, существует ли пользователь с указанным username.
func (r *PostgresAccessRepository) CheckUserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM employee WHERE username = $1)`
	err := r.DB.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CheckOrganizationExists проверяет, существует ли организация.
func (r *PostgresAccessRepository) CheckOrganizationExists(ctx context.Context, organizationId string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM organization WHERE id = $1)`
	err := r.DB.QueryRow(ctx, query, organizationId).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// GetOrganizationRole возвращает роль пользователя в организации.
// Если пользователь в организации не состоит, возвращается RoleNone.
func (r *PostgresAccessRepository) GetOrganizationRole(ctx context.Context, username, organizationId string) (models.OrgRole, error) {
	var role models.OrgRole
	query := `
		SELECT om.role
		FROM organization_member om
		JOIN employee e ON om.user_id = e.id
		WHERE e.username = $1 AND om.organization_id = $2`
	err := r.DB.QueryRow(ctx, query, username, organizationId).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.RoleNone, nil
	}
	if err != nil {
		return models.RoleNone, err
	}
	return role, nil
}
