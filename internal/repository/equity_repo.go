package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EquityRepository - интерфейс для работы с журналом справедливости.
// Записи только добавляются и читаются, операций изменения нет.
type EquityRepository interface {
	InsertEntry(ctx context.Context, tenderId, username string, action models.EquityAction, description string, metadata map[string]interface{}) error
	GetTenderLogs(ctx context.Context, tenderId string) ([]models.EquityLog, error)
}

// PostgresEquityRepository - реализация EquityRepository для базы данных.
type PostgresEquityRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresEquityRepository создает новый экземпляр PostgresEquityRepository.
func NewPostgresEquityRepository(db *pgxpool.Pool) *PostgresEquityRepository {
	return &PostgresEquityRepository{DB: db}
}

// InsertEntry добавляет запись журнала. Актор разрешается по username.
func (r *PostgresEquityRepository) InsertEntry(ctx context.Context, tenderId, username string, action models.EquityAction, description string, metadata map[string]interface{}) error {
	var metadataJSON []byte
	if len(metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(metadata)
		if err != nil {
			return err
		}
	}

	insertQuery := `
		INSERT INTO equity_log (id, tender_id, actor_id, action, description, metadata, created_at)
		VALUES ($1, $2, (SELECT id FROM employee WHERE username = $3), $4, $5, $6, $7)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		uuid.New().String(),
		tenderId,
		username,
		action,
		description,
		metadataJSON,
		time.Now().UTC())
	return err
}

// GetTenderLogs возвращает записи журнала по тендеру от новых к старым,
// каждая дополнена данными актора.
func (r *PostgresEquityRepository) GetTenderLogs(ctx context.Context, tenderId string) ([]models.EquityLog, error) {
	query := `
		SELECT el.id, el.tender_id, el.actor_id, el.action, el.description, el.metadata, el.created_at,
		       e.name, e.email
		FROM equity_log el
		JOIN employee e ON el.actor_id = e.id
		WHERE el.tender_id = $1
		ORDER BY el.created_at DESC, el.id DESC`

	rows, err := r.DB.Query(ctx, query, tenderId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.EquityLog
	for rows.Next() {
		var entry models.EquityLog
		var metadataJSON []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.TenderID,
			&entry.ActorID,
			&entry.Action,
			&entry.Description,
			&metadataJSON,
			&entry.CreatedAt,
			&entry.ActorName,
			&entry.ActorEmail); err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
