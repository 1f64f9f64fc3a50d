package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

// TenderRepository - интерфейс для работы с тендерами.
type TenderRepository interface {
	CreateTender(ctx context.Context, tenderReq models.TenderRequest) (*models.Tender, error)
	GetTenderByID(ctx context.Context, tenderId string) (*models.Tender, error)
	GetTenders(ctx context.Context, limit, offset int, marketTypes []string) ([]models.Tender, error)
	GetUserTenders(ctx context.Context, limit, offset int, username string) ([]models.Tender, error)
	EditTender(ctx context.Context, tenderId string, updateFields map[string]interface{}) (*models.Tender, error)
	PublishTender(ctx context.Context, tenderId string, publishedAt time.Time) (*models.Tender, error)
	CloseTender(ctx context.Context, tenderId string) (*models.Tender, error)
	RevealIdentity(ctx context.Context, tenderId string, revealedAt time.Time) (*models.Tender, error)
	ListExpiredPublished(ctx context.Context, now time.Time) ([]models.Tender, error)
	ListPublishedSince(ctx context.Context, since time.Time) ([]models.Tender, error)
}

// Колонки тендера в порядке сканирования; org_type подтягивается join-ом
// для матчера сохраненных поисков.
const tenderColumns = `t.id, t.title, t.description, t.status, t.mode, t.procedure_type, t.market_type,
       t.budget, t.canton, t.city, t.organization_id, o.org_type, t.lots, t.criteria,
       t.identity_revealed, t.revealed_at, t.deadline, t.version, t.created_at, t.published_at, t.creator_username`

const tenderFrom = ` FROM tender t JOIN organization o ON t.organization_id = o.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTender(row rowScanner) (*models.Tender, error) {
	var t models.Tender
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Mode,
		&t.ProcedureType,
		&t.MarketType,
		&t.Budget,
		&t.Canton,
		&t.City,
		&t.OrganizationID,
		&t.OrganizationType,
		&t.Lots,
		&t.Criteria,
		&t.IdentityRevealed,
		&t.RevealedAt,
		&t.Deadline,
		&t.Version,
		&t.CreatedAt,
		&t.PublishedAt,
		&t.CreatorUsername,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// PostgresTenderRepository - реализация TenderRepository для базы данных.
type PostgresTenderRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresTenderRepository создаёт новый экземпляр PostgresTenderRepository.
func NewPostgresTenderRepository(db *pgxpool.Pool) *PostgresTenderRepository {
	return &PostgresTenderRepository{DB: db}
}

// CreateTender создает новый тендер в статусе Draft.
func (r *PostgresTenderRepository) CreateTender(ctx context.Context, tenderReq models.TenderRequest) (*models.Tender, error) {
	newTender := models.Tender{
		ID:              uuid.New().String(),
		Title:           tenderReq.Title,
		Description:     tenderReq.Description,
		Status:          models.DraftTender,
		Mode:            tenderReq.Mode,
		ProcedureType:   tenderReq.ProcedureType,
		MarketType:      tenderReq.MarketType,
		Budget:          tenderReq.Budget,
		Canton:          tenderReq.Canton,
		City:            tenderReq.City,
		OrganizationID:  tenderReq.OrganizationID,
		Lots:            tenderReq.Lots,
		Criteria:        tenderReq.Criteria,
		Deadline:        tenderReq.Deadline,
		Version:         1,
		CreatedAt:       time.Now().UTC(),
		CreatorUsername: tenderReq.CreatorUsername,
	}
	insertQuery := `
       INSERT INTO tender (id, title, description, status, mode, procedure_type, market_type, budget,
                           canton, city, organization_id, lots, criteria, identity_revealed, deadline,
                           version, created_at, creator_username)
       VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, false, $14, $15, $16, $17)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		newTender.ID,
		newTender.Title,
		newTender.Description,
		newTender.Status,
		newTender.Mode,
		newTender.ProcedureType,
		newTender.MarketType,
		newTender.Budget,
		newTender.Canton,
		newTender.City,
		newTender.OrganizationID,
		newTender.Lots,
		newTender.Criteria,
		newTender.Deadline,
		newTender.Version,
		newTender.CreatedAt,
		newTender.CreatorUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to insert tender: %w", err)
	}
	return &newTender, nil
}

// GetTenderByID возвращает тендер по идентификатору.
func (r *PostgresTenderRepository) GetTenderByID(ctx context.Context, tenderId string) (*models.Tender, error) {
	query := `SELECT ` + tenderColumns + tenderFrom + ` WHERE t.id = $1`
	return scanTender(r.DB.QueryRow(ctx, query, tenderId))
}

// GetTenders возвращает список тендеров с фильтром по типу рынка.
// Черновики в общую выдачу не попадают.
func (r *PostgresTenderRepository) GetTenders(ctx context.Context, limit, offset int, marketTypes []string) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + tenderFrom
	filters := []string{`t.status <> 'Draft'`}
	var args []interface{}
	argIndex := 1

	if len(marketTypes) > 0 {
		filters = append(filters, fmt.Sprintf("t.market_type = ANY($%d)", argIndex))
		args = append(args, pq.Array(marketTypes))
		argIndex++
	}

	query += " WHERE " + strings.Join(filters, " AND ")
	query += fmt.Sprintf(" ORDER BY t.created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, *tender)
	}
	return tenders, rows.Err()
}

// GetUserTenders возвращает список тендеров, созданных пользователем.
func (r *PostgresTenderRepository) GetUserTenders(ctx context.Context, limit, offset int, username string) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + tenderFrom +
		` WHERE t.creator_username = $1 ORDER BY t.created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(ctx, query, username, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, *tender)
	}
	return tenders, rows.Err()
}

// EditTender меняет поля тендера. Обновление условное: строка меняется
// только пока тендер в статусе Draft, проигравший гонку получает pgx.ErrNoRows.
func (r *PostgresTenderRepository) EditTender(ctx context.Context, tenderId string, updateFields map[string]interface{}) (*models.Tender, error) {
	var updates []string
	var args []interface{}
	argIndex := 1

	if title, ok := updateFields["title"].(string); ok && title != "" {
		updates = append(updates, fmt.Sprintf("title = $%d", argIndex))
		args = append(args, title)
		argIndex++
	}

	if description, ok := updateFields["description"].(string); ok && description != "" {
		updates = append(updates, fmt.Sprintf("description = $%d", argIndex))
		args = append(args, description)
		argIndex++
	}

	if marketType, ok := updateFields["marketType"].(string); ok && marketType != "" {
		if !models.ValidMarketType(models.MarketType(marketType)) {
			return nil, models.NewValidationError(fmt.Sprintf("invalid marketType parameter: %s", marketType))
		}
		updates = append(updates, fmt.Sprintf("market_type = $%d", argIndex))
		args = append(args, marketType)
		argIndex++
	}

	if procedureType, ok := updateFields["procedureType"].(string); ok && procedureType != "" {
		if !models.ValidProcedureType(models.ProcedureType(procedureType)) {
			return nil, models.NewValidationError(fmt.Sprintf("invalid procedureType parameter: %s", procedureType))
		}
		updates = append(updates, fmt.Sprintf("procedure_type = $%d", argIndex))
		args = append(args, procedureType)
		argIndex++
	}

	if budget, ok := updateFields["budget"].(float64); ok {
		updates = append(updates, fmt.Sprintf("budget = $%d", argIndex))
		args = append(args, budget)
		argIndex++
	}

	if canton, ok := updateFields["canton"].(string); ok && canton != "" {
		updates = append(updates, fmt.Sprintf("canton = $%d", argIndex))
		args = append(args, canton)
		argIndex++
	}

	if city, ok := updateFields["city"].(string); ok && city != "" {
		updates = append(updates, fmt.Sprintf("city = $%d", argIndex))
		args = append(args, city)
		argIndex++
	}

	if lots, ok := toStringSlice(updateFields["lots"]); ok && len(lots) > 0 {
		updates = append(updates, fmt.Sprintf("lots = $%d", argIndex))
		args = append(args, lots)
		argIndex++
	}

	if criteria, ok := toStringSlice(updateFields["criteria"]); ok && len(criteria) > 0 {
		updates = append(updates, fmt.Sprintf("criteria = $%d", argIndex))
		args = append(args, criteria)
		argIndex++
	}

	if deadline, ok := updateFields["deadline"].(string); ok && deadline != "" {
		parsed, err := time.Parse(time.RFC3339, deadline)
		if err != nil {
			return nil, models.NewValidationError("invalid deadline, must be RFC3339 timestamp")
		}
		updates = append(updates, fmt.Sprintf("deadline = $%d", argIndex))
		args = append(args, parsed.UTC())
		argIndex++
	}

	if len(updates) == 0 {
		return nil, models.NewValidationError("no valid fields to update")
	}

	updates = append(updates, "version = version + 1")

	updateQuery := fmt.Sprintf(`
		UPDATE tender t SET %s
		FROM organization o
		WHERE t.id = $%d AND t.status = 'Draft' AND o.id = t.organization_id
		RETURNING `+tenderColumns, strings.Join(updates, ", "), argIndex)
	args = append(args, tenderId)

	return scanTender(r.DB.QueryRow(ctx, updateQuery, args...))
}

// PublishTender переводит тендер из Draft в Published.
// При устаревшем статусе возвращает pgx.ErrNoRows.
func (r *PostgresTenderRepository) PublishTender(ctx context.Context, tenderId string, publishedAt time.Time) (*models.Tender, error) {
	query := `
		UPDATE tender t SET status = 'Published', published_at = $2
		FROM organization o
		WHERE t.id = $1 AND t.status = 'Draft' AND o.id = t.organization_id
		RETURNING ` + tenderColumns
	return scanTender(r.DB.QueryRow(ctx, query, tenderId, publishedAt))
}

// CloseTender переводит тендер из Published в Closed.
// При устаревшем статусе возвращает pgx.ErrNoRows.
func (r *PostgresTenderRepository) CloseTender(ctx context.Context, tenderId string) (*models.Tender, error) {
	query := `
		UPDATE tender t SET status = 'Closed'
		FROM organization o
		WHERE t.id = $1 AND t.status = 'Published' AND o.id = t.organization_id
		RETURNING ` + tenderColumns
	return scanTender(r.DB.QueryRow(ctx, query, tenderId))
}

// RevealIdentity необратимо раскрывает личность организации-заказчика.
// Условие identity_revealed = false перепроверяется в самом UPDATE,
// повторный вызов получает pgx.ErrNoRows.
func (r *PostgresTenderRepository) RevealIdentity(ctx context.Context, tenderId string, revealedAt time.Time) (*models.Tender, error) {
	query := `
		UPDATE tender t SET identity_revealed = true, revealed_at = $2
		FROM organization o
		WHERE t.id = $1 AND t.mode = 'Anonymous' AND t.identity_revealed = false AND o.id = t.organization_id
		RETURNING ` + tenderColumns
	return scanTender(r.DB.QueryRow(ctx, query, tenderId, revealedAt))
}

// ListExpiredPublished возвращает опубликованные тендеры с истекшим дедлайном.
func (r *PostgresTenderRepository) ListExpiredPublished(ctx context.Context, now time.Time) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + tenderFrom +
		` WHERE t.status = 'Published' AND t.deadline IS NOT NULL AND t.deadline <= $1 ORDER BY t.deadline`

	rows, err := r.DB.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, *tender)
	}
	return tenders, rows.Err()
}

// ListPublishedSince возвращает тендеры, опубликованные после указанного момента.
func (r *PostgresTenderRepository) ListPublishedSince(ctx context.Context, since time.Time) ([]models.Tender, error) {
	query := `SELECT ` + tenderColumns + tenderFrom +
		` WHERE t.status = 'Published' AND t.published_at > $1 ORDER BY t.published_at`

	rows, err := r.DB.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		tender, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, *tender)
	}
	return tenders, rows.Err()
}

// toStringSlice приводит значение из JSON-патча к списку строк.
func toStringSlice(value interface{}) ([]string, bool) {
	raw, ok := value.([]interface{})
	if !ok {
		return nil, false
	}
	result := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, false
		}
		result = append(result, s)
	}
	return result, true
}
