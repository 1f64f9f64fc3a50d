package repository

import (
	"context"
	"errors"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Код нарушения уникальности в PostgreSQL.
const uniqueViolationCode = "23505"

// OfferRepository - интерфейс для работы с предложениями.
type OfferRepository interface {
	CreateOffer(ctx context.Context, offerReq models.OfferRequest) (*models.Offer, error)
	GetOfferByID(ctx context.Context, offerId string) (*models.Offer, error)
	GetTenderOffers(ctx context.Context, tenderId string, limit, offset int) ([]models.Offer, error)
	MarkViewed(ctx context.Context, offerId string, viewedAt time.Time) (*models.Offer, error)
	SetShortlisted(ctx context.Context, offerId string, shortlisted bool) (*models.Offer, error)
	WithdrawOffer(ctx context.Context, offerId string) (*models.Offer, error)
}

const offerColumns = `ofr.id, ofr.tender_id, ofr.organization_id, ofr.description, ofr.price,
       ofr.status, ofr.shortlisted, ofr.viewed_at, ofr.created_at, org.name`

const offerFrom = ` FROM offer ofr JOIN organization org ON ofr.organization_id = org.id`

func scanOffer(row rowScanner) (*models.Offer, error) {
	var o models.Offer
	err := row.Scan(
		&o.ID,
		&o.TenderID,
		&o.OrganizationID,
		&o.Description,
		&o.Price,
		&o.Status,
		&o.Shortlisted,
		&o.ViewedAt,
		&o.CreatedAt,
		&o.OrganizationName,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// PostgresOfferRepository - реализация OfferRepository для базы данных.
type PostgresOfferRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresOfferRepository создает новый экземпляр PostgresOfferRepository.
func NewPostgresOfferRepository(db *pgxpool.Pool) *PostgresOfferRepository {
	return &PostgresOfferRepository{DB: db}
}

// CreateOffer создает новое предложение. Повторное предложение той же
// организации по тому же тендеру упирается в уникальный индекс и
// возвращается как ConflictError.
func (r *PostgresOfferRepository) CreateOffer(ctx context.Context, offerReq models.OfferRequest) (*models.Offer, error) {
	newOffer := models.Offer{
		ID:             uuid.New().String(),
		TenderID:       offerReq.TenderID,
		OrganizationID: offerReq.OrganizationID,
		Description:    offerReq.Description,
		Price:          offerReq.Price,
		Status:         models.SubmittedOffer,
		CreatedAt:      time.Now().UTC(),
	}
	insertQuery := `INSERT INTO offer (id, tender_id, organization_id, description, price, status, shortlisted, created_at)
	                VALUES ($1, $2, $3, $4, $5, $6, false, $7)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		newOffer.ID,
		newOffer.TenderID,
		newOffer.OrganizationID,
		newOffer.Description,
		newOffer.Price,
		newOffer.Status,
		newOffer.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, models.NewConflictError("organization already submitted an offer for this tender")
		}
		return nil, err
	}
	return &newOffer, nil
}

// GetOfferByID возвращает предложение по идентификатору.
func (r *PostgresOfferRepository) GetOfferByID(ctx context.Context, offerId string) (*models.Offer, error) {
	query := `SELECT ` + offerColumns + offerFrom + ` WHERE ofr.id = $1`
	return scanOffer(r.DB.QueryRow(ctx, query, offerId))
}

// GetTenderOffers возвращает список предложений по тендеру.
func (r *PostgresOfferRepository) GetTenderOffers(ctx context.Context, tenderId string, limit, offset int) ([]models.Offer, error) {
	query := `SELECT ` + offerColumns + offerFrom +
		` WHERE ofr.tender_id = $1 ORDER BY ofr.created_at LIMIT $2 OFFSET $3`

	rows, err := r.DB.Query(ctx, query, tenderId, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, *offer)
	}
	return offers, rows.Err()
}

// MarkViewed проставляет отметку о просмотре, только если ее еще нет.
// Уже просмотренное предложение возвращает pgx.ErrNoRows, идемпотентность
// обеспечивает сервисный слой повторным чтением.
func (r *PostgresOfferRepository) MarkViewed(ctx context.Context, offerId string, viewedAt time.Time) (*models.Offer, error) {
	query := `
		UPDATE offer ofr SET viewed_at = $2,
		       status = CASE WHEN ofr.status = 'Submitted' THEN 'Viewed' ELSE ofr.status END
		FROM organization org
		WHERE ofr.id = $1 AND ofr.viewed_at IS NULL AND org.id = ofr.organization_id
		RETURNING ` + offerColumns
	return scanOffer(r.DB.QueryRow(ctx, query, offerId, viewedAt))
}

// SetShortlisted выставляет или снимает флаг шорт-листа,
// не затрагивая статус подачи и отметку о просмотре.
func (r *PostgresOfferRepository) SetShortlisted(ctx context.Context, offerId string, shortlisted bool) (*models.Offer, error) {
	query := `
		UPDATE offer ofr SET shortlisted = $2
		FROM organization org
		WHERE ofr.id = $1 AND org.id = ofr.organization_id
		RETURNING ` + offerColumns
	return scanOffer(r.DB.QueryRow(ctx, query, offerId, shortlisted))
}

// WithdrawOffer переводит предложение в статус Withdrawn.
// Повторный отзыв возвращает pgx.ErrNoRows.
func (r *PostgresOfferRepository) WithdrawOffer(ctx context.Context, offerId string) (*models.Offer, error) {
	query := `
		UPDATE offer ofr SET status = 'Withdrawn'
		FROM organization org
		WHERE ofr.id = $1 AND ofr.status <> 'Withdrawn' AND org.id = ofr.organization_id
		RETURNING ` + offerColumns
	return scanOffer(r.DB.QueryRow(ctx, query, offerId))
}
