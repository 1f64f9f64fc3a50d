package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"
	"github.com/avdeenkov/procurement-service/internal/repository"
	"github.com/avdeenkov/procurement-service/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// OfferService управляет жизненным циклом предложения и политикой
// отображения подателя с учетом анонимности тендера.
type OfferService struct {
	Repo    repository.OfferRepository
	Tenders repository.TenderRepository
	Access  repository.AccessRepository
	Equity  *EquityService
	Logger  *logrus.Logger
}

// NewOfferService создает новый экземпляр OfferService.
func NewOfferService(repo repository.OfferRepository, tenders repository.TenderRepository, access repository.AccessRepository, equity *EquityService, logger *logrus.Logger) *OfferService {
	return &OfferService{Repo: repo, Tenders: tenders, Access: access, Equity: equity, Logger: logger}
}

// anyRole - членство в организации с любой ролью.
var anyRole = map[models.OrgRole]bool{
	models.RoleOwner:  true,
	models.RoleAdmin:  true,
	models.RoleEditor: true,
	models.RoleViewer: true,
}

func (s *OfferService) requireActor(ctx context.Context, username, organizationId string, allowed map[models.OrgRole]bool) error {
	exists, err := s.Access.CheckUserExists(ctx, username)
	if err != nil {
		return models.NewErrorResponse(http.StatusInternalServerError, models.InternalError, "failed to check user existence")
	}
	if !exists {
		return models.NewErrorResponse(http.StatusUnauthorized, models.PermissionError, "user does not exist")
	}

	role, err := s.Access.GetOrganizationRole(ctx, username, organizationId)
	if err != nil {
		return models.NewErrorResponse(http.StatusInternalServerError, models.InternalError, "failed to check organization role")
	}
	if !allowed[role] {
		return models.NewPermissionError("user lacks the required role in the organization")
	}
	return nil
}

func (s *OfferService) getTender(ctx context.Context, tenderId string) (*models.Tender, error) {
	tender, err := s.Tenders.GetTenderByID(ctx, tenderId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("tender not found")
	}
	return tender, err
}

func (s *OfferService) getOffer(ctx context.Context, offerId string) (*models.Offer, error) {
	offer, err := s.Repo.GetOfferByID(ctx, offerId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("offer not found")
	}
	return offer, err
}

// SubmitOffer подает предложение по опубликованному тендеру.
// На пару (тендер, организация) допускается ровно одно предложение.
func (s *OfferService) SubmitOffer(ctx context.Context, offerReq models.OfferRequest) (*models.Offer, error) {
	if offerReq.TenderID == "" || offerReq.OrganizationID == "" || offerReq.Description == "" || offerReq.CreatorUsername == "" {
		return nil, models.NewValidationError("missing required fields: tenderId, organizationId, description or creatorUsername")
	}

	orgExists, err := s.Access.CheckOrganizationExists(ctx, offerReq.OrganizationID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, models.InternalError, "failed to check organization existence")
	}
	if !orgExists {
		return nil, models.NewNotFoundError("organization not found")
	}

	if err := s.requireActor(ctx, offerReq.CreatorUsername, offerReq.OrganizationID, anyRole); err != nil {
		return nil, err
	}

	tender, err := s.getTender(ctx, offerReq.TenderID)
	if err != nil {
		return nil, err
	}
	if tender.Status != models.PublishedTender {
		return nil, models.NewStateError("offers are accepted only while the tender is published")
	}

	offer, err := s.Repo.CreateOffer(ctx, offerReq)
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tender.ID, offerReq.CreatorUsername, models.ActionOfferSubmitted, "offer submitted",
		map[string]interface{}{"offerId": offer.ID})
	return offer, nil
}

// GetTenderOffers возвращает предложения по тендеру для организации-заказчика.
// Податель подменяется анонимной меткой, пока личность не раскрыта.
func (s *OfferService) GetTenderOffers(ctx context.Context, tenderId, username, limitStr, offsetStr string) ([]models.OfferView, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if tenderId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: tenderId or username")
	}

	tender, err := s.getTender(ctx, tenderId)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, tender.OrganizationID, anyRole); err != nil {
		return nil, err
	}

	offers, err := s.Repo.GetTenderOffers(ctx, tenderId, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]models.OfferView, 0, len(offers))
	for _, offer := range offers {
		views = append(views, models.OfferView{
			Offer:     offer,
			Submitter: ResolveSubmitter(tender, &offer),
		})
	}
	return views, nil
}

// ResolveSubmitter возвращает отображаемое имя подателя предложения.
// Для анонимного тендера до раскрытия личности возвращается
// детерминированная анонимная метка. Связь с состоянием тендера
// обязательна - это инвариант, а не косметика.
func ResolveSubmitter(tender *models.Tender, offer *models.Offer) string {
	if tender.Mode == models.AnonymousMode && !tender.IdentityRevealed {
		return fmt.Sprintf("Anonymous participant %s", offer.ID[:8])
	}
	return offer.OrganizationName
}

// MarkOfferViewed проставляет отметку о просмотре предложения.
// Идемпотентно: уже просмотренное предложение возвращается как есть.
func (s *OfferService) MarkOfferViewed(ctx context.Context, offerId, username string) (*models.Offer, error) {
	if offerId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: offerId or username")
	}

	offer, err := s.getOffer(ctx, offerId)
	if err != nil {
		return nil, err
	}

	tender, err := s.getTender(ctx, offer.TenderID)
	if err != nil {
		return nil, err
	}

	// Просматривать предложения может только организация-заказчик тендера.
	if err := s.requireActor(ctx, username, tender.OrganizationID, anyRole); err != nil {
		return nil, err
	}

	if offer.ViewedAt != nil {
		return offer, nil
	}

	viewedOffer, err := s.Repo.MarkViewed(ctx, offerId, time.Now().UTC())
	if errors.Is(err, pgx.ErrNoRows) {
		// Конкурирующий просмотр успел раньше - отметка уже стоит.
		return s.getOffer(ctx, offerId)
	}
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tender.ID, username, models.ActionOfferStatusChanged, "offer viewed",
		map[string]interface{}{"offerId": offerId})
	return viewedOffer, nil
}

// ShortlistOffer включает предложение в шорт-лист.
func (s *OfferService) ShortlistOffer(ctx context.Context, offerId, username string) (*models.Offer, error) {
	return s.setShortlisted(ctx, offerId, username, true)
}

// UnshortlistOffer исключает предложение из шорт-листа. Статус подачи
// и отметка о просмотре при этом не меняются.
func (s *OfferService) UnshortlistOffer(ctx context.Context, offerId, username string) (*models.Offer, error) {
	return s.setShortlisted(ctx, offerId, username, false)
}

func (s *OfferService) setShortlisted(ctx context.Context, offerId, username string, shortlisted bool) (*models.Offer, error) {
	if offerId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: offerId or username")
	}

	offer, err := s.getOffer(ctx, offerId)
	if err != nil {
		return nil, err
	}

	tender, err := s.getTender(ctx, offer.TenderID)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, tender.OrganizationID, models.OfferReviewRoles); err != nil {
		return nil, err
	}

	if shortlisted && offer.Status == models.WithdrawnOffer {
		return nil, models.NewStateError("withdrawn offers cannot be shortlisted")
	}

	updatedOffer, err := s.Repo.SetShortlisted(ctx, offerId, shortlisted)
	if err != nil {
		return nil, err
	}

	description := "offer shortlisted"
	if !shortlisted {
		description = "offer removed from shortlist"
	}
	s.Equity.Append(ctx, tender.ID, username, models.ActionOfferStatusChanged, description,
		map[string]interface{}{"offerId": offerId, "shortlisted": shortlisted})
	return updatedOffer, nil
}

// WithdrawOffer отзывает предложение. Доступно только организации-подателю,
// пока тендер опубликован.
func (s *OfferService) WithdrawOffer(ctx context.Context, offerId, username string) (*models.Offer, error) {
	if offerId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: offerId or username")
	}

	offer, err := s.getOffer(ctx, offerId)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, offer.OrganizationID, anyRole); err != nil {
		return nil, err
	}

	tender, err := s.getTender(ctx, offer.TenderID)
	if err != nil {
		return nil, err
	}
	if tender.Status != models.PublishedTender {
		return nil, models.NewStateError("offers can only be withdrawn while the tender is published")
	}
	if offer.Status == models.WithdrawnOffer {
		return nil, models.NewStateError("offer has already been withdrawn")
	}

	withdrawnOffer, err := s.Repo.WithdrawOffer(ctx, offerId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewStateError("offer has already been withdrawn")
	}
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tender.ID, username, models.ActionOfferStatusChanged, "offer withdrawn",
		map[string]interface{}{"offerId": offerId})
	return withdrawnOffer, nil
}
