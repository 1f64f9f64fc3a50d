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

// SystemActor - служебный пользователь, от имени которого пишутся
// записи журнала для фоновых операций (закрытие по дедлайну).
const SystemActor = "system"

// TenderService управляет жизненным циклом тендера:
// Draft -> Published -> Closed, без обратных переходов.
type TenderService struct {
	Repo   repository.TenderRepository
	Access repository.AccessRepository
	Equity *EquityService
	Logger *logrus.Logger
}

// NewTenderService создаёт новый экземпляр TenderService.
func NewTenderService(repo repository.TenderRepository, access repository.AccessRepository, equity *EquityService, logger *logrus.Logger) *TenderService {
	return &TenderService{Repo: repo, Access: access, Equity: equity, Logger: logger}
}

// requireActor проверяет существование пользователя и его роль в организации.
func (s *TenderService) requireActor(ctx context.Context, username, organizationId string, allowed map[models.OrgRole]bool) error {
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

// CreateTender создает новый тендер в статусе Draft.
func (s *TenderService) CreateTender(ctx context.Context, tenderReq models.TenderRequest) (*models.Tender, error) {
	if tenderReq.Title == "" || tenderReq.Description == "" || tenderReq.OrganizationID == "" || tenderReq.CreatorUsername == "" {
		return nil, models.NewValidationError("missing required fields: title, description, organizationId or creatorUsername")
	}
	if len(tenderReq.Lots) == 0 || len(tenderReq.Criteria) == 0 {
		return nil, models.NewValidationError("tender requires at least one lot and one evaluation criterion")
	}

	if tenderReq.Mode == "" {
		tenderReq.Mode = models.OpenMode
	}
	if !models.ValidTenderMode(tenderReq.Mode) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid mode: %s", tenderReq.Mode))
	}
	if !models.ValidProcedureType(tenderReq.ProcedureType) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid procedureType: %s", tenderReq.ProcedureType))
	}
	if !models.ValidMarketType(tenderReq.MarketType) {
		return nil, models.NewValidationError(fmt.Sprintf("invalid marketType: %s", tenderReq.MarketType))
	}

	orgExists, err := s.Access.CheckOrganizationExists(ctx, tenderReq.OrganizationID)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, models.InternalError, "failed to check organization existence")
	}
	if !orgExists {
		return nil, models.NewNotFoundError("organization not found")
	}

	if err := s.requireActor(ctx, tenderReq.CreatorUsername, tenderReq.OrganizationID, models.TenderEditRoles); err != nil {
		return nil, err
	}

	tender, err := s.Repo.CreateTender(ctx, tenderReq)
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tender.ID, tenderReq.CreatorUsername, models.ActionTenderCreated, "tender created as draft", nil)
	return tender, nil
}

// FetchTenders получает список тендеров с фильтром по типу рынка.
func (s *TenderService) FetchTenders(ctx context.Context, limit, offset int, marketTypes []string) ([]models.Tender, error) {
	for _, marketType := range marketTypes {
		if !models.ValidMarketType(models.MarketType(marketType)) {
			return nil, models.NewValidationError(fmt.Sprintf("unsupported market type: %s", marketType))
		}
	}
	return s.Repo.GetTenders(ctx, limit, offset, marketTypes)
}

// GetTenderByID получает тендер по идентификатору.
func (s *TenderService) GetTenderByID(ctx context.Context, tenderId string) (*models.Tender, error) {
	if tenderId == "" {
		return nil, models.NewValidationError("missing required path parameter: tenderId")
	}
	tender, err := s.Repo.GetTenderByID(ctx, tenderId)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewNotFoundError("tender not found")
	}
	return tender, err
}

// GetUserTenders получает список тендеров пользователя.
func (s *TenderService) GetUserTenders(ctx context.Context, limitStr, offsetStr, username string) ([]models.Tender, error) {
	limit, offset, err := utils.ParseLimitOffset(limitStr, offsetStr)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if username == "" {
		return nil, models.NewValidationError("missing required query parameter: username")
	}

	exists, err := s.Access.CheckUserExists(ctx, username)
	if err != nil {
		return nil, models.NewErrorResponse(http.StatusInternalServerError, models.InternalError, "failed to check user existence")
	}
	if !exists {
		return nil, models.NewErrorResponse(http.StatusUnauthorized, models.PermissionError, "user does not exist")
	}
	return s.Repo.GetUserTenders(ctx, limit, offset, username)
}

// EditTender меняет поля тендера. Разрешено только в статусе Draft.
func (s *TenderService) EditTender(ctx context.Context, tenderId, username string, updateFields map[string]interface{}) (*models.Tender, error) {
	if tenderId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: tenderId or username")
	}

	tender, err := s.GetTenderByID(ctx, tenderId)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, tender.OrganizationID, models.TenderEditRoles); err != nil {
		return nil, err
	}

	if tender.Status != models.DraftTender {
		return nil, models.NewStateError("tender can only be edited while in draft")
	}

	updatedTender, err := s.Repo.EditTender(ctx, tenderId, updateFields)
	if errors.Is(err, pgx.ErrNoRows) {
		// Конкурирующая публикация выиграла гонку между проверкой и записью.
		return nil, models.NewStateError("tender can only be edited while in draft")
	}
	if err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(updateFields))
	for field := range updateFields {
		fields = append(fields, field)
	}
	s.Equity.Append(ctx, tenderId, username, models.ActionTenderEdited, "tender fields edited",
		map[string]interface{}{"fields": fields})
	return updatedTender, nil
}

// PublishTender переводит тендер из Draft в Published.
func (s *TenderService) PublishTender(ctx context.Context, tenderId, username string) (*models.Tender, error) {
	if tenderId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: tenderId or username")
	}

	tender, err := s.GetTenderByID(ctx, tenderId)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, tender.OrganizationID, models.TenderEditRoles); err != nil {
		return nil, err
	}

	if tender.Status != models.DraftTender {
		return nil, models.NewStateError("only draft tenders can be published")
	}

	publishedTender, err := s.Repo.PublishTender(ctx, tenderId, time.Now().UTC())
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.NewStateError("only draft tenders can be published")
	}
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tenderId, username, models.ActionTenderPublished, "tender published", nil)
	return publishedTender, nil
}

// CloseTender закрывает опубликованный тендер. Повторное закрытие - no-op.
func (s *TenderService) CloseTender(ctx context.Context, tenderId, username string) (*models.Tender, error) {
	if tenderId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: tenderId or username")
	}

	tender, err := s.GetTenderByID(ctx, tenderId)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, tender.OrganizationID, models.TenderAdminRoles); err != nil {
		return nil, err
	}

	if tender.Status == models.ClosedTender {
		return tender, nil
	}
	if tender.Status != models.PublishedTender {
		return nil, models.NewStateError("only published tenders can be closed")
	}

	closedTender, err := s.Repo.CloseTender(ctx, tenderId)
	if errors.Is(err, pgx.ErrNoRows) {
		// Конкурирующее закрытие уже перевело тендер в Closed.
		return s.GetTenderByID(ctx, tenderId)
	}
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tenderId, username, models.ActionTenderClosed, "tender closed manually",
		map[string]interface{}{"reason": "manual"})
	return closedTender, nil
}

// CloseExpiredTenders закрывает опубликованные тендеры с истекшим дедлайном.
// Вызывается планировщиком, безопасен при повторном запуске.
func (s *TenderService) CloseExpiredTenders(ctx context.Context, now time.Time) (int, error) {
	expired, err := s.Repo.ListExpiredPublished(ctx, now)
	if err != nil {
		return 0, err
	}

	closed := 0
	for _, tender := range expired {
		if _, err := s.Repo.CloseTender(ctx, tender.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			s.Logger.WithField("tenderId", tender.ID).WithError(err).Error("failed to close expired tender")
			continue
		}
		closed++
		s.Equity.Append(ctx, tender.ID, SystemActor, models.ActionTenderClosed, "tender closed after submission deadline",
			map[string]interface{}{"reason": "expired"})
	}
	return closed, nil
}

// RevealIdentity необратимо раскрывает личность организации-заказчика
// анонимного тендера. Повторный вызов завершается StateError.
func (s *TenderService) RevealIdentity(ctx context.Context, tenderId, username string) (*models.Tender, error) {
	if tenderId == "" || username == "" {
		return nil, models.NewValidationError("missing required parameter: tenderId or username")
	}

	tender, err := s.GetTenderByID(ctx, tenderId)
	if err != nil {
		return nil, err
	}

	if err := s.requireActor(ctx, username, tender.OrganizationID, models.TenderAdminRoles); err != nil {
		return nil, err
	}

	if tender.Mode != models.AnonymousMode {
		return nil, models.NewStateError("identity can only be revealed for anonymous tenders")
	}
	if tender.IdentityRevealed {
		return nil, models.NewStateError("identity has already been revealed")
	}

	revealedTender, err := s.Repo.RevealIdentity(ctx, tenderId, time.Now().UTC())
	if errors.Is(err, pgx.ErrNoRows) {
		// Состояние перепроверяется в самом UPDATE: двойное раскрытие невозможно.
		return nil, models.NewStateError("identity has already been revealed")
	}
	if err != nil {
		return nil, err
	}

	s.Equity.Append(ctx, tenderId, username, models.ActionIdentityRevealed, "issuer identity revealed", nil)
	return revealedTender, nil
}
