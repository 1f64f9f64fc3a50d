package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

// Фейки репозиториев для тестов сервисного слоя. Поведение повторяет
// контракт Postgres-реализаций: условные обновления возвращают
// pgx.ErrNoRows, когда строка не подошла под условие.

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeAccessRepo struct {
	users map[string]bool
	orgs  map[string]bool
	roles map[string]models.OrgRole // ключ username:organizationId
}

func (f *fakeAccessRepo) CheckUserExists(_ context.Context, username string) (bool, error) {
	return f.users[username], nil
}

func (f *fakeAccessRepo) CheckOrganizationExists(_ context.Context, organizationId string) (bool, error) {
	return f.orgs[organizationId], nil
}

func (f *fakeAccessRepo) GetOrganizationRole(_ context.Context, username, organizationId string) (models.OrgRole, error) {
	return f.roles[username+":"+organizationId], nil
}

type fakeTenderRepo struct {
	tenders map[string]*models.Tender
	nextID  int
}

func newFakeTenderRepo() *fakeTenderRepo {
	return &fakeTenderRepo{tenders: make(map[string]*models.Tender)}
}

func (f *fakeTenderRepo) add(tender models.Tender) *models.Tender {
	copied := tender
	f.tenders[copied.ID] = &copied
	return &copied
}

func (f *fakeTenderRepo) CreateTender(_ context.Context, req models.TenderRequest) (*models.Tender, error) {
	f.nextID++
	tender := &models.Tender{
		ID:              fmt.Sprintf("tender-%d", f.nextID),
		Title:           req.Title,
		Description:     req.Description,
		Status:          models.DraftTender,
		Mode:            req.Mode,
		ProcedureType:   req.ProcedureType,
		MarketType:      req.MarketType,
		Budget:          req.Budget,
		Canton:          req.Canton,
		City:            req.City,
		OrganizationID:  req.OrganizationID,
		Lots:            req.Lots,
		Criteria:        req.Criteria,
		Deadline:        req.Deadline,
		Version:         1,
		CreatedAt:       time.Now().UTC(),
		CreatorUsername: req.CreatorUsername,
	}
	f.tenders[tender.ID] = tender
	return tender, nil
}

func (f *fakeTenderRepo) GetTenderByID(_ context.Context, tenderId string) (*models.Tender, error) {
	tender, ok := f.tenders[tenderId]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return tender, nil
}

func (f *fakeTenderRepo) GetTenders(_ context.Context, _, _ int, _ []string) ([]models.Tender, error) {
	var result []models.Tender
	for _, tender := range f.tenders {
		if tender.Status != models.DraftTender {
			result = append(result, *tender)
		}
	}
	return result, nil
}

func (f *fakeTenderRepo) GetUserTenders(_ context.Context, _, _ int, username string) ([]models.Tender, error) {
	var result []models.Tender
	for _, tender := range f.tenders {
		if tender.CreatorUsername == username {
			result = append(result, *tender)
		}
	}
	return result, nil
}

func (f *fakeTenderRepo) EditTender(_ context.Context, tenderId string, updateFields map[string]interface{}) (*models.Tender, error) {
	tender, ok := f.tenders[tenderId]
	if !ok || tender.Status != models.DraftTender {
		return nil, pgx.ErrNoRows
	}
	if title, ok := updateFields["title"].(string); ok && title != "" {
		tender.Title = title
	}
	if description, ok := updateFields["description"].(string); ok && description != "" {
		tender.Description = description
	}
	tender.Version++
	return tender, nil
}

func (f *fakeTenderRepo) PublishTender(_ context.Context, tenderId string, publishedAt time.Time) (*models.Tender, error) {
	tender, ok := f.tenders[tenderId]
	if !ok || tender.Status != models.DraftTender {
		return nil, pgx.ErrNoRows
	}
	tender.Status = models.PublishedTender
	tender.PublishedAt = &publishedAt
	return tender, nil
}

func (f *fakeTenderRepo) CloseTender(_ context.Context, tenderId string) (*models.Tender, error) {
	tender, ok := f.tenders[tenderId]
	if !ok || tender.Status != models.PublishedTender {
		return nil, pgx.ErrNoRows
	}
	tender.Status = models.ClosedTender
	return tender, nil
}

func (f *fakeTenderRepo) RevealIdentity(_ context.Context, tenderId string, revealedAt time.Time) (*models.Tender, error) {
	tender, ok := f.tenders[tenderId]
	if !ok || tender.Mode != models.AnonymousMode || tender.IdentityRevealed {
		return nil, pgx.ErrNoRows
	}
	tender.IdentityRevealed = true
	tender.RevealedAt = &revealedAt
	return tender, nil
}

func (f *fakeTenderRepo) ListExpiredPublished(_ context.Context, now time.Time) ([]models.Tender, error) {
	var result []models.Tender
	for _, tender := range f.tenders {
		if tender.Status == models.PublishedTender && tender.Deadline != nil && !tender.Deadline.After(now) {
			result = append(result, *tender)
		}
	}
	return result, nil
}

func (f *fakeTenderRepo) ListPublishedSince(_ context.Context, since time.Time) ([]models.Tender, error) {
	var result []models.Tender
	for _, tender := range f.tenders {
		if tender.Status == models.PublishedTender && tender.PublishedAt != nil && tender.PublishedAt.After(since) {
			result = append(result, *tender)
		}
	}
	return result, nil
}

type fakeOfferRepo struct {
	offers map[string]*models.Offer
	nextID int
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[string]*models.Offer)}
}

func (f *fakeOfferRepo) add(offer models.Offer) *models.Offer {
	copied := offer
	f.offers[copied.ID] = &copied
	return &copied
}

func (f *fakeOfferRepo) CreateOffer(_ context.Context, req models.OfferRequest) (*models.Offer, error) {
	for _, offer := range f.offers {
		if offer.TenderID == req.TenderID && offer.OrganizationID == req.OrganizationID {
			return nil, models.NewConflictError("organization already submitted an offer for this tender")
		}
	}
	f.nextID++
	offer := &models.Offer{
		ID:             fmt.Sprintf("offer-%d00000000", f.nextID),
		TenderID:       req.TenderID,
		OrganizationID: req.OrganizationID,
		Description:    req.Description,
		Price:          req.Price,
		Status:         models.SubmittedOffer,
		CreatedAt:      time.Now().UTC(),
	}
	f.offers[offer.ID] = offer
	return offer, nil
}

func (f *fakeOfferRepo) GetOfferByID(_ context.Context, offerId string) (*models.Offer, error) {
	offer, ok := f.offers[offerId]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return offer, nil
}

func (f *fakeOfferRepo) GetTenderOffers(_ context.Context, tenderId string, _, _ int) ([]models.Offer, error) {
	var result []models.Offer
	for _, offer := range f.offers {
		if offer.TenderID == tenderId {
			result = append(result, *offer)
		}
	}
	return result, nil
}

func (f *fakeOfferRepo) MarkViewed(_ context.Context, offerId string, viewedAt time.Time) (*models.Offer, error) {
	offer, ok := f.offers[offerId]
	if !ok || offer.ViewedAt != nil {
		return nil, pgx.ErrNoRows
	}
	offer.ViewedAt = &viewedAt
	if offer.Status == models.SubmittedOffer {
		offer.Status = models.ViewedOffer
	}
	return offer, nil
}

func (f *fakeOfferRepo) SetShortlisted(_ context.Context, offerId string, shortlisted bool) (*models.Offer, error) {
	offer, ok := f.offers[offerId]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	offer.Shortlisted = shortlisted
	return offer, nil
}

func (f *fakeOfferRepo) WithdrawOffer(_ context.Context, offerId string) (*models.Offer, error) {
	offer, ok := f.offers[offerId]
	if !ok || offer.Status == models.WithdrawnOffer {
		return nil, pgx.ErrNoRows
	}
	offer.Status = models.WithdrawnOffer
	return offer, nil
}

type equityEntry struct {
	tenderId    string
	username    string
	action      models.EquityAction
	description string
	metadata    map[string]interface{}
}

type fakeEquityRepo struct {
	entries []equityEntry
	failErr error
}

func (f *fakeEquityRepo) InsertEntry(_ context.Context, tenderId, username string, action models.EquityAction, description string, metadata map[string]interface{}) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.entries = append(f.entries, equityEntry{tenderId, username, action, description, metadata})
	return nil
}

func (f *fakeEquityRepo) GetTenderLogs(_ context.Context, tenderId string) ([]models.EquityLog, error) {
	var logs []models.EquityLog
	// От новых к старым, как в Postgres-реализации.
	for i := len(f.entries) - 1; i >= 0; i-- {
		if f.entries[i].tenderId == tenderId {
			logs = append(logs, models.EquityLog{
				TenderID:    f.entries[i].tenderId,
				Action:      f.entries[i].action,
				Description: f.entries[i].description,
				Metadata:    f.entries[i].metadata,
			})
		}
	}
	return logs, nil
}

type fakeSavedSearchRepo struct {
	searches []models.SavedSearch
}

func (f *fakeSavedSearchRepo) CreateSavedSearch(_ context.Context, username string, criteria models.SavedSearchCriteria) (*models.SavedSearch, error) {
	search := models.SavedSearch{
		ID:        fmt.Sprintf("search-%d", len(f.searches)+1),
		Username:  username,
		Criteria:  criteria,
		CreatedAt: time.Now().UTC(),
	}
	f.searches = append(f.searches, search)
	return &search, nil
}

func (f *fakeSavedSearchRepo) GetUserSavedSearches(_ context.Context, username string) ([]models.SavedSearch, error) {
	var result []models.SavedSearch
	for _, search := range f.searches {
		if search.Username == username {
			result = append(result, search)
		}
	}
	return result, nil
}

func (f *fakeSavedSearchRepo) ListSavedSearches(_ context.Context) ([]models.SavedSearch, error) {
	return f.searches, nil
}

func (f *fakeSavedSearchRepo) DeleteSavedSearch(_ context.Context, searchId, username string) error {
	for i, search := range f.searches {
		if search.ID == searchId && search.Username == username {
			f.searches = append(f.searches[:i], f.searches[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeTracker struct {
	seen    map[string]bool
	failErr error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{seen: make(map[string]bool)}
}

func (f *fakeTracker) MarkSent(_ context.Context, key string) (bool, error) {
	if f.failErr != nil {
		return false, f.failErr
	}
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

type notification struct {
	username string
	subject  string
	message  string
}

type fakeDispatcher struct {
	sent    []notification
	failErr error
}

func (f *fakeDispatcher) Notify(_ context.Context, username, subject, message string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.sent = append(f.sent, notification{username, subject, message})
	return nil
}
