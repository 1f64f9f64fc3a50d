package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"
)

func newTenderFixture() (*TenderService, *fakeTenderRepo, *fakeEquityRepo) {
	repo := newFakeTenderRepo()
	equityRepo := &fakeEquityRepo{}
	access := &fakeAccessRepo{
		users: map[string]bool{"alice": true, "bob": true, "carol": true},
		orgs:  map[string]bool{"org-1": true},
		roles: map[string]models.OrgRole{
			"alice:org-1": models.RoleOwner,
			"bob:org-1":   models.RoleEditor,
			"carol:org-1": models.RoleViewer,
		},
	}
	logger := newTestLogger()
	equity := NewEquityService(equityRepo, logger)
	return NewTenderService(repo, access, equity, logger), repo, equityRepo
}

func validTenderRequest() models.TenderRequest {
	return models.TenderRequest{
		Title:           "Road maintenance",
		Description:     "Resurfacing of the main road",
		ProcedureType:   models.OpenProcedure,
		MarketType:      models.ConstructionMarket,
		Canton:          "Zurich",
		City:            "Winterthur",
		OrganizationID:  "org-1",
		Lots:            []string{"Lot 1"},
		Criteria:        []string{"Price"},
		CreatorUsername: "alice",
	}
}

func assertKind(t *testing.T, err error, kind models.ErrorKind) {
	t.Helper()
	var errorResponse *models.ErrorResponse
	if !errors.As(err, &errorResponse) {
		t.Fatalf("expected *models.ErrorResponse, got %v", err)
	}
	if errorResponse.Kind != kind {
		t.Fatalf("expected kind %s, got %s (%s)", kind, errorResponse.Kind, errorResponse.Message)
	}
}

func TestCreateTender(t *testing.T) {
	service, _, equityRepo := newTenderFixture()
	ctx := context.Background()

	tender, err := service.CreateTender(ctx, validTenderRequest())
	if err != nil {
		t.Fatalf("CreateTender failed: %v", err)
	}
	if tender.Status != models.DraftTender {
		t.Errorf("new tender status = %s, want Draft", tender.Status)
	}
	if tender.Mode != models.OpenMode {
		t.Errorf("mode not defaulted to Open, got %s", tender.Mode)
	}
	if tender.Version != 1 {
		t.Errorf("new tender version = %d, want 1", tender.Version)
	}

	if len(equityRepo.entries) != 1 {
		t.Fatalf("expected 1 equity entry, got %d", len(equityRepo.entries))
	}
	if equityRepo.entries[0].action != models.ActionTenderCreated {
		t.Errorf("equity action = %s, want TenderCreated", equityRepo.entries[0].action)
	}
}

func TestCreateTenderValidation(t *testing.T) {
	service, _, _ := newTenderFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.TenderRequest)
	}{
		{"missing title", func(r *models.TenderRequest) { r.Title = "" }},
		{"missing description", func(r *models.TenderRequest) { r.Description = "" }},
		{"no lots", func(r *models.TenderRequest) { r.Lots = nil }},
		{"no criteria", func(r *models.TenderRequest) { r.Criteria = nil }},
		{"invalid mode", func(r *models.TenderRequest) { r.Mode = "Hidden" }},
		{"invalid procedure", func(r *models.TenderRequest) { r.ProcedureType = "Auction" }},
		{"invalid market", func(r *models.TenderRequest) { r.MarketType = "Energy" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validTenderRequest()
			tt.mutate(&req)
			_, err := service.CreateTender(ctx, req)
			assertKind(t, err, models.ValidationError)
		})
	}
}

func TestCreateTenderPermissions(t *testing.T) {
	service, _, _ := newTenderFixture()
	ctx := context.Background()

	req := validTenderRequest()
	req.CreatorUsername = "carol" // Viewer
	_, err := service.CreateTender(ctx, req)
	assertKind(t, err, models.PermissionError)

	req.CreatorUsername = "mallory" // не существует
	_, err = service.CreateTender(ctx, req)
	assertKind(t, err, models.PermissionError)

	req = validTenderRequest()
	req.OrganizationID = "org-unknown"
	_, err = service.CreateTender(ctx, req)
	assertKind(t, err, models.NotFoundError)
}

func TestPublishTender(t *testing.T) {
	service, _, equityRepo := newTenderFixture()
	ctx := context.Background()

	tender, err := service.CreateTender(ctx, validTenderRequest())
	if err != nil {
		t.Fatalf("CreateTender failed: %v", err)
	}

	published, err := service.PublishTender(ctx, tender.ID, "alice")
	if err != nil {
		t.Fatalf("PublishTender failed: %v", err)
	}
	if published.Status != models.PublishedTender {
		t.Errorf("status = %s, want Published", published.Status)
	}
	if published.PublishedAt == nil {
		t.Error("publishedAt not set")
	}

	// Повторная публикация недопустима.
	_, err = service.PublishTender(ctx, tender.ID, "alice")
	assertKind(t, err, models.StateError)

	if len(equityRepo.entries) != 2 {
		t.Fatalf("expected 2 equity entries, got %d", len(equityRepo.entries))
	}
	if equityRepo.entries[1].action != models.ActionTenderPublished {
		t.Errorf("equity action = %s, want TenderPublished", equityRepo.entries[1].action)
	}
}

func TestEditTenderOnlyDraft(t *testing.T) {
	service, _, _ := newTenderFixture()
	ctx := context.Background()

	tender, err := service.CreateTender(ctx, validTenderRequest())
	if err != nil {
		t.Fatalf("CreateTender failed: %v", err)
	}

	edited, err := service.EditTender(ctx, tender.ID, "bob", map[string]interface{}{"title": "Road repair"})
	if err != nil {
		t.Fatalf("EditTender failed: %v", err)
	}
	if edited.Title != "Road repair" {
		t.Errorf("title = %s, want Road repair", edited.Title)
	}
	if edited.Version != 2 {
		t.Errorf("version = %d, want 2", edited.Version)
	}

	if _, err := service.PublishTender(ctx, tender.ID, "alice"); err != nil {
		t.Fatalf("PublishTender failed: %v", err)
	}

	_, err = service.EditTender(ctx, tender.ID, "bob", map[string]interface{}{"title": "Too late"})
	assertKind(t, err, models.StateError)
}

func TestCloseTender(t *testing.T) {
	service, _, _ := newTenderFixture()
	ctx := context.Background()

	tender, err := service.CreateTender(ctx, validTenderRequest())
	if err != nil {
		t.Fatalf("CreateTender failed: %v", err)
	}

	// Черновик закрыть нельзя.
	_, err = service.CloseTender(ctx, tender.ID, "alice")
	assertKind(t, err, models.StateError)

	if _, err := service.PublishTender(ctx, tender.ID, "alice"); err != nil {
		t.Fatalf("PublishTender failed: %v", err)
	}

	// Editor не входит в роли администрирования.
	_, err = service.CloseTender(ctx, tender.ID, "bob")
	assertKind(t, err, models.PermissionError)

	closed, err := service.CloseTender(ctx, tender.ID, "alice")
	if err != nil {
		t.Fatalf("CloseTender failed: %v", err)
	}
	if closed.Status != models.ClosedTender {
		t.Errorf("status = %s, want Closed", closed.Status)
	}

	// Повторное закрытие - идемпотентный no-op.
	again, err := service.CloseTender(ctx, tender.ID, "alice")
	if err != nil {
		t.Fatalf("repeated CloseTender failed: %v", err)
	}
	if again.Status != models.ClosedTender {
		t.Errorf("status after repeated close = %s, want Closed", again.Status)
	}
}

func TestCloseExpiredTenders(t *testing.T) {
	service, repo, equityRepo := newTenderFixture()
	ctx := context.Background()
	now := time.Now().UTC()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	repo.add(models.Tender{ID: "t-expired", Status: models.PublishedTender, Deadline: &past})
	repo.add(models.Tender{ID: "t-active", Status: models.PublishedTender, Deadline: &future})
	repo.add(models.Tender{ID: "t-open-ended", Status: models.PublishedTender})

	closed, err := service.CloseExpiredTenders(ctx, now)
	if err != nil {
		t.Fatalf("CloseExpiredTenders failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("closed = %d, want 1", closed)
	}
	if repo.tenders["t-expired"].Status != models.ClosedTender {
		t.Error("expired tender not closed")
	}
	if repo.tenders["t-active"].Status != models.PublishedTender {
		t.Error("active tender must stay published")
	}

	if len(equityRepo.entries) != 1 {
		t.Fatalf("expected 1 equity entry, got %d", len(equityRepo.entries))
	}
	entry := equityRepo.entries[0]
	if entry.username != SystemActor {
		t.Errorf("equity actor = %s, want %s", entry.username, SystemActor)
	}
	if entry.metadata["reason"] != "expired" {
		t.Errorf("equity metadata reason = %v, want expired", entry.metadata["reason"])
	}

	// Повторный запуск ничего не находит.
	closed, err = service.CloseExpiredTenders(ctx, now)
	if err != nil {
		t.Fatalf("repeated CloseExpiredTenders failed: %v", err)
	}
	if closed != 0 {
		t.Errorf("repeated run closed = %d, want 0", closed)
	}
}

func TestRevealIdentity(t *testing.T) {
	service, _, _ := newTenderFixture()
	ctx := context.Background()

	req := validTenderRequest()
	req.Mode = models.AnonymousMode
	tender, err := service.CreateTender(ctx, req)
	if err != nil {
		t.Fatalf("CreateTender failed: %v", err)
	}

	// Editor не может раскрывать личность.
	_, err = service.RevealIdentity(ctx, tender.ID, "bob")
	assertKind(t, err, models.PermissionError)

	revealed, err := service.RevealIdentity(ctx, tender.ID, "alice")
	if err != nil {
		t.Fatalf("RevealIdentity failed: %v", err)
	}
	if !revealed.IdentityRevealed {
		t.Error("identityRevealed not set")
	}
	if revealed.RevealedAt == nil {
		t.Error("revealedAt not set")
	}

	// Раскрытие необратимо и однократно.
	_, err = service.RevealIdentity(ctx, tender.ID, "alice")
	assertKind(t, err, models.StateError)
}

func TestRevealIdentityOpenMode(t *testing.T) {
	service, _, _ := newTenderFixture()
	ctx := context.Background()

	tender, err := service.CreateTender(ctx, validTenderRequest())
	if err != nil {
		t.Fatalf("CreateTender failed: %v", err)
	}

	_, err = service.RevealIdentity(ctx, tender.ID, "alice")
	assertKind(t, err, models.StateError)
}

func TestEquityFailureDoesNotFailOperation(t *testing.T) {
	service, _, equityRepo := newTenderFixture()
	equityRepo.failErr = errors.New("log storage unavailable")
	ctx := context.Background()

	tender, err := service.CreateTender(ctx, validTenderRequest())
	if err != nil {
		t.Fatalf("CreateTender must succeed despite equity failure: %v", err)
	}

	if _, err := service.PublishTender(ctx, tender.ID, "alice"); err != nil {
		t.Fatalf("PublishTender must succeed despite equity failure: %v", err)
	}
	if len(equityRepo.entries) != 0 {
		t.Errorf("no entries expected on failing equity repo, got %d", len(equityRepo.entries))
	}
}

func TestGetTenderByIDNotFound(t *testing.T) {
	service, _, _ := newTenderFixture()

	_, err := service.GetTenderByID(context.Background(), "missing")
	assertKind(t, err, models.NotFoundError)
}
