package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/avdeenkov/procurement-service/internal/models"
)

func newAlertFixture() (*AlertService, *fakeTenderRepo, *fakeSavedSearchRepo, *fakeTracker, *fakeDispatcher) {
	tenderRepo := newFakeTenderRepo()
	searchRepo := &fakeSavedSearchRepo{}
	tracker := newFakeTracker()
	dispatcher := &fakeDispatcher{}
	service := NewAlertService(searchRepo, tenderRepo, tracker, dispatcher, newTestLogger())
	return service, tenderRepo, searchRepo, tracker, dispatcher
}

func addAlertTender(repo *fakeTenderRepo, id, title string, publishedAt time.Time) {
	repo.add(models.Tender{
		ID:          id,
		Title:       title,
		Status:      models.PublishedTender,
		MarketType:  models.ConstructionMarket,
		PublishedAt: &publishedAt,
	})
}

func textSearch(username, text string) models.SavedSearch {
	return models.SavedSearch{
		ID:       "search-" + username,
		Username: username,
		Criteria: models.SavedSearchCriteria{Text: &text},
	}
}

func TestAlertRunDispatchesMatches(t *testing.T) {
	service, tenderRepo, searchRepo, _, dispatcher := newAlertFixture()
	since := time.Now().UTC().Add(-time.Hour)
	addAlertTender(tenderRepo, "t-1", "Road resurfacing", since.Add(time.Minute))
	addAlertTender(tenderRepo, "t-2", "School catering", since.Add(time.Minute))
	searchRepo.searches = []models.SavedSearch{textSearch("alice", "road")}

	sent, err := service.Run(context.Background(), since)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if len(dispatcher.sent) != 1 {
		t.Fatalf("dispatched = %d, want 1", len(dispatcher.sent))
	}
	if dispatcher.sent[0].username != "alice" {
		t.Errorf("notified %s, want alice", dispatcher.sent[0].username)
	}
	if !strings.Contains(dispatcher.sent[0].subject, "Road resurfacing") {
		t.Errorf("subject %q must mention the tender title", dispatcher.sent[0].subject)
	}
}

func TestAlertRunSuppressesDuplicates(t *testing.T) {
	service, tenderRepo, searchRepo, _, dispatcher := newAlertFixture()
	since := time.Now().UTC().Add(-time.Hour)
	addAlertTender(tenderRepo, "t-1", "Road resurfacing", since.Add(time.Minute))
	searchRepo.searches = []models.SavedSearch{textSearch("alice", "road")}
	ctx := context.Background()

	if _, err := service.Run(ctx, since); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	// Повторный проход по тому же интервалу ничего не дублирует.
	sent, err := service.Run(ctx, since)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("second run sent = %d, want 0", sent)
	}
	if len(dispatcher.sent) != 1 {
		t.Errorf("dispatched total = %d, want 1", len(dispatcher.sent))
	}
}

func TestAlertRunTrackerFailure(t *testing.T) {
	service, tenderRepo, searchRepo, tracker, dispatcher := newAlertFixture()
	since := time.Now().UTC().Add(-time.Hour)
	addAlertTender(tenderRepo, "t-1", "Road resurfacing", since.Add(time.Minute))
	searchRepo.searches = []models.SavedSearch{textSearch("alice", "road")}
	tracker.failErr = errors.New("redis unavailable")

	// Без подтверждения трекера уведомление не уходит.
	sent, err := service.Run(context.Background(), since)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	if len(dispatcher.sent) != 0 {
		t.Errorf("dispatched = %d, want 0", len(dispatcher.sent))
	}
}

func TestAlertRunNoNewTenders(t *testing.T) {
	service, tenderRepo, searchRepo, _, _ := newAlertFixture()
	since := time.Now().UTC()
	addAlertTender(tenderRepo, "t-1", "Road resurfacing", since.Add(-time.Hour))
	searchRepo.searches = []models.SavedSearch{textSearch("alice", "road")}

	sent, err := service.Run(context.Background(), since)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
}
