package router

import (
	"net/http"

	"github.com/avdeenkov/procurement-service/internal/handlers"
)

func InitRoutes(tenderHandler *handlers.TenderHandler, offerHandler *handlers.OfferHandler, equityHandler *handlers.EquityHandler, searchHandler *handlers.SavedSearchHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/ping", handlers.PingHandler)

	mux.HandleFunc("/api/tenders", tenderHandler.GetTenders)
	mux.HandleFunc("/api/tenders/new", tenderHandler.CreateTender)
	mux.HandleFunc("/api/tenders/my", tenderHandler.GetUserTenders)
	mux.HandleFunc("GET /api/tenders/{tenderId}", tenderHandler.GetTender)
	mux.HandleFunc("/api/tenders/{tenderId}/edit", tenderHandler.EditTender)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/publish", tenderHandler.PublishTender)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/close", tenderHandler.CloseTender)
	mux.HandleFunc("PUT /api/tenders/{tenderId}/reveal", tenderHandler.RevealIdentity)
	mux.HandleFunc("GET /api/tenders/{tenderId}/logs", equityHandler.GetTenderLogs)
	mux.HandleFunc("GET /api/tenders/{tenderId}/offers", offerHandler.GetTenderOffers)

	mux.HandleFunc("/api/offers/new", offerHandler.SubmitOffer)
	mux.HandleFunc("PUT /api/offers/{offerId}/view", offerHandler.MarkViewed)
	mux.HandleFunc("PUT /api/offers/{offerId}/shortlist", offerHandler.Shortlist)
	mux.HandleFunc("PUT /api/offers/{offerId}/unshortlist", offerHandler.Unshortlist)
	mux.HandleFunc("PUT /api/offers/{offerId}/withdraw", offerHandler.Withdraw)

	mux.HandleFunc("/api/searches/new", searchHandler.CreateSavedSearch)
	mux.HandleFunc("/api/searches/my", searchHandler.GetUserSavedSearches)
	mux.HandleFunc("DELETE /api/searches/{searchId}", searchHandler.DeleteSavedSearch)

	return mux
}
