package models

import "time"

type OfferStatus string // Статус предложения

const (
	SubmittedOffer OfferStatus = "Submitted" // Предложение подано
	ViewedOffer    OfferStatus = "Viewed"    // Предложение просмотрено заказчиком
	WithdrawnOffer OfferStatus = "Withdrawn" // Предложение отозвано поставщиком
)

// Offer представляет модель предложения по тендеру.
// На пару (тендер, организация) допускается ровно одно предложение.
type Offer struct {
	ID             string      `json:"id"`
	TenderID       string      `json:"tenderId"`
	OrganizationID string      `json:"organizationId"`
	Description    string      `json:"description"`
	Price          *float64    `json:"price,omitempty"`
	Status         OfferStatus `json:"status"`
	Shortlisted    bool        `json:"shortlisted"`
	ViewedAt       *time.Time  `json:"viewedAt,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
	// OrganizationName заполняется репозиторием при чтении,
	// наружу отдается только через SubmitterLabel.
	OrganizationName string `json:"-"`
}

// OfferView - представление предложения для выдачи наружу.
// Submitter подставляется с учетом анонимности тендера.
type OfferView struct {
	Offer
	Submitter string `json:"submitter"`
}

// OfferRequest представляет структуру запроса для подачи предложения.
type OfferRequest struct {
	TenderID        string   `json:"tenderId"`
	OrganizationID  string   `json:"organizationId"`
	Description     string   `json:"description"`
	Price           *float64 `json:"price,omitempty"`
	CreatorUsername string   `json:"creatorUsername"`
}
