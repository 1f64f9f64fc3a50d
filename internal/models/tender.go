package models

import "time"

type (
	TenderStatus  string // Статус тендера
	TenderMode    string // Режим видимости тендера
	ProcedureType string // Тип процедуры закупки
	MarketType    string // Тип рынка
)

const (
	DraftTender     TenderStatus = "Draft"     // Тендер в черновике
	PublishedTender TenderStatus = "Published" // Тендер опубликован
	ClosedTender    TenderStatus = "Closed"    // Тендер закрыт (терминальный статус)

	OpenMode      TenderMode = "Open"      // Организация-заказчик видна сразу
	AnonymousMode TenderMode = "Anonymous" // Организация-заказчик скрыта до раскрытия

	OpenProcedure       ProcedureType = "Open"
	SelectiveProcedure  ProcedureType = "Selective"
	InvitationProcedure ProcedureType = "Invitation"

	ServicesMarket     MarketType = "Services"
	ConstructionMarket MarketType = "Construction"
	SuppliesMarket     MarketType = "Supplies"
)

// Tender представляет модель тендера.
type Tender struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Status           TenderStatus  `json:"status"`
	Mode             TenderMode    `json:"mode"`
	ProcedureType    ProcedureType `json:"procedureType"`
	MarketType       MarketType    `json:"marketType"`
	Budget           *float64      `json:"budget,omitempty"`
	Canton           string        `json:"canton"`
	City             string        `json:"city"`
	OrganizationID   string        `json:"organizationId"`
	OrganizationType string        `json:"organizationType,omitempty"`
	Lots             []string      `json:"lots"`
	Criteria         []string      `json:"criteria"`
	IdentityRevealed bool          `json:"identityRevealed"`
	RevealedAt       *time.Time    `json:"revealedAt,omitempty"`
	Deadline         *time.Time    `json:"deadline,omitempty"`
	Version          int32         `json:"version"`
	CreatedAt        time.Time     `json:"createdAt"`
	PublishedAt      *time.Time    `json:"publishedAt,omitempty"`
	CreatorUsername  string        `json:"-"`
}

// TenderRequest представляет структуру запроса для создания тендера.
type TenderRequest struct {
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Mode            TenderMode    `json:"mode"`
	ProcedureType   ProcedureType `json:"procedureType"`
	MarketType      MarketType    `json:"marketType"`
	Budget          *float64      `json:"budget,omitempty"`
	Canton          string        `json:"canton"`
	City            string        `json:"city"`
	OrganizationID  string        `json:"organizationId"`
	Lots            []string      `json:"lots"`
	Criteria        []string      `json:"criteria"`
	Deadline        *time.Time    `json:"deadline,omitempty"`
	CreatorUsername string        `json:"creatorUsername"`
}

// ValidTenderMode проверяет допустимость режима видимости.
func ValidTenderMode(m TenderMode) bool {
	switch m {
	case OpenMode, AnonymousMode:
		return true
	default:
		return false
	}
}

// ValidProcedureType проверяет допустимость типа процедуры.
func ValidProcedureType(p ProcedureType) bool {
	switch p {
	case OpenProcedure, SelectiveProcedure, InvitationProcedure:
		return true
	default:
		return false
	}
}

// ValidMarketType проверяет допустимость типа рынка.
func ValidMarketType(m MarketType) bool {
	switch m {
	case ServicesMarket, ConstructionMarket, SuppliesMarket:
		return true
	default:
		return false
	}
}
