package models

import "time"

// SavedSearchCriteria - набор фильтров сохраненного поиска.
// Все поля опциональны: отсутствующее поле не накладывает ограничений.
type SavedSearchCriteria struct {
	Text             *string  `json:"text,omitempty"`
	Canton           *string  `json:"canton,omitempty"`
	City             *string  `json:"city,omitempty"`
	MarketType       *string  `json:"marketType,omitempty"`
	BudgetMin        *float64 `json:"budgetMin,omitempty"`
	BudgetMax        *float64 `json:"budgetMax,omitempty"`
	Mode             *string  `json:"mode,omitempty"`
	OrganizationType *string  `json:"organizationType,omitempty"`
}

// SavedSearch представляет сохраненный поиск пользователя.
type SavedSearch struct {
	ID        string              `json:"id"`
	Username  string              `json:"username"`
	Criteria  SavedSearchCriteria `json:"criteria"`
	CreatedAt time.Time           `json:"createdAt"`
}
