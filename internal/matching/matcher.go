// Package matching реализует проверку тендера на соответствие критериям
// сохраненного поиска. Функция чистая и детерминированная: ее безопасно
// гонять на каждом проходе рассылки по каждой паре (поиск, тендер).
package matching

import (
	"strings"

	"github.com/avdeenkov/procurement-service/internal/models"
)

// Matches проверяет, подходит ли тендер под критерии сохраненного поиска.
// Заданные критерии объединяются через AND, отсутствующие не накладывают
// ограничений: пустые критерии подходят любому тендеру.
func Matches(tender models.Tender, criteria models.SavedSearchCriteria) bool {
	if criteria.Text != nil && !matchesText(tender, *criteria.Text) {
		return false
	}
	if criteria.Canton != nil && !strings.EqualFold(tender.Canton, *criteria.Canton) {
		return false
	}
	if criteria.City != nil && !strings.EqualFold(tender.City, *criteria.City) {
		return false
	}
	if criteria.MarketType != nil && string(tender.MarketType) != *criteria.MarketType {
		return false
	}
	if criteria.Mode != nil && string(tender.Mode) != *criteria.Mode {
		return false
	}
	if criteria.OrganizationType != nil && tender.OrganizationType != *criteria.OrganizationType {
		return false
	}
	// Тендер без бюджета не подходит ни под одну заданную границу.
	if criteria.BudgetMin != nil && (tender.Budget == nil || *tender.Budget < *criteria.BudgetMin) {
		return false
	}
	if criteria.BudgetMax != nil && (tender.Budget == nil || *tender.Budget > *criteria.BudgetMax) {
		return false
	}
	return true
}

// matchesText ищет подстроку без учета регистра в названии или описании.
func matchesText(tender models.Tender, text string) bool {
	needle := strings.ToLower(text)
	return strings.Contains(strings.ToLower(tender.Title), needle) ||
		strings.Contains(strings.ToLower(tender.Description), needle)
}
