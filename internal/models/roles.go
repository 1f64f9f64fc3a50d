package models

type OrgRole string // Роль пользователя в организации

const (
	RoleOwner  OrgRole = "Owner"
	RoleAdmin  OrgRole = "Admin"
	RoleEditor OrgRole = "Editor"
	RoleViewer OrgRole = "Viewer"
	RoleNone   OrgRole = "" // Пользователь не состоит в организации
)

// Наборы ролей, допустимых для каждой операции жизненного цикла.
var (
	// TenderEditRoles - кто может редактировать и публиковать тендер.
	TenderEditRoles = map[OrgRole]bool{
		RoleOwner:  true,
		RoleAdmin:  true,
		RoleEditor: true,
	}

	// TenderAdminRoles - кто может закрывать тендер и раскрывать личность заказчика.
	TenderAdminRoles = map[OrgRole]bool{
		RoleOwner: true,
		RoleAdmin: true,
	}

	// OfferReviewRoles - кто может работать с шорт-листом предложений.
	OfferReviewRoles = map[OrgRole]bool{
		RoleOwner:  true,
		RoleAdmin:  true,
		RoleEditor: true,
	}
)
