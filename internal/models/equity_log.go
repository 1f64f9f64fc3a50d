package models

import "time"

type EquityAction string // Вид действия в журнале справедливости

const (
	ActionTenderCreated      EquityAction = "TenderCreated"
	ActionTenderEdited       EquityAction = "TenderEdited"
	ActionTenderPublished    EquityAction = "TenderPublished"
	ActionTenderClosed       EquityAction = "TenderClosed"
	ActionIdentityRevealed   EquityAction = "IdentityRevealed"
	ActionOfferSubmitted     EquityAction = "OfferSubmitted"
	ActionOfferStatusChanged EquityAction = "OfferStatusChanged"
)

// EquityLog представляет запись журнала справедливости.
// Записи только добавляются: обновление и удаление не предусмотрены.
type EquityLog struct {
	ID          string                 `json:"id"`
	TenderID    string                 `json:"tenderId"`
	ActorID     string                 `json:"actorId"`
	Action      EquityAction           `json:"action"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	// Данные актора, заполняются при чтении join-ом с employee.
	ActorName  string `json:"actorName,omitempty"`
	ActorEmail string `json:"actorEmail,omitempty"`
}
