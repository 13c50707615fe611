package relay

import (
	"github.com/rdelacruz/freshmarket-backend/pkg/db/models"
	"github.com/rdelacruz/freshmarket-backend/pkg/enums"
)

// ChangeEvent is one change-feed message for the orders table. The order is
// carried as a full record so consumers can apply it as an upsert without a
// follow-up read.
type ChangeEvent struct {
	Type  enums.ChangeEventType `json:"type"`
	Order models.Order          `json:"order"`
}
