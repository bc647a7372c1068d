package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Drift detection output (nightly/admin-triggered). Discrepancies are
// recorded, never auto-corrected: silent correction would corrupt the
// cost-basis audit trail.
type ReconciliationReport struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ProductCode   string          `gorm:"index;size:20;not null" json:"product_code"`
	CheckType     string          `gorm:"size:50;index;not null" json:"check_type"` // e.g. STOCK_COUNT
	Expected      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"expected"`
	Actual        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"actual"`
	Delta         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"delta"`
	Details       string          `gorm:"type:text" json:"details"`
	CorrelationId string          `gorm:"size:64;index" json:"correlation_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}
