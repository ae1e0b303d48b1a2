package workflow

import (
	"context"

	"github.com/rgreyesph/paspro/config"
	"github.com/rgreyesph/paspro/models"
	"github.com/rgreyesph/paspro/utils"
	"gorm.io/gorm"
)

// RecalculateTotals rederives a document's totals from its lines on demand.
// Line saves already keep totals current; this is the manual repair surface.
func RecalculateTotals(ctx context.Context, docType models.DocumentType, id string) (models.Totals, error) {
	db := config.GetDB()
	var totals models.Totals
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		switch docType {
		case models.DocumentTypeBill:
			totals, _, err = models.RecalculateBillTotals(ctx, tx, id)
		case models.DocumentTypeSalesInvoice:
			totals, _, err = models.RecalculateInvoiceTotals(ctx, tx, id)
		default:
			return utils.NewPolicyError(id, "document type has no line totals")
		}
		return err
	})
	return totals, err
}
