package repo

import (
	"errors"
	"time"

	"github.com/openpantry/barcode-resolver/internal/models"
)

// ErrProductNotFound is returned when no record exists for a barcode.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository defines the durable-store operations for product records.
// Records transition status but are never dropped once created; deletion is
// the soft-delete status.
type ProductRepository interface {
	GetByBarcode(barcode string) (models.Product, error)
	Create(product models.Product) (models.Product, error)
	Update(product models.Product) (models.Product, error)
	// RecordMiss upserts the negative-cache record for a failed external
	// resolution: created with one search attempt, or incremented with the
	// search timestamp reset.
	RecordMiss(barcode string, at time.Time) (models.Product, error)
	SoftDelete(barcode string, at time.Time) error
}
