package database

import "github.com/leca/ace-image-gateway/internal/model"

// Database defines the persistence interface for the delivery log.
type Database interface {
	RecordDelivery(d *model.Delivery) error
	DeliveryStats() (*model.DeliveryStats, error)
	RecentDeliveries(limit int) ([]*model.Delivery, error)

	Close() error
}
