package database

type DeliveryRepository interface {
	RecordDelivery(delivery Delivery) error
	GetRecentDeliveries(appName string, limit int) ([]Delivery, error)
	GetDeliveryStats(appName string) (DeliveryStats, error)
}
