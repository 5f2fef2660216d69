package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ DeliveryRepository = (*deliveryRepository)(nil)

type deliveryRepository struct {
	db *DB
}

func NewDeliveryRepository(db *DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) RecordDelivery(delivery Delivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.NewString()
	}
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`
		INSERT INTO deliveries (id, app_name, review_id, kind, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, delivery.ID, delivery.AppName, delivery.ReviewID, string(delivery.Kind),
		string(delivery.Status), delivery.Error, delivery.CreatedAt.UnixMilli())

	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}

	return nil
}

func (r *deliveryRepository) GetRecentDeliveries(appName string, limit int) ([]Delivery, error) {
	rows, err := r.db.Query(`
		SELECT id, app_name, review_id, kind, status, error, created_at
		FROM deliveries
		WHERE app_name = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, appName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := make([]Delivery, 0)
	for rows.Next() {
		var delivery Delivery
		var kind, status string
		var createdAt int64
		err := rows.Scan(
			&delivery.ID, &delivery.AppName, &delivery.ReviewID,
			&kind, &status, &delivery.Error, &createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		delivery.Kind = DeliveryKind(kind)
		delivery.Status = DeliveryStatus(status)
		delivery.CreatedAt = time.UnixMilli(createdAt).UTC()
		deliveries = append(deliveries, delivery)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery rows: %w", err)
	}

	return deliveries, nil
}

func (r *deliveryRepository) GetDeliveryStats(appName string) (DeliveryStats, error) {
	var stats DeliveryStats
	err := r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'sent' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'dropped' THEN 1 ELSE 0 END), 0)
		FROM deliveries
		WHERE app_name = ?
	`, appName).Scan(&stats.Total, &stats.Sent, &stats.Failed, &stats.Dropped)

	if err != nil {
		return DeliveryStats{}, fmt.Errorf("failed to get delivery stats: %w", err)
	}

	return stats, nil
}
