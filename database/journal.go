package database

import (
	"fmt"

	"github.com/rehiy/modem-connect/models"
)

// CreateConnectionEvent 记录一次连接状态变更
func CreateConnectionEvent(ev *models.ConnectionEvent) error {
	if db == nil {
		return nil
	}
	if err := db.Create(ev).Error; err != nil {
		return fmt.Errorf("failed to save connection event: %w", err)
	}
	return nil
}

// CreateSignalSample 记录一次信号采样
func CreateSignalSample(sample *models.SignalSample) error {
	if db == nil {
		return nil
	}
	if err := db.Create(sample).Error; err != nil {
		return fmt.Errorf("failed to save signal sample: %w", err)
	}
	return nil
}

// GetConnectionEvents 查询最近的连接状态变更，按时间倒序
func GetConnectionEvents(limit int) ([]models.ConnectionEvent, error) {
	if db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var events []models.ConnectionEvent
	err := db.Order("created DESC").Limit(limit).Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query connection events: %w", err)
	}
	return events, nil
}

// GetSignalSamples 查询最近的信号采样，按时间倒序
func GetSignalSamples(limit int) ([]models.SignalSample, error) {
	if db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var samples []models.SignalSample
	err := db.Order("created DESC").Limit(limit).Find(&samples).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query signal samples: %w", err)
	}
	return samples, nil
}
