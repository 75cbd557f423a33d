package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"violation-service/internal/domain/violation"
)

type ViolationRepository struct {
	db *gorm.DB
}

func NewViolationRepository(db *gorm.DB) *ViolationRepository {
	return &ViolationRepository{db: db}
}

type Violation struct {
	ID            int64     `gorm:"primaryKey"`
	Filename      string    `gorm:"not null"`
	ViolationType string    `gorm:"not null"`
	Confidence    float64   `gorm:"not null"`
	Timestamp     time.Time `gorm:"not null"`
	ResultImage   *string
	BBox          datatypes.JSON `gorm:"column:bbox"`
	CreatedAt     time.Time
}

func (Violation) TableName() string {
	return "violations"
}

func (r *ViolationRepository) Create(ctx context.Context, rec *violation.Record) error {
	row := Violation{
		Filename:      rec.Filename,
		ViolationType: string(rec.Label),
		Confidence:    rec.Confidence,
		Timestamp:     rec.Timestamp,
		CreatedAt:     time.Now(),
	}
	if rec.ResultImage != "" {
		row.ResultImage = &rec.ResultImage
	}
	if rec.Box != nil {
		raw, err := json.Marshal(rec.Box)
		if err != nil {
			return err
		}
		row.BBox = datatypes.JSON(raw)
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	rec.ID = row.ID
	rec.CreatedAt = row.CreatedAt
	return nil
}

func (r *ViolationRepository) Find(ctx context.Context, filename *string, limit int) ([]violation.Record, error) {
	query := r.db.WithContext(ctx).Model(&Violation{})

	if filename != nil {
		query = query.Where("filename = ?", *filename)
	}

	query = query.Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []Violation
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]violation.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, toRecord(row))
	}
	return records, nil
}

func (r *ViolationRepository) Stats(ctx context.Context) (violation.Stats, error) {
	stats := violation.Stats{
		ViolationsByType: make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).Model(&Violation{}).
		Count(&stats.TotalViolations).Error; err != nil {
		return stats, err
	}

	var byType []struct {
		ViolationType string
		Count         int64
	}
	if err := r.db.WithContext(ctx).Model(&Violation{}).
		Select("violation_type, COUNT(*) as count").
		Group("violation_type").
		Order("count DESC").
		Scan(&byType).Error; err != nil {
		return stats, err
	}
	for _, row := range byType {
		stats.ViolationsByType[row.ViolationType] = row.Count
	}

	cutoff := time.Now().Add(-24 * time.Hour)
	if err := r.db.WithContext(ctx).Model(&Violation{}).
		Where("timestamp > ?", cutoff).
		Count(&stats.RecentViolations).Error; err != nil {
		return stats, err
	}

	var avg sql.NullFloat64
	if err := r.db.WithContext(ctx).Model(&Violation{}).
		Select("AVG(confidence)").
		Scan(&avg).Error; err != nil {
		return stats, err
	}
	if avg.Valid {
		stats.AvgConfidence = math.Round(avg.Float64*100) / 100
	}

	return stats, nil
}

// Delete removes one record by id and reports whether a row was deleted.
func (r *ViolationRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&Violation{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func toRecord(row Violation) violation.Record {
	rec := violation.Record{
		ID:         row.ID,
		Filename:   row.Filename,
		Label:      violation.Label(row.ViolationType),
		Confidence: row.Confidence,
		Timestamp:  row.Timestamp,
		CreatedAt:  row.CreatedAt,
	}
	if row.ResultImage != nil {
		rec.ResultImage = *row.ResultImage
	}
	if len(row.BBox) > 0 {
		var box violation.BoundingBox
		if err := json.Unmarshal(row.BBox, &box); err == nil {
			rec.Box = &box
		}
	}
	return rec
}
