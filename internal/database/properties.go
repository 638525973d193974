package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arvcalc/internal/models"
)

const upsertBatchSize = 100

func toPropertyRow(p models.PropertyRecord) PropertyRow {
	row := PropertyRow{
		ID:             p.ID,
		Street:         p.Street,
		City:           p.City,
		State:          p.State,
		ZipCode:        p.ZipCode,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		Bedrooms:       p.Bedrooms,
		Bathrooms:      p.Bathrooms,
		SquareFootage:  p.SquareFootage,
		LotSizeAcres:   p.LotSizeAcres,
		YearBuilt:      p.YearBuilt,
		LastSalePrice:  p.LastSalePrice,
		EstimatedValue: p.EstimatedValue,
	}
	if p.LastSaleDate != nil {
		row.LastSaleDate = models.Time(p.LastSaleDate.UTC())
	}
	return row
}

func (r PropertyRow) toRecord() models.PropertyRecord {
	p := models.PropertyRecord{
		ID:             r.ID,
		Street:         r.Street,
		City:           r.City,
		State:          r.State,
		ZipCode:        r.ZipCode,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Bedrooms:       r.Bedrooms,
		Bathrooms:      r.Bathrooms,
		SquareFootage:  r.SquareFootage,
		LotSizeAcres:   r.LotSizeAcres,
		YearBuilt:      r.YearBuilt,
		LastSalePrice:  r.LastSalePrice,
		EstimatedValue: r.EstimatedValue,
	}
	if r.LastSaleDate != nil {
		p.LastSaleDate = models.Time(r.LastSaleDate.UTC())
	}
	return p
}

// UpsertProperties inserts records, overwriting existing rows with the same id.
func UpsertProperties(tx *gorm.DB, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]PropertyRow, 0, len(records))
	for i, p := range records {
		if p.ID == "" {
			return &models.InvalidInputError{Field: fmt.Sprintf("properties[%d].id", i), Reason: "is required"}
		}
		rows = append(rows, toPropertyRow(p))
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(&rows, upsertBatchSize).Error
}

// SaveProperties upserts records in a single transaction.
func (d *Database) SaveProperties(records []models.PropertyRecord) error {
	err := d.db.Transaction(func(tx *gorm.DB) error {
		return UpsertProperties(tx, records)
	})
	if IsBusy(err) {
		d.logger.WithField("count", len(records)).Warn("Database busy while saving properties")
	}
	if err != nil {
		return fmt.Errorf("failed to save properties: %w", err)
	}
	d.logger.WithField("count", len(records)).Info("Saved properties")
	return nil
}

func (d *Database) GetProperty(id string) (*models.PropertyRecord, error) {
	var row PropertyRow
	err := d.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property %s: %w", id, err)
	}
	p := row.toRecord()
	return &p, nil
}

// FindCandidates returns stored properties inside bound that sold on or
// after soldSince, ordered by id. Properties without coordinates or a
// sale date are never returned.
func (d *Database) FindCandidates(bound orb.Bound, soldSince time.Time, excludeID string) ([]models.PropertyRecord, error) {
	q := d.db.Model(&PropertyRow{}).
		Where("latitude BETWEEN ? AND ?", bound.Min.Lat(), bound.Max.Lat()).
		Where("longitude BETWEEN ? AND ?", bound.Min.Lon(), bound.Max.Lon()).
		Where("last_sale_date IS NOT NULL AND last_sale_date >= ?", soldSince.UTC())
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var rows []PropertyRow
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find candidates: %w", err)
	}

	out := make([]models.PropertyRecord, len(rows))
	for i, r := range rows {
		out[i] = r.toRecord()
	}
	return out, nil
}
