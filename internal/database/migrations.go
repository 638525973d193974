package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// PropertyRow is the stored form of models.PropertyRecord.
type PropertyRow struct {
	ID             string `gorm:"primaryKey"`
	Street         string
	City           string `gorm:"index"`
	State          string
	ZipCode        string
	Latitude       *float64 `gorm:"index:idx_properties_coordinates"`
	Longitude      *float64 `gorm:"index:idx_properties_coordinates"`
	Bedrooms       int
	Bathrooms      float64
	SquareFootage  float64
	LotSizeAcres   float64
	YearBuilt      int
	LastSaleDate   *time.Time `gorm:"index"`
	LastSalePrice  *float64
	EstimatedValue *float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (PropertyRow) TableName() string { return "properties" }

// AnalysisRow stores one analysis run: summary columns for listing plus the
// full report as JSON.
type AnalysisRow struct {
	ID             string `gorm:"primaryKey"`
	TargetID       string `gorm:"index"`
	Status         string `gorm:"index;not null"`
	Arv            float64
	Confidence     string
	CompCount      int
	Profit         float64
	ROIPercentage  *float64
	Rule70MaxPrice float64
	Error          string
	Report         string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"index"`
}

func (AnalysisRow) TableName() string { return "analyses" }

// MigrateSchema creates or updates the tables.
func MigrateSchema(db *gorm.DB) error {
	if err := db.AutoMigrate(&PropertyRow{}, &AnalysisRow{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
