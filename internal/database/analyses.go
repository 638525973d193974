package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"arvcalc/internal/models"
)

const defaultListLimit = 50

// SaveReport stores a completed analysis, replacing any earlier run with
// the same id.
func (d *Database) SaveReport(report *models.AnalysisReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report %s: %w", report.ID, err)
	}

	row := AnalysisRow{
		ID:             report.ID,
		TargetID:       report.Target.ID,
		Status:         models.StatusCompleted,
		Arv:            report.Arv.Arv,
		Confidence:     string(report.Arv.Confidence),
		CompCount:      report.Arv.CompCount,
		Profit:         report.Investment.Profit,
		ROIPercentage:  report.Investment.ROIPercentage,
		Rule70MaxPrice: report.Investment.Rule70MaxPrice,
		Report:         string(data),
		CreatedAt:      report.CreatedAt.UTC(),
	}
	return d.saveRow(&row)
}

// SaveFailure records an analysis that could not be completed.
func (d *Database) SaveFailure(id, targetID string, cause error) error {
	row := AnalysisRow{
		ID:        id,
		TargetID:  targetID,
		Status:    models.StatusFailed,
		Error:     cause.Error(),
		CreatedAt: time.Now().UTC(),
	}
	return d.saveRow(&row)
}

func (d *Database) saveRow(row *AnalysisRow) error {
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
	if IsBusy(err) {
		d.logger.WithField("analysis_id", row.ID).Warn("Database busy while saving analysis")
	}
	if err != nil {
		return fmt.Errorf("failed to save analysis %s: %w", row.ID, err)
	}
	return nil
}

// GetReport loads a completed analysis. A failed run returns an error
// wrapping ErrAnalysisFailed.
func (d *Database) GetReport(id string) (*models.AnalysisReport, error) {
	row, err := d.getRow(id)
	if err != nil {
		return nil, err
	}
	if row.Status == models.StatusFailed {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisFailed, row.Error)
	}

	var report models.AnalysisReport
	if err := json.Unmarshal([]byte(row.Report), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

// GetSummary returns the listing view of one analysis, failed or not.
func (d *Database) GetSummary(id string) (*models.AnalysisSummary, error) {
	row, err := d.getRow(id)
	if err != nil {
		return nil, err
	}
	s := row.toSummary()
	return &s, nil
}

func (d *Database) getRow(id string) (*AnalysisRow, error) {
	var row AnalysisRow
	err := d.db.First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis %s: %w", id, err)
	}
	return &row, nil
}

// ListAnalyses returns summaries, newest first. A limit <= 0 uses the default.
func (d *Database) ListAnalyses(limit int) ([]models.AnalysisSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []AnalysisRow
	err := d.db.Omit("report").Order("created_at DESC").Order("id").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	out := make([]models.AnalysisSummary, len(rows))
	for i, r := range rows {
		out[i] = r.toSummary()
	}
	return out, nil
}

func (r AnalysisRow) toSummary() models.AnalysisSummary {
	return models.AnalysisSummary{
		ID:             r.ID,
		TargetID:       r.TargetID,
		Status:         r.Status,
		Arv:            r.Arv,
		Confidence:     models.Confidence(r.Confidence),
		CompCount:      r.CompCount,
		Profit:         r.Profit,
		ROIPercentage:  r.ROIPercentage,
		Rule70MaxPrice: r.Rule70MaxPrice,
		Error:          r.Error,
		CreatedAt:      r.CreatedAt,
	}
}
