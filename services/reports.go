package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"feed-report/models"
)

// ReportService speichert Reports und liest den jeweils neuesten je Mischung.
type ReportService struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

// NewReportService erstellt eine neue Instanz des ReportService.
func NewReportService(db *gorm.DB, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{DB: db, Logger: logger, Now: func() time.Time { return time.Now().UTC() }}
}

// SaveReport legt immer einen neuen Report an; ältere Reports bleiben erhalten.
func (s *ReportService) SaveReport(ctx context.Context, mixID, content string) (*models.Report, error) {
	if strings.TrimSpace(mixID) == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: missing mixId or content", ErrValidation)
	}

	report := models.Report{
		MixID:     strings.TrimSpace(mixID),
		Content:   content,
		CreatedAt: s.Now(),
	}
	if err := s.DB.WithContext(ctx).Create(&report).Error; err != nil {
		s.Logger.Error("Failed to save report", zap.String("mix_id", mixID), zap.Error(err))
		return nil, dbError("save report", err)
	}

	s.Logger.Info("Report saved",
		zap.String("mix_id", report.MixID),
		zap.String("report_id", report.ID),
		zap.Int("content_len", len(report.Content)))
	return &report, nil
}

// LatestReport liefert den neuesten Report einer Mischung oder ErrNotFound.
func (s *ReportService) LatestReport(ctx context.Context, mixID string) (*models.Report, error) {
	var report models.Report
	err := s.DB.WithContext(ctx).
		Where("mix_id = ?", mixID).
		Order("created_at desc").
		Order("id desc").
		Take(&report).Error
	if err != nil {
		return nil, dbError("latest report for mix "+mixID, err)
	}
	return &report, nil
}

// ReportHistory liefert alle gespeicherten Reports einer Mischung, neueste zuerst.
func (s *ReportService) ReportHistory(ctx context.Context, mixID string) ([]models.Report, error) {
	reports := []models.Report{}
	err := s.DB.WithContext(ctx).
		Where("mix_id = ?", mixID).
		Order("created_at desc").
		Order("id desc").
		Find(&reports).Error
	if err != nil {
		return nil, dbError("report history for mix "+mixID, err)
	}
	return reports, nil
}
