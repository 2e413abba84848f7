package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"feed-report/models"
	"feed-report/storage"
)

const reportContentType = "text/html; charset=utf-8"

// ReportExporter legt gespeicherte Reports als HTML-Datei im Object Storage ab.
type ReportExporter struct {
	DB      *gorm.DB
	Reports *ReportService
	Putter  storage.ObjectPutter
	Target  storage.Target
	Logger  *zap.Logger
	Now     func() time.Time
}

// NewReportExporter erstellt den Exporter. Ein nil putter deaktiviert den Export.
func NewReportExporter(db *gorm.DB, reports *ReportService, putter storage.ObjectPutter, target storage.Target, logger *zap.Logger) *ReportExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportExporter{
		DB:      db,
		Reports: reports,
		Putter:  putter,
		Target:  target,
		Logger:  logger,
		Now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enabled meldet, ob ein Storage-Ziel konfiguriert ist.
func (e *ReportExporter) Enabled() bool {
	return e != nil && e.Putter != nil
}

// ObjectKey gibt den Objektschlüssel eines Reports zurück.
func ObjectKey(r *models.Report) string {
	return fmt.Sprintf("reports/%s/%s.html", r.MixID, r.ID)
}

// ExportLatest lädt den neuesten Report einer Mischung hoch. Wurde genau dieser
// Report schon exportiert, wird der vorhandene Eintrag zurückgegeben.
func (e *ReportExporter) ExportLatest(ctx context.Context, mixID string) (*models.ReportExport, error) {
	if !e.Enabled() {
		return nil, ErrExportDisabled
	}

	report, err := e.Reports.LatestReport(ctx, mixID)
	if err != nil {
		return nil, err
	}

	var existing models.ReportExport
	err = e.DB.WithContext(ctx).Where("report_id = ?", report.ID).Take(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, dbError("lookup report export", err)
	}

	return e.export(ctx, report)
}

// ArchivePending exportiert alle Reports ohne Export-Eintrag. Einzelne Fehler
// werden geloggt und übersprungen.
func (e *ReportExporter) ArchivePending(ctx context.Context) (int, error) {
	if !e.Enabled() {
		return 0, ErrExportDisabled
	}

	var pending []models.Report
	err := e.DB.WithContext(ctx).
		Where("NOT EXISTS (SELECT 1 FROM report_exports WHERE report_exports.report_id = reports.id)").
		Order("created_at asc").
		Find(&pending).Error
	if err != nil {
		return 0, dbError("list pending reports", err)
	}

	archived := 0
	for i := range pending {
		if ctx.Err() != nil {
			return archived, ctx.Err()
		}
		if _, err := e.export(ctx, &pending[i]); err != nil {
			e.Logger.Warn("Failed to archive report",
				zap.String("report_id", pending[i].ID),
				zap.String("mix_id", pending[i].MixID),
				zap.Error(err))
			continue
		}
		archived++
	}
	return archived, nil
}

func (e *ReportExporter) export(ctx context.Context, report *models.Report) (*models.ReportExport, error) {
	key := ObjectKey(report)
	log := e.Logger.With(zap.String("report_id", report.ID), zap.String("key", key))

	url, err := storage.UploadFile(ctx, e.Putter, e.Target, key, []byte(report.Content), reportContentType)
	if err != nil {
		log.Error("S3 upload failed", zap.Error(err))
		return nil, fmt.Errorf("%w: upload report: %w", ErrPersistence, err)
	}

	exp := models.ReportExport{
		ReportID:  report.ID,
		MixID:     report.MixID,
		ObjectKey: key,
		URL:       url,
		CreatedAt: e.Now(),
	}
	if err := e.DB.WithContext(ctx).Create(&exp).Error; err != nil {
		return nil, dbError("record report export", err)
	}

	log.Info("Report exported to S3", zap.String("url", url))
	return &exp, nil
}
