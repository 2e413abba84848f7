package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"feed-report/models"
	"feed-report/storage"
)

var testTarget = storage.Target{Endpoint: "https://s3.example.com", Bucket: "feed-reports"}

func newExporter(t *testing.T, putter *fakePutter) (*gorm.DB, *ReportService, *ReportExporter) {
	t.Helper()
	db, _, reports := newServices(t)
	var p storage.ObjectPutter
	if putter != nil {
		p = putter
	}
	return db, reports, NewReportExporter(db, reports, p, testTarget, zap.NewNop())
}

func TestExportLatest_Disabled(t *testing.T) {
	_, _, exporter := newExporter(t, nil)

	assert.False(t, exporter.Enabled())
	_, err := exporter.ExportLatest(context.Background(), "mix")
	require.ErrorIs(t, err, ErrExportDisabled)
	_, err = exporter.ArchivePending(context.Background())
	require.ErrorIs(t, err, ErrExportDisabled)
}

func TestExportLatest_NoReport(t *testing.T) {
	_, _, exporter := newExporter(t, newFakePutter())

	_, err := exporter.ExportLatest(context.Background(), "mix")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExportLatest_UploadsLatestOnce(t *testing.T) {
	ctx := context.Background()
	putter := newFakePutter()
	db, reports, exporter := newExporter(t, putter)

	_, err := reports.SaveReport(ctx, "mix-1", "<h2>Old</h2>")
	require.NoError(t, err)
	latest, err := reports.SaveReport(ctx, "mix-1", "<h2>Test</h2>")
	require.NoError(t, err)

	exp, err := exporter.ExportLatest(ctx, "mix-1")
	require.NoError(t, err)

	key := "reports/mix-1/" + latest.ID + ".html"
	assert.Equal(t, key, exp.ObjectKey)
	assert.Equal(t, latest.ID, exp.ReportID)
	assert.Equal(t, "https://s3.example.com/feed-reports/"+key, exp.URL)
	assert.Equal(t, "<h2>Test</h2>", putter.objects[key])
	assert.Equal(t, "text/html; charset=utf-8", putter.types[key])

	again, err := exporter.ExportLatest(ctx, "mix-1")
	require.NoError(t, err)
	assert.Equal(t, exp.ID, again.ID)

	var count int64
	require.NoError(t, db.Model(&models.ReportExport{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	assert.Len(t, putter.objects, 1)
}

func TestArchivePending_SkipsExportedAndFailed(t *testing.T) {
	ctx := context.Background()
	putter := newFakePutter()
	db, reports, exporter := newExporter(t, putter)

	a, err := reports.SaveReport(ctx, "mix-a", "<p>a</p>")
	require.NoError(t, err)
	b, err := reports.SaveReport(ctx, "mix-b", "<p>b</p>")
	require.NoError(t, err)
	c, err := reports.SaveReport(ctx, "mix-c", "<p>c</p>")
	require.NoError(t, err)

	_, err = exporter.ExportLatest(ctx, "mix-a")
	require.NoError(t, err)
	putter.failKey = ObjectKey(c)

	archived, err := exporter.ArchivePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, archived)
	assert.Contains(t, putter.objects, ObjectKey(a))
	assert.Contains(t, putter.objects, ObjectKey(b))
	assert.NotContains(t, putter.objects, ObjectKey(c))

	// Nach Behebung des Fehlers wird nur der fehlende Report nachgezogen.
	putter.failKey = ""
	archived, err = exporter.ArchivePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, archived)

	var count int64
	require.NoError(t, db.Model(&models.ReportExport{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
