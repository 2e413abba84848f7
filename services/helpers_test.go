package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"feed-report/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Mix{}, &models.Ingredient{}, &models.Report{}, &models.ReportExport{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// stepClock liefert bei jedem Aufruf eine Sekunde später.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newServices(t *testing.T) (*gorm.DB, *MixService, *ReportService) {
	t.Helper()
	db := newTestDB(t)
	clock := newStepClock()

	mixes := NewMixService(db, zap.NewNop())
	mixes.Now = clock.Now
	reports := NewReportService(db, zap.NewNop())
	reports.Now = clock.Now
	return db, mixes, reports
}

func layerFeed() []IngredientInput {
	return []IngredientInput{
		{Name: "Corn", Quantity: "5kg"},
		{Name: "Soy", Quantity: "2kg"},
	}
}

type fakeCompleter struct {
	reply  string
	err    error
	calls  int
	system string
	user   string
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.system = systemPrompt
	f.user = userPrompt
	return f.reply, f.err
}

func (f *fakeCompleter) Name() string { return "fake" }

type fakePutter struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
	failKey string
}

func newFakePutter() *fakePutter {
	return &fakePutter{objects: map[string]string{}, types: map[string]string{}}
}

func (p *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(params.Key)
	if key == p.failKey {
		return nil, fmt.Errorf("simulated failure for %s", key)
	}
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.objects[key] = string(body)
	p.types[key] = aws.ToString(params.ContentType)
	return &s3.PutObjectOutput{}, nil
}
