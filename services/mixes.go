package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"feed-report/models"
)

// Obergrenze für pageSize beim seitenweisen Abruf.
const MaxPageSize = 100

// IngredientInput ist eine Zutat, wie sie vom Client übermittelt wird.
type IngredientInput struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// MixService legt Mischungen an und liest sie aus.
type MixService struct {
	DB     *gorm.DB
	Logger *zap.Logger
	Now    func() time.Time
}

// NewMixService erstellt eine neue Instanz des MixService.
func NewMixService(db *gorm.DB, logger *zap.Logger) *MixService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MixService{DB: db, Logger: logger, Now: func() time.Time { return time.Now().UTC() }}
}

// CreateMix speichert Mischung und Zutaten in einer Transaktion.
// Die Eingabe wird nicht validiert; das übernimmt der Aufrufer.
func (s *MixService) CreateMix(ctx context.Context, name string, ingredients []IngredientInput) (*models.Mix, error) {
	mix := models.Mix{
		Name:        name,
		CreatedAt:   s.Now(),
		Ingredients: make([]models.Ingredient, 0, len(ingredients)),
	}
	for i, ing := range ingredients {
		mix.Ingredients = append(mix.Ingredients, models.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Position: i,
		})
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&mix).Error
	})
	if err != nil {
		s.Logger.Error("Failed to create mix", zap.String("name", name), zap.Error(err))
		return nil, dbError("create mix", err)
	}

	s.Logger.Info("Mix created",
		zap.String("mix_id", mix.ID),
		zap.String("name", mix.Name),
		zap.Int("ingredients", len(mix.Ingredients)))
	return &mix, nil
}

// ListMixes liefert alle Mischungen inkl. Zutaten, neueste zuerst. Keine Paginierung.
func (s *MixService) ListMixes(ctx context.Context) ([]models.Mix, error) {
	mixes := []models.Mix{}
	if err := s.baseQuery(ctx).Order("created_at desc").Find(&mixes).Error; err != nil {
		return nil, dbError("list mixes", err)
	}
	return normalizeMixes(mixes), nil
}

// ListMixesPage liefert eine Seite (1-basiert) der Mischungen und die Gesamtanzahl.
func (s *MixService) ListMixesPage(ctx context.Context, page, pageSize int) ([]models.Mix, int64, error) {
	if page < 1 {
		return nil, 0, fmt.Errorf("%w: page must be >= 1", ErrValidation)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, 0, fmt.Errorf("%w: pageSize must be between 1 and %d", ErrValidation, MaxPageSize)
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Mix{}).Count(&total).Error; err != nil {
		return nil, 0, dbError("count mixes", err)
	}

	mixes := []models.Mix{}
	err := s.baseQuery(ctx).
		Order("created_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&mixes).Error
	if err != nil {
		return nil, 0, dbError("list mixes page", err)
	}
	return normalizeMixes(mixes), total, nil
}

// GetMix lädt eine Mischung mit Zutaten. ErrNotFound, wenn sie nicht existiert.
func (s *MixService) GetMix(ctx context.Context, id string) (*models.Mix, error) {
	var mix models.Mix
	if err := s.baseQuery(ctx).Where("id = ?", id).Take(&mix).Error; err != nil {
		return nil, dbError("get mix "+id, err)
	}
	if mix.Ingredients == nil {
		mix.Ingredients = []models.Ingredient{}
	}
	return &mix, nil
}

func (s *MixService) baseQuery(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	})
}

// normalizeMixes sorgt dafür, dass Zutaten als [] statt null serialisiert werden.
func normalizeMixes(mixes []models.Mix) []models.Mix {
	for i := range mixes {
		if mixes[i].Ingredients == nil {
			mixes[i].Ingredients = []models.Ingredient{}
		}
	}
	return mixes
}
