package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
)

// ModelRepository handles model registry database operations.
type ModelRepository struct {
	db *DB
}

// NewModelRepository creates a new model repository.
func NewModelRepository(db *DB) *ModelRepository {
	return &ModelRepository{db: db}
}

// Create registers a new model.
func (r *ModelRepository) Create(model *models.Model) error {
	if err := r.db.Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperr.Conflict("model %q already registered", model.Name)
		}
		return fmt.Errorf("failed to create model: %w", err)
	}
	return nil
}

// GetByID retrieves a model by ID.
func (r *ModelRepository) GetByID(id uint) (*models.Model, error) {
	var model models.Model
	if err := r.db.First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("model %d not found", id)
		}
		return nil, fmt.Errorf("failed to get model %d: %w", id, err)
	}
	return &model, nil
}

// GetByName retrieves a model by its display name.
func (r *ModelRepository) GetByName(name string) (*models.Model, error) {
	var model models.Model
	if err := r.db.Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("model %q not found", name)
		}
		return nil, fmt.Errorf("failed to get model %q: %w", name, err)
	}
	return &model, nil
}

// List retrieves models, optionally restricted to active ones, ordered by ID
// for determinism.
func (r *ModelRepository) List(activeOnly bool) ([]models.Model, error) {
	query := r.db.Model(&models.Model{}).Order("id ASC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	var out []models.Model
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	return out, nil
}

// CountActive counts active models.
func (r *ModelRepository) CountActive() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Model{}).Where("is_active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active models: %w", err)
	}
	return count, nil
}

// SetActive flips a model's active flag.
func (r *ModelRepository) SetActive(id uint, active bool) error {
	res := r.db.Model(&models.Model{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update model %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("model %d not found", id)
	}
	return nil
}

// CreateOrUpdate upserts a model by name. Rating and counter fields are never
// touched for existing models; only registry metadata is refreshed.
func (r *ModelRepository) CreateOrUpdate(model *models.Model) error {
	var existing models.Model
	err := r.db.Where("name = ?", model.Name).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.Create(model)
	}
	if err != nil {
		return fmt.Errorf("failed to look up model %q: %w", model.Name, err)
	}

	updates := map[string]interface{}{
		"provider":  model.Provider,
		"is_active": model.IsActive,
	}
	if err := r.db.Model(&existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update model %q: %w", model.Name, err)
	}
	model.ID = existing.ID
	return nil
}
