package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quocanhngo/deadlinemind/internal/apperr"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"gorm.io/gorm"
)

// VehicleRepository handles database operations for Vehicle
type VehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// Create inserts a new vehicle
func (r *VehicleRepository) Create(ctx context.Context, v *model.Vehicle) error {
	return r.db.WithContext(ctx).Create(v).Error
}

// FindAll returns every vehicle, oldest first
func (r *VehicleRepository) FindAll(ctx context.Context) (*model.VehicleBatch, error) {
	vehicles := []model.Vehicle{}
	if err := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&vehicles).Error; err != nil {
		return nil, apperr.Transient("postgres.vehicles.findAll", err)
	}
	return &model.VehicleBatch{Vehicles: vehicles}, nil
}

// FindByUser returns the vehicles owned by userID
func (r *VehicleRepository) FindByUser(ctx context.Context, userID string) (*model.VehicleBatch, error) {
	vehicles := []model.Vehicle{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&vehicles).Error
	if err != nil {
		return nil, apperr.Transient("postgres.vehicles.findByUser", err)
	}
	return &model.VehicleBatch{Vehicles: vehicles}, nil
}

// RecordSent sets the ledger column of doc to at unless the stored
// timestamp is already later
func (r *VehicleRepository) RecordSent(ctx context.Context, vehicleID string, doc model.DocumentType, at time.Time) error {
	op := "postgres.vehicles.recordSent"
	if !doc.Valid() {
		return apperr.Malformed(op, "unknown document type %q", doc)
	}
	if _, err := uuid.Parse(vehicleID); err != nil {
		return apperr.Malformed(op, "invalid vehicle id %q", vehicleID)
	}

	col := model.LedgerColumn(doc)
	res := r.db.WithContext(ctx).
		Model(&model.Vehicle{}).
		Where("id = ?", vehicleID).
		Where("("+col+" IS NULL OR "+col+" <= ?)", at).
		Updates(map[string]interface{}{
			col:          at,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return apperr.Transient(op, res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// nothing updated: either a newer timestamp is stored or the row is gone
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Vehicle{}).Where("id = ?", vehicleID).Count(&count).Error; err != nil {
		return apperr.Transient(op, err)
	}
	if count == 0 {
		return apperr.NotFound(op, "vehicle %s not found", vehicleID)
	}
	return nil
}
