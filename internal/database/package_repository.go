package database

import (
	"database/sql"
	"fmt"

	"github.com/roamtrails/travel-booking-backend/internal/models"
)

// PackageRepository reads package records owned by the catalog store
type PackageRepository struct {
	db DB
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db DB) *PackageRepository {
	return &PackageRepository{
		db: db,
	}
}

// GetByID retrieves a package by ID. Returns nil if the package does not exist.
func (r *PackageRepository) GetByID(packageID string) (*models.Package, error) {
	query := `
		SELECT id, name, price, duration, image_cover, created_at, updated_at
		FROM packages
		WHERE id = $1
	`

	pkg := &models.Package{}
	err := r.db.QueryRow(query, packageID).Scan(
		&pkg.ID, &pkg.Name, &pkg.Price, &pkg.Duration, &pkg.ImageCover,
		&pkg.CreatedAt, &pkg.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return pkg, nil
}
