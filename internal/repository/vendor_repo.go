package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"resops/internal/model"
)

type VendorRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewVendorRepository(db *pgxpool.Pool, logger *zap.Logger) *VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

func (r *VendorRepository) GetByID(ctx context.Context, id int) (*model.Vendor, error) {
	query := `
		SELECT id, name, service, contact, rating, notes, created_at, updated_at
		FROM vendors WHERE id = $1
	`
	var v model.Vendor
	err := r.db.QueryRow(ctx, query, id).Scan(
		&v.ID,
		&v.Name,
		&v.Service,
		&v.Contact,
		&v.Rating,
		&v.Notes,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: vendor %d", ErrNotFound, id)
		}
		r.logger.Error("Failed to fetch vendor", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return &v, nil
}

func (r *VendorRepository) List(ctx context.Context) ([]*model.Vendor, error) {
	query := `
		SELECT id, name, service, contact, rating, notes, created_at, updated_at
		FROM vendors ORDER BY name
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list vendors", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var vendors []*model.Vendor
	for rows.Next() {
		var v model.Vendor
		err := rows.Scan(
			&v.ID,
			&v.Name,
			&v.Service,
			&v.Contact,
			&v.Rating,
			&v.Notes,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, &v)
	}
	return vendors, rows.Err()
}

func (r *VendorRepository) Insert(ctx context.Context, v *model.Vendor) (int, error) {
	query := `
        INSERT INTO vendors (name, service, contact, rating, notes)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		v.Name,
		v.Service,
		v.Contact,
		v.Rating,
		v.Notes,
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to insert vendor", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Vendor inserted successfully",
		zap.Int("id", id),
		zap.String("name", v.Name),
	)
	return id, nil
}

func (r *VendorRepository) Update(ctx context.Context, v *model.Vendor) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vendors
		SET name = $1, service = $2, contact = $3, rating = $4, notes = $5, updated_at = NOW()
		WHERE id = $6
	`, v.Name, v.Service, v.Contact, v.Rating, v.Notes, v.ID)
	if err != nil {
		r.logger.Error("Failed to update vendor", zap.Int("id", v.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: vendor %d", ErrNotFound, v.ID)
	}
	return nil
}

func (r *VendorRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vendors WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete vendor", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: vendor %d", ErrNotFound, id)
	}
	return nil
}
