package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	domain "github.com/bryanwahyu/animal-aid/internal/domain/animals"
)

type AnimalRepository struct {
	db *sql.DB
}

func NewAnimalRepository(db *sql.DB) *AnimalRepository {
	return &AnimalRepository{db: db}
}

// Save inserts an animal and assigns its auto-increment id
func (r *AnimalRepository) Save(ctx context.Context, a *domain.Animal) error {
	const q = `
INSERT INTO animals (image_key, image_url, tags, details, uploaded_at)
VALUES (?,?,?,?,?);
`
	uploaded := a.UploadedAt
	if uploaded.IsZero() {
		uploaded = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q, a.ImageKey, a.ImageURL, joinTags(a.Tags), a.Details, uploaded)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = domain.AnimalID(id)
	a.UploadedAt = uploaded
	return nil
}

func (r *AnimalRepository) Get(ctx context.Context, id domain.AnimalID) (*domain.Animal, error) {
	const q = `SELECT id, image_key, image_url, tags, details, uploaded_at FROM animals WHERE id=?;`
	a, err := scanAnimal(r.db.QueryRowContext(ctx, q, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *AnimalRepository) List(ctx context.Context) ([]*domain.Animal, error) {
	const q = `SELECT id, image_key, image_url, tags, details, uploaded_at FROM animals ORDER BY uploaded_at DESC, id DESC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Animal{}
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnimalRepository) Delete(ctx context.Context, id domain.AnimalID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM animals WHERE id=?;`, int64(id))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanAnimal(s scanner) (*domain.Animal, error) {
	var a domain.Animal
	var id int64
	var tags, details sql.NullString
	var uploaded time.Time
	if err := s.Scan(&id, &a.ImageKey, &a.ImageURL, &tags, &details, &uploaded); err != nil {
		return nil, err
	}
	a.ID = domain.AnimalID(id)
	a.Tags = splitTags(tags.String)
	a.Details = details.String
	a.UploadedAt = uploaded.UTC()
	return &a, nil
}
