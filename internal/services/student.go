package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/models"
)

type StudentService struct {
	db *database.DB
}

func NewStudentService(db *database.DB) *StudentService {
	return &StudentService{db: db}
}

func (s *StudentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Student, error) {
	return getStudent(ctx, s.db.Pool, id)
}

// Upsert creates or refreshes a student profile mirrored from the registry.
func (s *StudentService) Upsert(ctx context.Context, id uuid.UUID, name, email string, active bool) (*models.Student, error) {
	name = strings.TrimSpace(name)
	if err := validateField("name", name, "required,max=255"); err != nil {
		return nil, err
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if err := validateField("email", email, "email"); err != nil {
			return nil, err
		}
	}

	var st models.Student
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO students (id, name, email, active)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			active = EXCLUDED.active,
			updated_at = NOW()
		RETURNING id, name, email, active, created_at, updated_at
	`, id, name, email, active).Scan(&st.ID, &st.Name, &st.Email, &st.Active, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert student: %w", err)
	}
	return &st, nil
}

// requireActiveStudent fails with ErrStudentNotFound when the profile is
// missing or deactivated.
func requireActiveStudent(ctx context.Context, q database.Querier, id uuid.UUID) error {
	var active bool
	err := q.QueryRow(ctx, `SELECT active FROM students WHERE id = $1`, id).Scan(&active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStudentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check student: %w", err)
	}
	if !active {
		return ErrStudentNotFound
	}
	return nil
}

func getStudent(ctx context.Context, q database.Querier, id uuid.UUID) (*models.Student, error) {
	var st models.Student
	err := q.QueryRow(ctx, `
		SELECT id, name, email, active, created_at, updated_at
		FROM students WHERE id = $1
	`, id).Scan(&st.ID, &st.Name, &st.Email, &st.Active, &st.CreatedAt, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return &st, nil
}
