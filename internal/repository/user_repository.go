package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/study-room-reservation/internal/model"
	"github.com/iliyamo/study-room-reservation/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrStudentIDExists = errors.New("student id already registered")

// Create inserts a user and returns its ID.
func (r *UserRepo) Create(ctx context.Context, studentID, name, password, role string, cost int) (uint64, error) {
	studentID = strings.TrimSpace(studentID)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (student_id, name, password_hash, role) VALUES (?,?,?,?)",
		studentID, name, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrStudentIDExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByStudentID fetches a user by its login identifier.
func (r *UserRepo) GetByStudentID(ctx context.Context, studentID string) (model.User, error) {
	studentID = strings.TrimSpace(studentID)
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,student_id,name,password_hash,role,is_active,created_at,updated_at FROM users WHERE student_id=? LIMIT 1",
		studentID).Scan(&u.ID, &u.StudentID, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,student_id,name,password_hash,role,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id).Scan(&u.ID, &u.StudentID, &u.Name, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
