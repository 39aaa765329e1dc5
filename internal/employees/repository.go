package employees

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Repository is the persistence contract for employees
type Repository interface {
	Save(ctx context.Context, e *Employee) (*Employee, error)
	Delete(ctx context.Context, e *Employee) error
	FindAll(ctx context.Context) ([]Employee, error)
	FindByID(ctx context.Context, id int) (*Employee, error)
	FindByDeptName(ctx context.Context, deptName string) ([]Employee, error)
	FindByName(ctx context.Context, name string) ([]Employee, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm backed employee repository
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// AutoMigrate creates or updates the employees table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&Employee{})
}

// Save inserts the employee, or updates it when the id already exists.
func (r *gormRepository) Save(ctx context.Context, e *Employee) (*Employee, error) {
	if err := r.db.WithContext(ctx).Save(e).Error; err != nil {
		return nil, fmt.Errorf("failed to save employee: %w", err)
	}
	return e, nil
}

func (r *gormRepository) Delete(ctx context.Context, e *Employee) error {
	if err := r.db.WithContext(ctx).Delete(&Employee{}, e.ID).Error; err != nil {
		return fmt.Errorf("failed to delete employee %d: %w", e.ID, err)
	}
	return nil
}

func (r *gormRepository) FindAll(ctx context.Context) ([]Employee, error) {
	var list []Employee
	if err := r.db.WithContext(ctx).Order("emp_id").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return list, nil
}

// FindByID returns nil, nil when no employee has the id.
func (r *gormRepository) FindByID(ctx context.Context, id int) (*Employee, error) {
	var e Employee
	err := r.db.WithContext(ctx).First(&e, "emp_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return &e, nil
}

func (r *gormRepository) FindByDeptName(ctx context.Context, deptName string) ([]Employee, error) {
	var list []Employee
	err := r.db.WithContext(ctx).Where("dept_name = ?", deptName).Order("emp_id").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list employees of %s: %w", deptName, err)
	}
	return list, nil
}

func (r *gormRepository) FindByName(ctx context.Context, name string) ([]Employee, error) {
	var list []Employee
	err := r.db.WithContext(ctx).Where("emp_name = ?", name).Order("emp_id").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find employees named %s: %w", name, err)
	}
	return list, nil
}
