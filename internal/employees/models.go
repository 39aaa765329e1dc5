package employees

import (
	"errors"
	"fmt"
)

// ErrNoDataAvailable is returned when a lookup or a filtered listing finds
// nothing.
var ErrNoDataAvailable = errors.New("no data available")

// ErrInvalidRange is returned for out-of-bounds pagination arguments.
var ErrInvalidRange = errors.New("invalid range")

func noData(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNoDataAvailable, fmt.Sprintf(format, args...))
}

// Employee is the persisted employee record
type Employee struct {
	ID           int     `gorm:"column:emp_id;primaryKey" json:"emp_id"`
	Name         string  `gorm:"column:emp_name;not null;index" json:"emp_name"`
	Age          int     `json:"age"`
	Salary       float64 `json:"salary"`
	Designation  string  `json:"designation"`
	Platform     string  `json:"platform"`
	Sector       string  `json:"sector"`
	MobileNumber int64   `json:"mobile_number"`
	Email        string  `json:"email"`
	DepartmentID int     `json:"department_id"`
	DeptName     string  `gorm:"index" json:"dept_name"`
}

// TableName pins the table name used by gorm
func (Employee) TableName() string {
	return "employees"
}

// EmployeeDTO is the API shape of an employee
type EmployeeDTO struct {
	ID           int     `json:"emp_id"`
	Name         string  `json:"emp_name" binding:"required"`
	Age          int     `json:"age" binding:"gte=0"`
	Salary       float64 `json:"salary" binding:"gte=0"`
	Designation  string  `json:"designation"`
	Platform     string  `json:"platform"`
	Sector       string  `json:"sector"`
	MobileNumber int64   `json:"mobile_number"`
	Email        string  `json:"email" binding:"omitempty,email"`
	DepartmentID int     `json:"department_id"`
	DeptName     string  `json:"dept_name"`
}

// ToEntity converts the DTO into a storable employee
func (d EmployeeDTO) ToEntity() *Employee {
	return &Employee{
		ID:           d.ID,
		Name:         d.Name,
		Age:          d.Age,
		Salary:       d.Salary,
		Designation:  d.Designation,
		Platform:     d.Platform,
		Sector:       d.Sector,
		MobileNumber: d.MobileNumber,
		Email:        d.Email,
		DepartmentID: d.DepartmentID,
		DeptName:     d.DeptName,
	}
}

// ToDTO converts the employee to its API shape
func (e Employee) ToDTO() EmployeeDTO {
	return EmployeeDTO{
		ID:           e.ID,
		Name:         e.Name,
		Age:          e.Age,
		Salary:       e.Salary,
		Designation:  e.Designation,
		Platform:     e.Platform,
		Sector:       e.Sector,
		MobileNumber: e.MobileNumber,
		Email:        e.Email,
		DepartmentID: e.DepartmentID,
		DeptName:     e.DeptName,
	}
}

func toDTOs(list []Employee) []EmployeeDTO {
	out := make([]EmployeeDTO, len(list))
	for i, e := range list {
		out[i] = e.ToDTO()
	}
	return out
}
