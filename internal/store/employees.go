package store

import (
	"context"
)

// ListEmployeesByCategory returns active employees in a category, e.g.
// "Driver" for the allocation roster.
func (s *Store) ListEmployeesByCategory(ctx context.Context, category string) ([]Employee, error) {
	sql := `SELECT id, full_name, phone_number, employee_category, active, created_at
		FROM employees WHERE employee_category = $1 AND active ORDER BY full_name`
	rows, err := s.db.Query(ctx, sql, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.FullName, &e.PhoneNumber, &e.EmployeeCategory, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}
