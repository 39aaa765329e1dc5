package employees

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Service provides employee business logic
type Service struct {
	repo     Repository
	onChange []func()
	logger   *zap.Logger
}

// NewService creates a new employee service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// OnChange registers fn to run after every successful save, update or delete
func (s *Service) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

// =====================================================
// CRUD
// =====================================================

// SaveEmployee stores a new employee
func (s *Service) SaveEmployee(ctx context.Context, dto EmployeeDTO) (*Employee, error) {
	saved, err := s.repo.Save(ctx, dto.ToEntity())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Employee saved",
		zap.Int("emp_id", saved.ID),
		zap.String("name", saved.Name))

	s.changed()
	return saved, nil
}

// UpdateEmployee overwrites a stored employee
func (s *Service) UpdateEmployee(ctx context.Context, e *Employee) (*Employee, error) {
	updated, err := s.repo.Save(ctx, e)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Employee updated", zap.Int("emp_id", updated.ID))
	s.changed()
	return updated, nil
}

// DeleteEmployee removes the employee with e's id and returns the stored copy
func (s *Service) DeleteEmployee(ctx context.Context, e *Employee) (*Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	var stored *Employee
	for i := range all {
		if all[i].ID == e.ID {
			stored = &all[i]
			break
		}
	}
	if stored == nil {
		return nil, noData("no employee with id %d", e.ID)
	}

	if err := s.repo.Delete(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("Employee deleted", zap.Int("emp_id", e.ID))
	s.changed()
	return stored, nil
}

// GetEmployee returns the employee or ErrNoDataAvailable
func (s *Service) GetEmployee(ctx context.Context, id int) (*Employee, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, noData("no data present for id %d", id)
	}
	return e, nil
}

// FindEmployee is the optional lookup: found is false when absent.
func (s *Service) FindEmployee(ctx context.Context, id int) (*Employee, bool, error) {
	e, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return e, e != nil, nil
}

// ListEmployees returns every employee
func (s *Service) ListEmployees(ctx context.Context) ([]EmployeeDTO, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(all), nil
}

// =====================================================
// Salary aggregates
// =====================================================

func (s *Service) SumSalaries(ctx context.Context) (float64, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, e := range all {
		sum += e.Salary
	}
	return sum, nil
}

func (s *Service) CountEmployees(ctx context.Context) (int, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return len(all), nil
}

// MaxSalaryEmployee returns the first employee with the highest salary
func (s *Service) MaxSalaryEmployee(ctx context.Context) (*Employee, error) {
	sorted, err := s.SortBySalaryDesc(ctx)
	if err != nil {
		return nil, err
	}
	return &sorted[0], nil
}

// MinSalaryEmployee returns the first employee with the lowest salary
func (s *Service) MinSalaryEmployee(ctx context.Context) (*Employee, error) {
	sorted, err := s.SortBySalaryAsc(ctx)
	if err != nil {
		return nil, err
	}
	return &sorted[0], nil
}

// SecondHighestSalaryEmployee returns the employee ranked second by salary,
// highest first. Equal salaries are ranked by stored order.
func (s *Service) SecondHighestSalaryEmployee(ctx context.Context) (*Employee, error) {
	sorted, err := s.SortBySalaryDesc(ctx)
	if err != nil {
		return nil, err
	}
	if len(sorted) < 2 {
		return nil, noData("fewer than two employees")
	}
	return &sorted[1], nil
}

// SecondLowestSalaryEmployee returns the employee ranked second by salary,
// lowest first.
func (s *Service) SecondLowestSalaryEmployee(ctx context.Context) (*Employee, error) {
	sorted, err := s.SortBySalaryAsc(ctx)
	if err != nil {
		return nil, err
	}
	if len(sorted) < 2 {
		return nil, noData("fewer than two employees")
	}
	return &sorted[1], nil
}

// EmployeesBetweenSalary returns employees earning strictly more than lo and
// strictly less than hi.
func (s *Service) EmployeesBetweenSalary(ctx context.Context, lo, hi float64) ([]EmployeeDTO, error) {
	if lo > hi {
		return nil, fmt.Errorf("%w: min %.2f exceeds max %.2f", ErrInvalidRange, lo, hi)
	}
	return s.filterDTOs(ctx, func(e Employee) bool {
		return e.Salary > lo && e.Salary < hi
	})
}

// =====================================================
// Sorting and filtering
// =====================================================

func (s *Service) SortBySalaryAsc(ctx context.Context) ([]Employee, error) {
	return s.sortBySalary(ctx, func(a, b float64) bool { return a < b })
}

func (s *Service) SortBySalaryDesc(ctx context.Context) ([]Employee, error) {
	return s.sortBySalary(ctx, func(a, b float64) bool { return a > b })
}

func (s *Service) sortBySalary(ctx context.Context, less func(a, b float64) bool) ([]Employee, error) {
	all, err := s.nonEmpty(ctx)
	if err != nil {
		return nil, err
	}
	sorted := append([]Employee(nil), all...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i].Salary, sorted[j].Salary)
	})
	return sorted, nil
}

func (s *Service) EvenIDEmployees(ctx context.Context) ([]Employee, error) {
	return s.filterNonEmpty(ctx, "no employee with an even id", func(e Employee) bool {
		return e.ID%2 == 0
	})
}

func (s *Service) OddIDEmployees(ctx context.Context) ([]Employee, error) {
	return s.filterNonEmpty(ctx, "no employee with an odd id", func(e Employee) bool {
		return e.ID%2 != 0
	})
}

// EmployeesByDepartment lists the employees of a department
func (s *Service) EmployeesByDepartment(ctx context.Context, deptName string) ([]Employee, error) {
	list, err := s.repo.FindByDeptName(ctx, deptName)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, noData("no employees in department %s", deptName)
	}
	return list, nil
}

// EmployeesByName lists the employees with an exact name
func (s *Service) EmployeesByName(ctx context.Context, name string) ([]Employee, error) {
	list, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, noData("no employee named %s", name)
	}
	return list, nil
}

// SkipLimit drops the first skip employees and returns at most limit of the
// rest.
func (s *Service) SkipLimit(ctx context.Context, skip, limit int) ([]Employee, error) {
	if skip < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: skip %d, limit %d", ErrInvalidRange, skip, limit)
	}
	all, err := s.nonEmpty(ctx)
	if err != nil {
		return nil, err
	}
	if skip >= len(all) {
		return nil, noData("skip %d exceeds %d employees", skip, len(all))
	}
	if limit > len(all)-skip {
		limit = len(all) - skip
	}
	return append([]Employee(nil), all[skip:skip+limit]...), nil
}

// IndexRange returns the employees at positions [from, to).
func (s *Service) IndexRange(ctx context.Context, from, to int) ([]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if from < 0 || to < from || to > len(all) {
		return nil, fmt.Errorf("%w: [%d, %d) of %d employees", ErrInvalidRange, from, to, len(all))
	}
	return append([]Employee(nil), all[from:to]...), nil
}

// DepartmentIDsWithPrefix returns the distinct department ids, as text,
// that start with prefix.
func (s *Service) DepartmentIDsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	ids := []string{}
	for _, e := range all {
		id := strconv.Itoa(e.DepartmentID)
		if strings.HasPrefix(id, prefix) && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// =====================================================
// Grouping and conversion
// =====================================================

func (s *Service) GroupBySalary(ctx context.Context) (map[float64][]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[float64][]Employee)
	for _, e := range all {
		groups[e.Salary] = append(groups[e.Salary], e)
	}
	return groups, nil
}

func (s *Service) GroupByName(ctx context.Context) (map[string][]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	groups := make(map[string][]Employee)
	for _, e := range all {
		groups[e.Name] = append(groups[e.Name], e)
	}
	return groups, nil
}

// CountByDepartment counts employees per department name
func (s *Service) CountByDepartment(ctx context.Context) (map[string]int64, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, e := range all {
		counts[e.DeptName]++
	}
	return counts, nil
}

// UniqueEmployees drops exact duplicates, keeping the first occurrence
func (s *Service) UniqueEmployees(ctx context.Context) ([]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[Employee]struct{}, len(all))
	unique := []Employee{}
	for _, e := range all {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		unique = append(unique, e)
	}
	return unique, nil
}

// EmployeesByID indexes employees by id; the first occurrence of an id wins
func (s *Service) EmployeesByID(ctx context.Context) (map[int]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]Employee, len(all))
	for _, e := range all {
		if _, ok := byID[e.ID]; !ok {
			byID[e.ID] = e
		}
	}
	return byID, nil
}

// =====================================================
// Names
// =====================================================

// NamesReversed returns employee names, last stored first
func (s *Service) NamesReversed(ctx context.Context) ([]string, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

func (s *Service) UppercaseNames(ctx context.Context) ([]string, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, err
	}
	for i, n := range names {
		names[i] = strings.ToUpper(n)
	}
	return names, nil
}

func (s *Service) JoinNames(ctx context.Context, sep string) (string, error) {
	names, err := s.names(ctx)
	if err != nil {
		return "", err
	}
	return strings.Join(names, sep), nil
}

// LongestName returns the first of the longest names
func (s *Service) LongestName(ctx context.Context) (string, error) {
	return s.pickName(ctx, func(candidate, best int) bool { return candidate > best })
}

// ShortestName returns the first of the shortest names
func (s *Service) ShortestName(ctx context.Context) (string, error) {
	return s.pickName(ctx, func(candidate, best int) bool { return candidate < best })
}

func (s *Service) pickName(ctx context.Context, better func(candidate, best int) bool) (string, error) {
	names, err := s.names(ctx)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", noData("no employees")
	}
	best := names[0]
	for _, n := range names[1:] {
		if better(utf8.RuneCountInString(n), utf8.RuneCountInString(best)) {
			best = n
		}
	}
	return best, nil
}

// =====================================================
// Character analysis over all names, concatenated in stored order
// =====================================================

func (s *Service) FirstNonRepeatedChar(ctx context.Context) (string, error) {
	order, counts, err := s.nameRunes(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range order {
		if counts[r] == 1 {
			return string(r), nil
		}
	}
	return "", noData("every character repeats")
}

func (s *Service) FirstRepeatedChar(ctx context.Context) (string, error) {
	order, counts, err := s.nameRunes(ctx)
	if err != nil {
		return "", err
	}
	for _, r := range order {
		if counts[r] > 1 {
			return string(r), nil
		}
	}
	return "", noData("no character repeats")
}

// DuplicateChars lists characters that occur more than once
func (s *Service) DuplicateChars(ctx context.Context) ([]string, error) {
	return s.charsWhere(ctx, func(n int) bool { return n > 1 })
}

// UniqueChars lists characters that occur exactly once
func (s *Service) UniqueChars(ctx context.Context) ([]string, error) {
	return s.charsWhere(ctx, func(n int) bool { return n == 1 })
}

func (s *Service) charsWhere(ctx context.Context, keep func(n int) bool) ([]string, error) {
	order, counts, err := s.nameRunes(ctx)
	if err != nil {
		return nil, err
	}
	out := []string{}
	for _, r := range order {
		if keep(counts[r]) {
			out = append(out, string(r))
		}
	}
	return out, nil
}

func (s *Service) nameRunes(ctx context.Context) ([]rune, map[rune]int, error) {
	names, err := s.names(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(names) == 0 {
		return nil, nil, noData("no employees")
	}
	order, counts := runeCounts(strings.Join(names, ""))
	return order, counts, nil
}

// =====================================================
// helpers
// =====================================================

func (s *Service) names(ctx context.Context) ([]string, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(all))
	for i, e := range all {
		names[i] = e.Name
	}
	return names, nil
}

func (s *Service) nonEmpty(ctx context.Context) ([]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, noData("no employees")
	}
	return all, nil
}

func (s *Service) filterNonEmpty(ctx context.Context, reason string, keep func(Employee) bool) ([]Employee, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []Employee
	for _, e := range all {
		if keep(e) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, noData("%s", reason)
	}
	return out, nil
}

func (s *Service) filterDTOs(ctx context.Context, keep func(Employee) bool) ([]EmployeeDTO, error) {
	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := []EmployeeDTO{}
	for _, e := range all {
		if keep(e) {
			out = append(out, e.ToDTO())
		}
	}
	return out, nil
}
