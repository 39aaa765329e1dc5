package employees

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for employee operations
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new employees handler
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers employee routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	emps := router.Group("/employees")
	{
		emps.POST("", h.saveEmployee)
		emps.PUT("", h.updateEmployee)
		emps.GET("", h.listEmployees)
		emps.GET("/:id", h.getEmployee)
		emps.DELETE("/:id", h.deleteEmployee)

		// Salary
		emps.GET("/count", h.countEmployees)
		emps.GET("/salaries/sum", h.sumSalaries)
		emps.GET("/salaries/max", h.maxSalary)
		emps.GET("/salaries/min", h.minSalary)
		emps.GET("/salaries/second-highest", h.secondHighest)
		emps.GET("/salaries/second-lowest", h.secondLowest)
		emps.GET("/salaries/between", h.betweenSalary)

		// Sorting, filtering and paging
		emps.GET("/sorted/asc", h.sortedAsc)
		emps.GET("/sorted/desc", h.sortedDesc)
		emps.GET("/ids/even", h.evenIDs)
		emps.GET("/ids/odd", h.oddIDs)
		emps.GET("/department/:name", h.byDepartment)
		emps.GET("/name/:name", h.byName)
		emps.GET("/page", h.skipLimit)
		emps.GET("/range", h.indexRange)
		emps.GET("/department-ids", h.departmentIDs)

		// Grouping and conversion
		emps.GET("/grouped/salary", h.groupBySalary)
		emps.GET("/grouped/name", h.groupByName)
		emps.GET("/grouped/department-count", h.countByDepartment)
		emps.GET("/unique", h.uniqueEmployees)
		emps.GET("/indexed", h.employeesByID)

		// Names
		emps.GET("/names/reversed", h.namesReversed)
		emps.GET("/names/upper", h.uppercaseNames)
		emps.GET("/names/joined", h.joinNames)
		emps.GET("/names/longest", h.longestName)
		emps.GET("/names/shortest", h.shortestName)

		// Characters
		emps.GET("/chars/first-non-repeated", h.firstNonRepeated)
		emps.GET("/chars/first-repeated", h.firstRepeated)
		emps.GET("/chars/duplicates", h.duplicateChars)
		emps.GET("/chars/unique", h.uniqueChars)

		// String helpers
		emps.GET("/strings/reverse", h.reverseString)
		emps.GET("/strings/rotate-left", h.rotateLeft)
		emps.GET("/strings/rotate-right", h.rotateRight)
	}
}

// =====================================================
// CRUD Endpoints
// =====================================================

// saveEmployee handles POST /api/v1/employees
func (h *Handler) saveEmployee(c *gin.Context) {
	var dto EmployeeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.service.SaveEmployee(c.Request.Context(), dto)
	if err != nil {
		h.fail(c, "Failed to save employee", err)
		return
	}

	c.JSON(http.StatusCreated, saved.ToDTO())
}

// updateEmployee handles PUT /api/v1/employees
func (h *Handler) updateEmployee(c *gin.Context) {
	var dto EmployeeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.service.UpdateEmployee(c.Request.Context(), dto.ToEntity())
	if err != nil {
		h.fail(c, "Failed to update employee", err)
		return
	}

	c.JSON(http.StatusOK, updated.ToDTO())
}

// listEmployees handles GET /api/v1/employees
func (h *Handler) listEmployees(c *gin.Context) {
	list, err := h.service.ListEmployees(c.Request.Context())
	h.respond(c, "Failed to list employees", list, err)
}

// getEmployee handles GET /api/v1/employees/:id
func (h *Handler) getEmployee(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	e, err := h.service.GetEmployee(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "Failed to get employee", err)
		return
	}

	c.JSON(http.StatusOK, e.ToDTO())
}

// deleteEmployee handles DELETE /api/v1/employees/:id
func (h *Handler) deleteEmployee(c *gin.Context) {
	id, ok := h.idParam(c)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteEmployee(c.Request.Context(), &Employee{ID: id})
	if err != nil {
		h.fail(c, "Failed to delete employee", err)
		return
	}

	c.JSON(http.StatusOK, deleted.ToDTO())
}

// =====================================================
// Salary Endpoints
// =====================================================

func (h *Handler) countEmployees(c *gin.Context) {
	n, err := h.service.CountEmployees(c.Request.Context())
	h.respond(c, "Failed to count employees", gin.H{"count": n}, err)
}

func (h *Handler) sumSalaries(c *gin.Context) {
	sum, err := h.service.SumSalaries(c.Request.Context())
	h.respond(c, "Failed to sum salaries", gin.H{"sum": sum}, err)
}

func (h *Handler) maxSalary(c *gin.Context) {
	e, err := h.service.MaxSalaryEmployee(c.Request.Context())
	h.respondEmployee(c, "Failed to find highest salary", e, err)
}

func (h *Handler) minSalary(c *gin.Context) {
	e, err := h.service.MinSalaryEmployee(c.Request.Context())
	h.respondEmployee(c, "Failed to find lowest salary", e, err)
}

func (h *Handler) secondHighest(c *gin.Context) {
	e, err := h.service.SecondHighestSalaryEmployee(c.Request.Context())
	h.respondEmployee(c, "Failed to find second highest salary", e, err)
}

func (h *Handler) secondLowest(c *gin.Context) {
	e, err := h.service.SecondLowestSalaryEmployee(c.Request.Context())
	h.respondEmployee(c, "Failed to find second lowest salary", e, err)
}

// betweenSalary handles GET /api/v1/employees/salaries/between?min=&max=
func (h *Handler) betweenSalary(c *gin.Context) {
	lo, errMin := strconv.ParseFloat(c.DefaultQuery("min", "50000"), 64)
	hi, errMax := strconv.ParseFloat(c.DefaultQuery("max", "100000"), 64)
	if errMin != nil || errMax != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min and max must be numbers"})
		return
	}

	list, err := h.service.EmployeesBetweenSalary(c.Request.Context(), lo, hi)
	h.respond(c, "Failed to filter by salary", list, err)
}

// =====================================================
// Sorting, Filtering and Paging Endpoints
// =====================================================

func (h *Handler) sortedAsc(c *gin.Context) {
	list, err := h.service.SortBySalaryAsc(c.Request.Context())
	h.respondEmployees(c, "Failed to sort employees", list, err)
}

func (h *Handler) sortedDesc(c *gin.Context) {
	list, err := h.service.SortBySalaryDesc(c.Request.Context())
	h.respondEmployees(c, "Failed to sort employees", list, err)
}

func (h *Handler) evenIDs(c *gin.Context) {
	list, err := h.service.EvenIDEmployees(c.Request.Context())
	h.respondEmployees(c, "Failed to filter even ids", list, err)
}

func (h *Handler) oddIDs(c *gin.Context) {
	list, err := h.service.OddIDEmployees(c.Request.Context())
	h.respondEmployees(c, "Failed to filter odd ids", list, err)
}

func (h *Handler) byDepartment(c *gin.Context) {
	list, err := h.service.EmployeesByDepartment(c.Request.Context(), c.Param("name"))
	h.respondEmployees(c, "Failed to list department", list, err)
}

func (h *Handler) byName(c *gin.Context) {
	list, err := h.service.EmployeesByName(c.Request.Context(), c.Param("name"))
	h.respondEmployees(c, "Failed to find employees by name", list, err)
}

// skipLimit handles GET /api/v1/employees/page?skip=&limit=
func (h *Handler) skipLimit(c *gin.Context) {
	skip, ok := h.intQuery(c, "skip", 2)
	if !ok {
		return
	}
	limit, ok := h.intQuery(c, "limit", 5)
	if !ok {
		return
	}

	list, err := h.service.SkipLimit(c.Request.Context(), skip, limit)
	h.respondEmployees(c, "Failed to page employees", list, err)
}

// indexRange handles GET /api/v1/employees/range?from=&to=
func (h *Handler) indexRange(c *gin.Context) {
	from, ok := h.intQuery(c, "from", 0)
	if !ok {
		return
	}
	to, ok := h.intQuery(c, "to", 0)
	if !ok {
		return
	}

	list, err := h.service.IndexRange(c.Request.Context(), from, to)
	h.respondEmployees(c, "Failed to slice employees", list, err)
}

func (h *Handler) departmentIDs(c *gin.Context) {
	ids, err := h.service.DepartmentIDsWithPrefix(c.Request.Context(), c.DefaultQuery("prefix", "2"))
	h.respond(c, "Failed to list department ids", ids, err)
}

// =====================================================
// Grouping Endpoints
// =====================================================

func (h *Handler) groupBySalary(c *gin.Context) {
	groups, err := h.service.GroupBySalary(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to group by salary", err)
		return
	}

	// JSON object keys must be strings
	out := make(map[string][]EmployeeDTO, len(groups))
	for salary, list := range groups {
		out[strconv.FormatFloat(salary, 'f', 2, 64)] = toDTOs(list)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) groupByName(c *gin.Context) {
	groups, err := h.service.GroupByName(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to group by name", err)
		return
	}

	out := make(map[string][]EmployeeDTO, len(groups))
	for name, list := range groups {
		out[name] = toDTOs(list)
	}
	c.JSON(http.StatusOK, out)
}

func (h *Handler) countByDepartment(c *gin.Context) {
	counts, err := h.service.CountByDepartment(c.Request.Context())
	h.respond(c, "Failed to count by department", counts, err)
}

func (h *Handler) uniqueEmployees(c *gin.Context) {
	list, err := h.service.UniqueEmployees(c.Request.Context())
	h.respondEmployees(c, "Failed to list unique employees", list, err)
}

func (h *Handler) employeesByID(c *gin.Context) {
	byID, err := h.service.EmployeesByID(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to index employees", err)
		return
	}

	out := make(map[int]EmployeeDTO, len(byID))
	for id, e := range byID {
		out[id] = e.ToDTO()
	}
	c.JSON(http.StatusOK, out)
}

// =====================================================
// Name and Character Endpoints
// =====================================================

func (h *Handler) namesReversed(c *gin.Context) {
	names, err := h.service.NamesReversed(c.Request.Context())
	h.respond(c, "Failed to list names", names, err)
}

func (h *Handler) uppercaseNames(c *gin.Context) {
	names, err := h.service.UppercaseNames(c.Request.Context())
	h.respond(c, "Failed to list names", names, err)
}

func (h *Handler) joinNames(c *gin.Context) {
	joined, err := h.service.JoinNames(c.Request.Context(), c.DefaultQuery("sep", ","))
	h.respond(c, "Failed to join names", gin.H{"names": joined}, err)
}

func (h *Handler) longestName(c *gin.Context) {
	name, err := h.service.LongestName(c.Request.Context())
	h.respond(c, "Failed to find longest name", gin.H{"name": name}, err)
}

func (h *Handler) shortestName(c *gin.Context) {
	name, err := h.service.ShortestName(c.Request.Context())
	h.respond(c, "Failed to find shortest name", gin.H{"name": name}, err)
}

func (h *Handler) firstNonRepeated(c *gin.Context) {
	ch, err := h.service.FirstNonRepeatedChar(c.Request.Context())
	h.respond(c, "Failed to analyse names", gin.H{"char": ch}, err)
}

func (h *Handler) firstRepeated(c *gin.Context) {
	ch, err := h.service.FirstRepeatedChar(c.Request.Context())
	h.respond(c, "Failed to analyse names", gin.H{"char": ch}, err)
}

func (h *Handler) duplicateChars(c *gin.Context) {
	chars, err := h.service.DuplicateChars(c.Request.Context())
	h.respond(c, "Failed to analyse names", chars, err)
}

func (h *Handler) uniqueChars(c *gin.Context) {
	chars, err := h.service.UniqueChars(c.Request.Context())
	h.respond(c, "Failed to analyse names", chars, err)
}

func (h *Handler) reverseString(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": ReverseString(c.DefaultQuery("s", "SREENIVASARAO"))})
}

func (h *Handler) rotateLeft(c *gin.Context) {
	n, ok := h.intQuery(c, "n", 4)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": RotateLeft(c.DefaultQuery("s", "sreenivasarao"), n)})
}

func (h *Handler) rotateRight(c *gin.Context) {
	n, ok := h.intQuery(c, "n", 3)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": RotateRight(c.DefaultQuery("s", "sreenivasarao"), n)})
}

// =====================================================
// Helper Methods
// =====================================================

func (h *Handler) respond(c *gin.Context, msg string, body interface{}, err error) {
	if err != nil {
		h.fail(c, msg, err)
		return
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) respondEmployee(c *gin.Context, msg string, e *Employee, err error) {
	if err != nil {
		h.fail(c, msg, err)
		return
	}
	c.JSON(http.StatusOK, e.ToDTO())
}

func (h *Handler) respondEmployees(c *gin.Context, msg string, list []Employee, err error) {
	if err != nil {
		h.fail(c, msg, err)
		return
	}
	c.JSON(http.StatusOK, toDTOs(list))
}

// fail maps domain errors to status codes
func (h *Handler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, ErrNoDataAvailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid employee ID"})
		return 0, false
	}
	return id, true
}

func (h *Handler) intQuery(c *gin.Context, key string, defaultVal int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return defaultVal, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return v, true
}
