package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/jobsworth/internal/constants"
	"github.com/yukikurage/jobsworth/internal/database"
	"github.com/yukikurage/jobsworth/internal/dto"
	"github.com/yukikurage/jobsworth/internal/metrics"
	"github.com/yukikurage/jobsworth/internal/models"
	"github.com/yukikurage/jobsworth/internal/repository"
	"github.com/yukikurage/jobsworth/internal/scoring"
	"github.com/yukikurage/jobsworth/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TaskHandlerTestSuite drives the router against an in-memory SQLite database
type TaskHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	now     time.Time
	tasks   *services.TaskService
	router  *gin.Engine
	company *models.Company
	project *models.Project
	user    *models.User
	cookies []*http.Cookie
}

// SetupTest runs before each test
func (suite *TaskHandlerTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	suite.Require().NoError(err)
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	suite.Require().NoError(database.Migrate(suite.db, log))

	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	repos := services.Repositories{
		Tasks:      repository.NewTaskRepository(suite.db),
		Users:      repository.NewUserRepository(suite.db),
		Companies:  repository.NewCompanyRepository(suite.db),
		Milestones: repository.NewMilestoneRepository(suite.db),
	}
	m := metrics.New()
	suite.tasks = services.NewTaskService(repos, services.Options{
		Metrics: m,
		Logger:  log,
		Now:     func() time.Time { return suite.now },
	})

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	suite.router = NewRouter(Deps{
		Tasks:        suite.tasks,
		Milestones:   services.NewMilestoneService(repos.Milestones, suite.tasks),
		Metrics:      m,
		SessionStore: cookie.NewStore([]byte("test-secret")),
		Logger:       log,
	})
	// Stands in for the login service writing the shared session
	suite.router.GET("/test/login/:id", func(c *gin.Context) {
		id, _ := strconv.ParseUint(c.Param("id"), 10, 64)
		session := sessions.Default(c)
		session.Set(constants.ContextKeyUserID, id)
		suite.Require().NoError(session.Save())
		c.Status(http.StatusNoContent)
	})

	suite.company = &models.Company{Name: "Acme"}
	suite.Require().NoError(suite.db.Create(suite.company).Error)
	suite.project = suite.createProject("Website")
	suite.user = suite.createUser("owner")
	suite.grant(suite.user, suite.project)
	suite.login(suite.user)
}

// TearDownTest runs after each test
func (suite *TaskHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data
func (suite *TaskHandlerTestSuite) createProject(name string) *models.Project {
	project := &models.Project{CompanyID: suite.company.ID, Name: name}
	suite.Require().NoError(suite.db.Create(project).Error)
	return project
}

func (suite *TaskHandlerTestSuite) createUser(name string) *models.User {
	user := &models.User{
		CompanyID:            suite.company.ID,
		Name:                 name,
		Email:                name + "@example.com",
		Active:               true,
		ReceiveNotifications: true,
	}
	suite.Require().NoError(suite.db.Create(user).Error)
	return user
}

func (suite *TaskHandlerTestSuite) grant(user *models.User, project *models.Project) {
	suite.Require().NoError(suite.db.Create(&models.ProjectPermission{ProjectID: project.ID, UserID: user.ID}).Error)
}

func (suite *TaskHandlerTestSuite) login(user *models.User) {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, httptest.NewRequest("GET", fmt.Sprintf("/test/login/%d", user.ID), nil))
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.cookies = w.Result().Cookies()
	suite.Require().NotEmpty(suite.cookies)
}

func (suite *TaskHandlerTestSuite) request(method, url string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range suite.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *TaskHandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (suite *TaskHandlerTestSuite) createTask(name string) dto.TaskDTO {
	w := suite.request("POST", "/api/tasks", gin.H{
		"project_id": suite.project.ID,
		"name":       name,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	return task
}

func (suite *TaskHandlerTestSuite) TestHealth() {
	w := suite.request("GET", "/health", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "ok")
}

func (suite *TaskHandlerTestSuite) TestUnauthenticated() {
	suite.cookies = nil

	w := suite.request("GET", "/api/tasks", nil)

	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *TaskHandlerTestSuite) TestCreateAndGetTask() {
	created := suite.createTask("Write docs")

	assert.Equal(suite.T(), 1, created.TaskNum)
	assert.Equal(suite.T(), "#1", created.IssueNum)
	assert.Equal(suite.T(), "Open", created.StatusType)
	assert.NotNil(suite.T(), created.Weight)
	assert.False(suite.T(), created.Snoozed)

	w := suite.request("GET", fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var fetched dto.TaskDTO
	suite.decode(w, &fetched)
	assert.Equal(suite.T(), created.ID, fetched.ID)
	assert.Equal(suite.T(), "Write docs", fetched.Name)
}

func (suite *TaskHandlerTestSuite) TestCreateWithStatusName() {
	w := suite.request("POST", "/api/tasks", gin.H{
		"project_id": suite.project.ID,
		"name":       "Already fixed",
		"status":     "wont_fix",
		"todos":      []string{"check", "close"},
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	assert.Equal(suite.T(), models.TaskStatusWontFix, task.Status)
	assert.True(suite.T(), task.Done)
	assert.Len(suite.T(), task.Todos, 2)
}

func (suite *TaskHandlerTestSuite) TestCreateTaskErrors() {
	w := suite.request("POST", "/api/tasks", gin.H{"project_id": suite.project.ID})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request("POST", "/api/tasks", gin.H{
		"project_id": suite.project.ID,
		"name":       strings.Repeat("x", constants.MaxTaskNameLength+1),
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "name")

	w = suite.request("POST", "/api/tasks", gin.H{
		"project_id": suite.project.ID,
		"name":       "bad",
		"status":     "sideways",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	other := suite.createProject("Secret")
	w = suite.request("POST", "/api/tasks", gin.H{
		"project_id": other.ID,
		"name":       "sneaky",
	})
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *TaskHandlerTestSuite) TestGetTaskWithoutPermission() {
	created := suite.createTask("Private")

	stranger := suite.createUser("stranger")
	suite.login(stranger)

	w := suite.request("GET", fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("GET", "/api/tasks/abc", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request("GET", "/api/tasks/9999", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestUpdateTask() {
	created := suite.createTask("Fix bug")
	url := fmt.Sprintf("/api/tasks/%d", created.ID)

	w := suite.request("PATCH", url, gin.H{
		"status": "closed",
		"due_at": "2024-02-01T00:00:00Z",
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	assert.True(suite.T(), task.Resolved)
	assert.True(suite.T(), task.Done)
	assert.True(suite.T(), task.Overdue)
	assert.Equal(suite.T(), "<strike>#1</strike> Closed", task.StatusName)
	if assert.NotNil(suite.T(), task.CompletedAt) {
		assert.True(suite.T(), suite.now.Equal(*task.CompletedAt))
	}

	w = suite.request("PATCH", url, gin.H{"status": 0, "due_at": nil})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	task = dto.TaskDTO{}
	suite.decode(w, &task)
	assert.False(suite.T(), task.Resolved)
	assert.Nil(suite.T(), task.CompletedAt)
	assert.Nil(suite.T(), task.DueAt)
	assert.False(suite.T(), task.Overdue)
}

func (suite *TaskHandlerTestSuite) TestUpdateTaskRejectsBadFields() {
	created := suite.createTask("Fix bug")
	url := fmt.Sprintf("/api/tasks/%d", created.ID)

	for _, body := range []gin.H{
		{"name": 12},
		{"priority": "high"},
		{"due_at": "tomorrow"},
		{"wait_for_customer": "yes"},
		{"status": 9},
	} {
		w := suite.request("PATCH", url, body)
		assert.Equal(suite.T(), http.StatusBadRequest, w.Code, "body %v", body)
	}

	w := suite.request("PATCH", url, gin.H{"name": ""})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *TaskHandlerTestSuite) TestWaitForCustomerSnoozes() {
	created := suite.createTask("Need answer")

	w := suite.request("PATCH", fmt.Sprintf("/api/tasks/%d", created.ID), gin.H{"wait_for_customer": true})
	suite.Require().Equal(http.StatusOK, w.Code)

	var task dto.TaskDTO
	suite.decode(w, &task)
	assert.True(suite.T(), task.Snoozed)
	assert.Nil(suite.T(), task.Weight)
	assert.Equal(suite.T(), []scoring.Reason{scoring.ReasonWaitingForCustomer}, task.Reasons)
}

func (suite *TaskHandlerTestSuite) TestDependencies() {
	blocker := suite.createTask("Blocker")
	blocked := suite.createTask("Blocked")
	url := fmt.Sprintf("/api/tasks/%d/dependencies", blocked.ID)

	w := suite.request("POST", url, gin.H{"dependency_id": blocker.ID})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var task dto.TaskDTO
	suite.decode(w, &task)
	assert.Nil(suite.T(), task.Weight)
	assert.Contains(suite.T(), task.Reasons, scoring.ReasonBlockedByDependency)

	w = suite.request("GET", url, nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var deps struct {
		Dependencies []dto.TaskListItemDTO `json:"dependencies"`
	}
	suite.decode(w, &deps)
	if assert.Len(suite.T(), deps.Dependencies, 1) {
		assert.Equal(suite.T(), blocker.ID, deps.Dependencies[0].ID)
	}

	w = suite.request("POST", url, gin.H{"dependency_id": blocked.ID})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request("POST", url, gin.H{"dependency_id": 9999})
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("DELETE", fmt.Sprintf("%s/%d", url, blocker.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	task = dto.TaskDTO{}
	suite.decode(w, &task)
	assert.NotNil(suite.T(), task.Weight)
	assert.False(suite.T(), task.Snoozed)
}

func (suite *TaskHandlerTestSuite) TestDeleteTask() {
	created := suite.createTask("Temporary")
	url := fmt.Sprintf("/api/tasks/%d", created.ID)

	w := suite.request("DELETE", url, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.request("GET", url, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestNotifyAndUnread() {
	created := suite.createTask("Discuss")
	watcher := suite.createUser("watcher")
	base := fmt.Sprintf("/api/tasks/%d", created.ID)

	w := suite.request("POST", base+"/watchers", gin.H{"user_id": watcher.ID})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	w = suite.request("POST", base+"/owners", gin.H{"user_id": suite.user.ID})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = suite.request("POST", base+"/watchers", gin.H{"user_id": 9999})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request("GET", base+"/recipients", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	var recipients dto.RecipientsResponse
	suite.decode(w, &recipients)
	assert.Len(suite.T(), recipients.Recipients, 2)

	w = suite.request("POST", base+"/notify", nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	recipients = dto.RecipientsResponse{}
	suite.decode(w, &recipients)
	if assert.Len(suite.T(), recipients.Recipients, 1) {
		assert.Equal(suite.T(), watcher.ID, recipients.Recipients[0].ID)
	}

	var unread dto.UnreadResponse
	w = suite.request("GET", base+"/unread", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.decode(w, &unread)
	assert.True(suite.T(), unread.Unread)

	w = suite.request("POST", base+"/read", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	unread = dto.UnreadResponse{}
	w = suite.request("GET", base+"/unread", nil)
	suite.decode(w, &unread)
	assert.False(suite.T(), unread.Unread)
}

func (suite *TaskHandlerTestSuite) TestWork() {
	created := suite.createTask("Logged")
	suite.Require().NoError(suite.db.Create(&models.WorkLog{TaskID: created.ID, UserID: suite.user.ID, Duration: 45}).Error)

	w := suite.request("GET", fmt.Sprintf("/api/tasks/%d/work", created.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var work dto.WorkResponse
	suite.decode(w, &work)
	assert.False(suite.T(), work.WorkedOn)
	assert.Equal(suite.T(), []dto.UserWorkDTO{{UserID: suite.user.ID, Minutes: 45}}, work.Users)
}

func (suite *TaskHandlerTestSuite) TestPropertiesAndCustomers() {
	created := suite.createTask("Classify")
	base := fmt.Sprintf("/api/tasks/%d", created.ID)

	property := &models.Property{CompanyID: suite.company.ID, Name: "Type"}
	suite.Require().NoError(suite.db.Create(property).Error)
	value := &models.PropertyValue{PropertyID: property.ID, Value: "Bug"}
	suite.Require().NoError(suite.db.Create(value).Error)
	customer := &models.Customer{CompanyID: suite.company.ID, Name: "Globex"}
	suite.Require().NoError(suite.db.Create(customer).Error)

	w := suite.request("PUT", base+"/properties", gin.H{
		"properties": map[string]uint64{strconv.FormatUint(property.ID, 10): value.ID},
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var task dto.TaskDTO
	suite.decode(w, &task)
	assert.Equal(suite.T(), []dto.PropertyValueDTO{{PropertyID: property.ID, PropertyValueID: value.ID, Value: "Bug"}}, task.PropertyValues)

	w = suite.request("GET", fmt.Sprintf("%s/properties/%d", base, property.ID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "Bug")

	w = suite.request("PUT", fmt.Sprintf("%s/properties/%d", base, property.ID), gin.H{"value_id": nil})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	task = dto.TaskDTO{}
	suite.decode(w, &task)
	assert.Empty(suite.T(), task.PropertyValues)

	w = suite.request("PUT", fmt.Sprintf("%s/properties/%d", base, property.ID), gin.H{"value_id": 9999})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.request("PUT", base+"/customers", gin.H{"customer_ids": []uint64{customer.ID}})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	task = dto.TaskDTO{}
	suite.decode(w, &task)
	assert.Equal(suite.T(), []dto.CustomerDTO{{ID: customer.ID, Name: "Globex"}}, task.Customers)

	w = suite.request("PUT", base+"/customers", gin.H{"customer_ids": []uint64{9999}})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestListTasks() {
	first := suite.createTask("First")
	suite.createTask("Second")
	suite.createTask("Third")

	w := suite.request("PATCH", fmt.Sprintf("/api/tasks/%d", first.ID), gin.H{"wait_for_customer": true})
	suite.Require().Equal(http.StatusOK, w.Code)

	w = suite.request("GET", "/api/tasks?sort=weight&page=1&page_size=2", nil)
	suite.Require().Equal(http.StatusOK, w.Code)

	var list dto.TaskListResponse
	suite.decode(w, &list)
	assert.Equal(suite.T(), int64(3), list.Pagination.Total)
	assert.Equal(suite.T(), 2, list.Pagination.TotalPages)
	assert.Len(suite.T(), list.Tasks, 2)
	for _, item := range list.Tasks {
		assert.NotEqual(suite.T(), first.ID, item.ID)
		assert.False(suite.T(), item.Snoozed)
	}

	w = suite.request("GET", "/api/tasks?scored_only=true", nil)
	list = dto.TaskListResponse{}
	suite.decode(w, &list)
	assert.Equal(suite.T(), int64(2), list.Pagination.Total)

	w = suite.request("GET", "/api/tasks?status=open&milestone_id=x", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *TaskHandlerTestSuite) TestMilestoneStatus() {
	milestone := &models.Milestone{ProjectID: suite.project.ID, Name: "v1", Status: models.MilestoneStatusOpen}
	suite.Require().NoError(suite.db.Create(milestone).Error)

	w := suite.request("POST", "/api/tasks", gin.H{
		"project_id":   suite.project.ID,
		"milestone_id": milestone.ID,
		"name":         "Scheduled",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var created dto.TaskDTO
	suite.decode(w, &created)
	assert.NotNil(suite.T(), created.Weight)

	url := fmt.Sprintf("/api/milestones/%d", milestone.ID)
	statusURL := url + "/status"
	w = suite.request("PATCH", statusURL, gin.H{"status": "planning"})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var m dto.MilestoneDTO
	suite.decode(w, &m)
	assert.Equal(suite.T(), models.MilestoneStatusPlanning, m.Status)

	w = suite.request("GET", fmt.Sprintf("/api/tasks/%d", created.ID), nil)
	var task dto.TaskDTO
	suite.decode(w, &task)
	assert.Nil(suite.T(), task.Weight)
	assert.Contains(suite.T(), task.Reasons, scoring.ReasonMilestonePlanning)

	w = suite.request("PATCH", statusURL, gin.H{"status": "someday"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	suite.login(suite.createUser("outsider"))
	w = suite.request("GET", url, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *TaskHandlerTestSuite) TestMetricsEndpoint() {
	suite.createTask("Counted")

	w := suite.request("GET", "/metrics", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
	assert.Contains(suite.T(), w.Body.String(), "jobsworth_tasks_scored_total")
}

// TestTaskHandlerTestSuite runs the test suite
func TestTaskHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TaskHandlerTestSuite))
}

func TestParseTaskPatch(t *testing.T) {
	input, err := parseTaskPatch(map[string]any{
		"name":         "renamed",
		"status":       "Won't fix",
		"priority":     float64(3),
		"hide_until":   nil,
		"milestone_id": float64(7),
	})
	assert.NoError(t, err)
	assert.Equal(t, "renamed", *input.Name)
	assert.Equal(t, models.TaskStatusWontFix, *input.Status)
	assert.Equal(t, 3, *input.Priority)
	assert.True(t, input.ClearHideUntil)
	assert.Equal(t, uint64(7), *input.MilestoneID)
	assert.Nil(t, input.Description)
	assert.False(t, input.ClearDueAt)

	_, err = parseTaskPatch(map[string]any{"priority": 1.5})
	assert.Error(t, err)

	_, err = parseTaskPatch(map[string]any{"milestone_id": float64(-1)})
	assert.Error(t, err)
}

func TestParseTaskPatchNormalizesToUTC(t *testing.T) {
	input, err := parseTaskPatch(map[string]any{
		"hide_until": "2024-03-01T20:00:00+09:00",
		"due_at":     "2024-03-02T09:00:00-05:00",
	})
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, input.HideUntil.Location())
	assert.Equal(t, time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), *input.HideUntil)
	assert.Equal(t, time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC), *input.DueAt)
}
