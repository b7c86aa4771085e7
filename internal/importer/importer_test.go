package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
)

type importFixture struct {
	users      *memUserStore
	attendance *memAttendanceStore
	projects   *memProjectStore
	activity   *memActivityStore
	bus        *memBus
	mail       *memMailer
	imp        *Importer
	admin      *domain.User
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	users := &memUserStore{}
	attendance := newMemAttendanceStore(users)
	projects := &memProjectStore{projects: []domain.Project{
		{ID: uuid.New(), Name: "Riverside Tower", Status: domain.ProjectActive, CreatedAt: time.Now()},
	}}
	activity := &memActivityStore{}
	bus := &memBus{}
	mail := &memMailer{}

	users.add("Site Admin", "admin@site.example")
	users.users[0].Role = domain.RoleAdmin
	adminCopy := users.users[0]

	return &importFixture{
		users:      users,
		attendance: attendance,
		projects:   projects,
		activity:   activity,
		bus:        bus,
		mail:       mail,
		imp:        New(users, attendance, projects, activity, bus, mail, testImportConfig()),
		admin:      &adminCopy,
	}
}

const sampleFile = `"User List"
ID,Name
1,"7 Kumar"
2,Meena

"Attendance Logs"
User ID,Timestamp
1,2025-03-10 08:00:00
1,2025-03-10 17:30:00
2,2025-03-10T09:00:00
,2025-03-10 10:00:00
9,2025-03-10 10:00:00
`

func TestRunFullImport(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.imp.Run(context.Background(), f.admin, "biometric.csv", strings.NewReader(sampleFile))
	require.NoError(t, err)

	assert.True(t, result.Success)
	// Kumar merged into one record, Meena one record.
	assert.Equal(t, 2, result.Count)
	require.Len(t, result.Data, 2)

	// Workers were provisioned from the User List.
	require.Len(t, result.UserListInfo, 2)
	assert.Equal(t, "Kumar", result.UserListInfo[0].ActualName)
	assert.Equal(t, MappingCreated, result.UserListInfo[0].Status)
	assert.Equal(t, MappingCreated, result.UserListInfo[1].Status)

	// Kumar's scans folded to the min/max span.
	kumar := result.Data[0]
	assert.Equal(t, "Kumar", kumar.UserName)
	assert.Equal(t, 9.5, kumar.WorkHours)

	// The empty user-id row is skipped silently; the out-of-range id "9"
	// is reported.
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "User with ID 9 could not be found or created", result.Errors[0])

	// Side effects fired once.
	assert.Equal(t, []string{events.AttendanceImported}, f.bus.published)
	assert.Equal(t, 1, f.mail.digests)
	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, "attendance_import", f.activity.entries[0].Action)
}

func TestRunPositionalFallbackWithoutUserList(t *testing.T) {
	f := newImportFixture(t)
	worker := f.users.add("Lakshmi", "lakshmi@site.example")

	file := `Attendance Logs
User ID,Timestamp
2,2025-03-12 07:45:00
2,2025-03-12 16:15:00
`
	result, err := f.imp.Run(context.Background(), f.admin, "logs.csv", strings.NewReader(file))
	require.NoError(t, err)

	// Position 2 in creation order is Lakshmi (the admin is position 1).
	require.Equal(t, 1, result.Count)
	assert.Equal(t, worker.ID, result.Data[0].UserID)
	assert.Equal(t, 8.5, result.Data[0].WorkHours)
	assert.Empty(t, result.UserListInfo)
}

func TestRunMissingLogSection(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.imp.Run(context.Background(), f.admin, "bad.csv", strings.NewReader("User List\nID,Name\n1,Someone\n"))
	assert.ErrorIs(t, err, ErrMissingLogSection)
}

func TestRunMissingLogColumns(t *testing.T) {
	f := newImportFixture(t)

	file := "Attendance Logs\nBadge,When\n1,2025-03-10 08:00:00\n"
	_, err := f.imp.Run(context.Background(), f.admin, "bad.csv", strings.NewReader(file))
	assert.ErrorIs(t, err, ErrMissingLogColumns)
}

func TestRunNoProjectAvailable(t *testing.T) {
	f := newImportFixture(t)
	f.projects.projects = nil

	_, err := f.imp.Run(context.Background(), f.admin, "logs.csv", strings.NewReader(sampleFile))
	assert.ErrorIs(t, err, ErrNoProjectAvailable)
}

func TestRunNonAdminUsesAssignedProject(t *testing.T) {
	f := newImportFixture(t)
	project := uuid.New()
	manager := f.users.add("Manager", "manager@site.example")
	f.users.users[len(f.users.users)-1].Role = domain.RoleManager
	f.users.users[len(f.users.users)-1].ProjectIDs = []uuid.UUID{project}
	managerCopy := f.users.users[len(f.users.users)-1]

	file := `Attendance Logs
User ID,Timestamp
2,2025-03-12 08:00:00
`
	result, err := f.imp.Run(context.Background(), &managerCopy, "logs.csv", strings.NewReader(file))
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.NotNil(t, result.Data[0].ProjectID)
	assert.Equal(t, project, *result.Data[0].ProjectID)
	assert.Equal(t, manager.ID, result.Data[0].UserID)
}

func TestRunNonAdminWithoutProjectRejected(t *testing.T) {
	f := newImportFixture(t)
	employee := f.users.add("Employee", "employee@site.example")

	_, err := f.imp.Run(context.Background(), &employee, "logs.csv", strings.NewReader(sampleFile))
	assert.ErrorIs(t, err, ErrNoProjectAvailable)
}

func TestRunFileTooLarge(t *testing.T) {
	f := newImportFixture(t)
	huge := strings.Repeat("x", int(testImportConfig().MaxUploadBytes)+1)

	_, err := f.imp.Run(context.Background(), f.admin, "huge.csv", strings.NewReader(huge))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}
