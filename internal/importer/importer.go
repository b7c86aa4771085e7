package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/sitetrack/sitetrack-backend/internal/domain"
	"github.com/sitetrack/sitetrack-backend/internal/platform/mailer"
	"github.com/sitetrack/sitetrack-backend/pkg/config"
	"github.com/sitetrack/sitetrack-backend/pkg/events"
	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

// Fatal import errors. Row-level problems never abort a run; these do.
var (
	ErrNoProjectAvailable = errors.New("no project available to attach imported attendance to")
	ErrMissingLogSection  = errors.New("file has no Attendance Logs section")
	ErrMissingLogColumns  = errors.New("Attendance Logs section is missing User ID or Timestamp columns")
	ErrFileTooLarge       = errors.New("uploaded file exceeds the size limit")
)

// Importer orchestrates one attendance file import end to end: section
// parsing, worker resolution, scan merging, and the post-import side effects.
type Importer struct {
	users      UserStore
	attendance AttendanceStore
	projects   ProjectStore
	activity   ActivityStore
	bus        events.Publisher
	mail       mailer.Service
	cfg        config.ImportConfig
}

func New(users UserStore, attendance AttendanceStore, projects ProjectStore, activity ActivityStore, bus events.Publisher, mail mailer.Service, cfg config.ImportConfig) *Importer {
	return &Importer{
		users:      users,
		attendance: attendance,
		projects:   projects,
		activity:   activity,
		bus:        bus,
		mail:       mail,
		cfg:        cfg,
	}
}

// Run processes one uploaded file on behalf of actor. Row-level failures are
// collected into the result; the returned error is fatal and means nothing
// was reported back.
func (im *Importer) Run(ctx context.Context, actor *domain.User, fileName string, file io.Reader) (*Result, error) {
	raw, err := io.ReadAll(io.LimitReader(file, im.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > im.cfg.MaxUploadBytes {
		return nil, ErrFileTooLarge
	}

	defaultProject, err := im.defaultProject(ctx, actor)
	if err != nil {
		return nil, err
	}

	sections := ParseSections(string(raw))

	logs := FindSection(sections, SectionAttendanceLogs)
	if logs == nil {
		return nil, ErrMissingLogSection
	}
	userIDCol := logs.ColumnContains("user id")
	tsCol := logs.ColumnContains("timestamp")
	if userIDCol < 0 || tsCol < 0 {
		return nil, ErrMissingLogColumns
	}

	sess := NewSession()
	resolver := NewResolver(im.users, im.cfg)
	if err := resolver.Load(ctx); err != nil {
		return nil, err
	}

	// The User List section is optional; without it the log rows fall back
	// to direct and positional lookups.
	if userList := FindSection(sections, SectionUserList); userList != nil {
		im.resolveUserList(ctx, sess, resolver, userList, defaultProject)
	}

	engine := NewMergeEngine(im.users, im.attendance, resolver)
	for _, row := range logs.Rows {
		rawID := Field(row, userIDCol)
		rawTS := Field(row, tsCol)
		if rawID == "" || rawTS == "" {
			continue
		}

		userID, ok := engine.resolveLogUser(ctx, sess, rawID)
		if !ok {
			sess.AddError(fmt.Sprintf("User with ID %s could not be found or created", rawID))
			continue
		}

		ts, err := parseScanTime(rawTS)
		if err != nil {
			sess.AddError(fmt.Sprintf("Invalid timestamp %q for user %s", rawTS, rawID))
			continue
		}

		if err := engine.Apply(ctx, sess, userID, ts, defaultProject); err != nil {
			sess.AddError(fmt.Sprintf("Failed to record attendance for user %s: %v", rawID, err))
		}
	}

	touched := sess.Touched()
	if len(touched) > 0 {
		im.afterImport(ctx, actor, fileName, sess)
	}

	expanded, err := im.attendance.ListByIDs(ctx, touched)
	if err != nil {
		return nil, fmt.Errorf("load imported records: %w", err)
	}

	return &Result{
		Success:      true,
		Message:      fmt.Sprintf("Imported %d attendance records from %s", len(touched), fileName),
		Count:        len(touched),
		Data:         expanded,
		UserListInfo: sess.Diagnostics,
		Errors:       sess.Errors,
	}, nil
}

func (im *Importer) resolveUserList(ctx context.Context, sess *Session, resolver *Resolver, sec *Section, defaultProject uuid.UUID) {
	idCol := sec.ColumnExact("id")
	if idCol < 0 {
		idCol = sec.ColumnExact("uid")
	}
	nameCol := sec.ColumnContains("name")
	if idCol < 0 || nameCol < 0 {
		return
	}
	for _, row := range sec.Rows {
		csvID := Field(row, idCol)
		csvName := Field(row, nameCol)
		if csvID == "" || csvName == "" {
			continue
		}
		resolver.ResolveEntry(ctx, sess, csvID, csvName, defaultProject)
	}
}

// defaultProject picks the project imported records and provisioned workers
// attach to: admins get the oldest project, everyone else their first
// assigned one.
func (im *Importer) defaultProject(ctx context.Context, actor *domain.User) (uuid.UUID, error) {
	if actor.IsAdmin() {
		projects, err := im.projects.List(ctx)
		if err != nil {
			return uuid.Nil, fmt.Errorf("list projects: %w", err)
		}
		if len(projects) == 0 {
			return uuid.Nil, ErrNoProjectAvailable
		}
		return projects[0].ID, nil
	}

	if len(actor.ProjectIDs) == 0 {
		return uuid.Nil, ErrNoProjectAvailable
	}
	return actor.ProjectIDs[0], nil
}

// afterImport records the audit entry, publishes the import event and mails
// the digest. These are best-effort; failures are logged, not surfaced.
func (im *Importer) afterImport(ctx context.Context, actor *domain.User, fileName string, sess *Session) {
	detail := fmt.Sprintf("Imported %s: %d records, %d users created, %d errors",
		fileName, len(sess.Touched()), sess.CreatedUsers, len(sess.Errors))

	if _, err := im.activity.Create(ctx, &domain.Activity{
		UserID:     actor.ID,
		Action:     "attendance_import",
		TargetType: "attendance",
		Detail:     detail,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to record import activity", "error", err)
	}

	if err := im.bus.Publish(ctx, events.AttendanceImported, events.AttendanceImportedEvent{
		ImportedBy:   actor.ID,
		FileName:     fileName,
		RecordCount:  len(sess.Touched()),
		CreatedUsers: sess.CreatedUsers,
		ErrorCount:   len(sess.Errors),
		ImportedAt:   time.Now(),
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to publish import event", "error", err)
	}

	if err := im.mail.SendImportDigest(actor.Email, actor.Name, fileName,
		len(sess.Touched()), sess.CreatedUsers, len(sess.Errors)); err != nil {
		logger.WarnContext(ctx, "Failed to send import digest", "error", err)
	}
}
