package mailer

import (
	"fmt"

	"github.com/sitetrack/sitetrack-backend/pkg/logger"
)

type Service interface {
	Send(toEmail, toName, subject, text, html string) (string, error)
	SendImportDigest(toEmail, toName, fileName string, imported, created, failed int) error
	SendIssueAssigned(toEmail, toName, issueTitle, projectName string) error
}

// DevMailer logs mail instead of sending it; the default outside production.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) Send(toEmail, toName, subject, text, html string) (string, error) {
	logger.Info("[DEV MAIL]", "to", toEmail, "name", toName, "subject", subject, "body", text)
	return "dev", nil
}

func (d *DevMailer) SendImportDigest(toEmail, toName, fileName string, imported, created, failed int) error {
	_, err := d.Send(toEmail, toName, "Attendance import summary",
		fmt.Sprintf("%s: %d records imported, %d workers created, %d rows failed", fileName, imported, created, failed), "")
	return err
}

func (d *DevMailer) SendIssueAssigned(toEmail, toName, issueTitle, projectName string) error {
	_, err := d.Send(toEmail, toName, "Issue assigned to you",
		fmt.Sprintf("You were assigned %q on project %s", issueTitle, projectName), "")
	return err
}

func importDigestBody(fileName string, imported, created, failed int) (subject, text, html string) {
	subject = "Attendance import summary"
	text = fmt.Sprintf("Import of %s finished.\nRecords imported: %d\nWorkers auto-created: %d\nRows failed: %d",
		fileName, imported, created, failed)
	html = fmt.Sprintf(`<p>Import of <b>%s</b> finished.</p><ul><li>Records imported: %d</li><li>Workers auto-created: %d</li><li>Rows failed: %d</li></ul>`,
		fileName, imported, created, failed)
	return
}

func issueAssignedBody(issueTitle, projectName string) (subject, text, html string) {
	subject = "Issue assigned to you"
	text = fmt.Sprintf("You were assigned the issue %q on project %s.", issueTitle, projectName)
	html = fmt.Sprintf(`<p>You were assigned the issue <b>%s</b> on project %s.</p>`, issueTitle, projectName)
	return
}
