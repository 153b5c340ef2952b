package plugin

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lemeur/confirm-by-email/config"
	"github.com/lemeur/confirm-by-email/database"
	"github.com/lemeur/confirm-by-email/mailer"
	"github.com/lemeur/confirm-by-email/model"
)

var errSMTPDown = fmt.Errorf("smtp down")

type fakeTransport struct {
	sent     []mailer.Message
	failNext error
}

func (f *fakeTransport) Send(msg mailer.Message) error {
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func testConfig() config.Config {
	return config.Config{
		MaxEmails: 5,
		SiteName:  "My Survey Site",
		UploadDir: "/var/lime/upload",
	}
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func mustExec(t *testing.T, db *sql.DB, query string, args ...any) {
	t.Helper()
	_, err := db.Exec(query, args...)
	require.NoError(t, err)
}

func seedSurvey(t *testing.T, db *sql.DB, s model.Survey) {
	t.Helper()
	mustExec(t, db, `
		INSERT INTO survey (id, language, additional_languages, active, htmlemail, datestamp, adminemail, bounce_email)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Language, s.AdditionalLanguages, s.Active, s.HTMLEmail, s.Datestamp, s.AdminEmail, s.BounceEmail)
}

func seedGroup(t *testing.T, db *sql.DB, id, surveyID, order int, titles map[string]string) {
	t.Helper()
	mustExec(t, db, `INSERT INTO question_group (id, survey_id, sort_order) VALUES (?, ?, ?)`, id, surveyID, order)
	for lang, title := range titles {
		mustExec(t, db, `INSERT INTO question_group_l10n (group_id, language, title) VALUES (?, ?, ?)`, id, lang, title)
	}
}

func seedQuestion(t *testing.T, db *sql.DB, surveyID, order int, q model.Question, texts map[string]string) {
	t.Helper()
	mustExec(t, db, `
		INSERT INTO question (id, survey_id, group_id, code, type, relevance, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, surveyID, q.GroupID, q.Code, q.Type, q.Relevance, order)
	for lang, text := range texts {
		mustExec(t, db, `INSERT INTO question_l10n (question_id, language, text) VALUES (?, ?, ?)`, q.ID, lang, text)
	}
}

func seedResponse(t *testing.T, db *sql.DB, responseID, surveyID int, startlanguage, submitdate string, fields map[string]string) {
	t.Helper()
	mustExec(t, db, `
		INSERT INTO response (id, survey_id, submitdate, startlanguage, lastpage)
		VALUES (?, ?, ?, ?, ?)`,
		responseID, surveyID, submitdate, startlanguage, 1)
	for code, value := range fields {
		mustExec(t, db, `INSERT INTO response_field (response_id, code, value) VALUES (?, ?, ?)`, responseID, code, value)
	}
}
