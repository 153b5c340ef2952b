package plugin

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lemeur/confirm-by-email/model"
)

const (
	testSurveyID   = 7
	testResponseID = 55
)

func seedFixture(t *testing.T, db *sql.DB, survey model.Survey) {
	t.Helper()
	seedSurvey(t, db, survey)
	seedGroup(t, db, 1, survey.ID, 1, map[string]string{"en": "Personal", "de": "Persönliches"})
	seedQuestion(t, db, survey.ID, 1,
		model.Question{ID: 101, GroupID: 1, Code: "name", Type: "T", Relevance: "1"},
		map[string]string{"en": "What is your name?", "de": "Wie heißen Sie?"})
	seedQuestion(t, db, survey.ID, 2,
		model.Question{ID: 102, GroupID: 1, Code: "age", Type: "N", Relevance: "1"},
		map[string]string{"en": "How old are you?"})
	seedQuestion(t, db, survey.ID, 3,
		model.Question{ID: 103, GroupID: 1, Code: "PHOTO", Type: "|", Relevance: "age > 18"},
		map[string]string{"en": "Upload a photo"})
}

func activeSurvey() model.Survey {
	return model.Survey{
		ID:          testSurveyID,
		Language:    "en",
		Active:      "Y",
		HTMLEmail:   "Y",
		Datestamp:   "N",
		AdminEmail:  "admin@site.tld",
		BounceEmail: "bounce@site.tld",
	}
}

func newTestPlugin(t *testing.T) (*Plugin, *fakeTransport, *sql.DB) {
	t.Helper()
	db := openTestDB(t)
	transport := &fakeTransport{}
	return New(db, transport, testConfig()), transport, db
}

func configure(t *testing.T, p *Plugin, settings map[string]string) {
	t.Helper()
	require.NoError(t, p.SaveSurveySettings(context.Background(), testSurveyID, settings))
}

func TestAfterSurveyCompleteNotConfigured(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{"name": "Bob"})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, transport.sent)
}

func TestAfterSurveyCompleteInactiveSurvey(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	survey := activeSurvey()
	survey.Active = "N"
	seedFixture(t, db, survey)
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailSubject_1_en":   "Thanks",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, transport.sent)
}

func TestAfterSurveyCompleteSendsConfirmation(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "2024-05-01 10:00:00", map[string]string{
		"name": "Bob",
		"age":  "30",
	})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com; bad; b@y.com",
		"emailAttachFiles_1":  "",
		"emailLang_1":         "--",
		"emailSubject_1_en":   "Thanks {name}",
		"emailBody_1_en":      "Your answers:\n{ANSWERTABLE}",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, SlotSent, results[0].Status)
	require.Equal(t, []string{"a@x.com", "b@y.com"}, results[0].To)
	require.Zero(t, results[0].Attachments)
	require.NotEmpty(t, results[0].MessageID)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	require.Equal(t, []string{"a@x.com", "b@y.com"}, msg.To)
	require.Equal(t, "Thanks Bob", msg.Subject)
	require.Equal(t, "admin@site.tld", msg.From)
	require.Equal(t, "My Survey Site", msg.FromName)
	require.Equal(t, "bounce@site.tld", msg.Bounce)
	require.True(t, msg.HTML)
	require.Empty(t, msg.Attachments)

	// HTML flag set: the markup rendering is substituted
	require.Contains(t, msg.Body, "Your answers:")
	require.Contains(t, msg.Body, "<table class='printouttable' >")
	require.Contains(t, msg.Body, "What is your name?")
	require.Contains(t, msg.Body, "Bob")
	// datestamp disabled: the submitdate row is filtered out
	require.NotContains(t, msg.Body, "Date submitted")
}

func TestAfterSurveyCompleteTextBody(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	survey := activeSurvey()
	survey.HTMLEmail = "N"
	survey.Datestamp = "Y"
	seedFixture(t, db, survey)
	seedResponse(t, db, testResponseID, testSurveyID, "en", "2024-05-01 10:00:00", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailSubject_1_en":   "Thanks",
		"emailBody_1_en":      "{ANSWERTABLE}",
	})

	_, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	msg := transport.sent[0]
	require.False(t, msg.HTML)
	require.NotContains(t, msg.Body, "<table")
	require.Contains(t, msg.Body, "What is your name?")
	// datestamp enabled: submitdate stays in the table
	require.Contains(t, msg.Body, "Date submitted")
	require.Contains(t, msg.Body, "2024-05-01 10:00:00")
}

func TestAfterSurveyCompleteNoValidDestination(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "not-an-address; ;also bad",
		"emailSubject_1_en":   "Thanks",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, SlotSkipped, results[0].Status)
	require.Equal(t, "no valid destination address", results[0].Reason)
	require.Empty(t, transport.sent)
}

func TestAfterSurveyCompleteLanguageFallback(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	survey := activeSurvey()
	survey.AdditionalLanguages = "de"
	seedFixture(t, db, survey)
	// submitted in German, but no German translation is stored
	seedResponse(t, db, testResponseID, testSurveyID, "de", "", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailLang_1":         "--",
		"emailSubject_1_en":   "Thanks {name}",
		"emailBody_1_en":      "Hello {name}",
		"emailBody_1_de":      "Hallo {name}",
	})

	_, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)

	// base language is used for both subject and body
	require.Len(t, transport.sent, 1)
	require.Equal(t, "Thanks Bob", transport.sent[0].Subject)
	require.Equal(t, "Hello Bob", transport.sent[0].Body)
}

func TestAfterSurveyCompleteTranslatedSlot(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	survey := activeSurvey()
	survey.AdditionalLanguages = "de"
	seedFixture(t, db, survey)
	seedResponse(t, db, testResponseID, testSurveyID, "de", "", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailLang_1":         "--",
		"emailSubject_1_en":   "Thanks {name}",
		"emailSubject_1_de":   "Danke {name}",
		"emailBody_1_de":      "Hallo {name}",
	})

	_, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)

	require.Len(t, transport.sent, 1)
	require.Equal(t, "Danke Bob", transport.sent[0].Subject)
	require.Equal(t, "Hallo Bob", transport.sent[0].Body)
}

func TestAfterSurveyCompleteAttachments(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{
		"name":  "Bob",
		"age":   "30",
		"PHOTO": `[{"name":"portrait.jpg","filename":"fu_abc123.jpg"},{"name":"nofile.jpg"}]`,
	})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailAttachFiles_1":  "PHOTO; name",
		"emailSubject_1_en":   "Thanks",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, SlotSent, results[0].Status)
	require.Equal(t, 1, results[0].Attachments)

	require.Len(t, transport.sent, 1)
	attachments := transport.sent[0].Attachments
	// PHOTO contributes its complete descriptor only; "name" is not a
	// file-upload question and contributes nothing
	require.Len(t, attachments, 1)
	require.Equal(t, "/var/lime/upload/surveys/7/files/fu_abc123.jpg", attachments[0].Path)
	require.Equal(t, "portrait.jpg", attachments[0].Name)
}

func TestAfterSurveyCompleteIrrelevantUploadExcluded(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	// age 15: the PHOTO question (relevance "age > 18") was not shown
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{
		"name":  "Bob",
		"age":   "15",
		"PHOTO": `[{"name":"portrait.jpg","filename":"fu_abc123.jpg"}]`,
	})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailAttachFiles_1":  "PHOTO",
		"emailSubject_1_en":   "Thanks",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Equal(t, SlotSent, results[0].Status)
	require.Zero(t, results[0].Attachments)
	require.Empty(t, transport.sent[0].Attachments)
}

func TestAfterSurveyCompleteMalformedUploadValue(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{
		"name":  "Bob",
		"age":   "30",
		"PHOTO": `not json`,
	})
	configure(t, p, map[string]string{
		"emailCount":          "1",
		"emailDestinations_1": "a@x.com",
		"emailAttachFiles_1":  "PHOTO",
		"emailSubject_1_en":   "Thanks",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Equal(t, SlotSent, results[0].Status)
	require.Empty(t, transport.sent[0].Attachments)
}

func TestAfterSurveyCompleteSlotsAreIndependent(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "3",
		"emailDestinations_1": "first@x.com",
		"emailSubject_1_en":   "First",
		"emailDestinations_2": "invalid",
		"emailSubject_2_en":   "Second",
		"emailDestinations_3": "third@x.com",
		"emailSubject_3_en":   "Third",
	})

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, SlotSent, results[0].Status)
	require.Equal(t, SlotSkipped, results[1].Status)
	require.Equal(t, SlotSent, results[2].Status)

	require.Len(t, transport.sent, 2)
	require.Equal(t, "First", transport.sent[0].Subject)
	require.Equal(t, "Third", transport.sent[1].Subject)
}

func TestAfterSurveyCompleteTransportFailureDoesNotAbort(t *testing.T) {
	p, transport, db := newTestPlugin(t)
	seedFixture(t, db, activeSurvey())
	seedResponse(t, db, testResponseID, testSurveyID, "en", "", map[string]string{"name": "Bob"})
	configure(t, p, map[string]string{
		"emailCount":          "2",
		"emailDestinations_1": "first@x.com",
		"emailSubject_1_en":   "First",
		"emailDestinations_2": "second@x.com",
		"emailSubject_2_en":   "Second",
	})
	transport.failNext = errSMTPDown

	results, err := p.AfterSurveyComplete(context.Background(), testSurveyID, testResponseID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, SlotFailed, results[0].Status)
	require.Contains(t, results[0].Reason, "smtp down")
	require.Equal(t, SlotSent, results[1].Status)

	require.Len(t, transport.sent, 1)
	require.Equal(t, "Second", transport.sent[0].Subject)
}
