package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/lemeur/confirm-by-email/model"
	"github.com/pkg/errors"
)

// Surveys reads survey structure and submitted responses. Everything
// here is read-only: the notification path never writes survey data.
type Surveys struct {
	db *sql.DB
}

func NewSurveys(db *sql.DB) *Surveys {
	return &Surveys{db: db}
}

var ErrNotFound = errors.New("not found")

func (s *Surveys) Get(ctx context.Context, surveyID int) (model.Survey, error) {
	survey := model.Survey{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, language, additional_languages, active, htmlemail, datestamp, adminemail, bounce_email
		FROM survey
		WHERE id = ?`,
		surveyID,
	).Scan(
		&survey.ID, &survey.Language, &survey.AdditionalLanguages, &survey.Active,
		&survey.HTMLEmail, &survey.Datestamp, &survey.AdminEmail, &survey.BounceEmail,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return survey, ErrNotFound
	}
	return survey, errors.Wrap(err, "surveys.get")
}

// Questions returns the survey's questions in structural order.
func (s *Surveys) Questions(ctx context.Context, surveyID int) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT q.id, q.group_id, q.code, q.type, q.relevance
		FROM question q
		INNER JOIN question_group g ON (g.id = q.group_id)
		WHERE q.survey_id = ?
		ORDER BY g.sort_order, q.sort_order, q.id`,
		surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "surveys.questions")
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q := model.Question{}
		err = rows.Scan(&q.ID, &q.GroupID, &q.Code, &q.Type, &q.Relevance)
		if err != nil {
			return nil, errors.Wrap(err, "surveys.questions.scan")
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Response returns a completed response as a field code to value map,
// including the reserved fields id, submitdate, startlanguage and
// lastpage.
func (s *Surveys) Response(ctx context.Context, surveyID, responseID int) (map[string]string, error) {
	var submitdate, startlanguage string
	var lastpage int
	err := s.db.QueryRowContext(ctx, `
		SELECT submitdate, startlanguage, lastpage
		FROM response
		WHERE id = ? AND survey_id = ?`,
		responseID, surveyID,
	).Scan(&submitdate, &startlanguage, &lastpage)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "surveys.response")
	}

	response := map[string]string{
		"id":            strconv.Itoa(responseID),
		"submitdate":    submitdate,
		"startlanguage": startlanguage,
		"lastpage":      strconv.Itoa(lastpage),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, value FROM response_field
		WHERE response_id = ?`,
		responseID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "surveys.response.fields")
	}
	defer rows.Close()

	for rows.Next() {
		var code, value string
		err = rows.Scan(&code, &value)
		if err != nil {
			return nil, errors.Wrap(err, "surveys.response.fields.scan")
		}
		response[code] = value
	}
	return response, rows.Err()
}

// FullResponseTable returns the localized, ordered row sequence used to
// render the answer table: leading meta rows, then per group a "gid_"
// header row, per question a "qid_" header row followed by its data row.
// Question and group texts fall back to the survey base language when no
// translation exists for lang.
func (s *Surveys) FullResponseTable(ctx context.Context, surveyID, responseID int, lang string) ([]model.ResponseTableRow, error) {
	survey, err := s.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	response, err := s.Response(ctx, surveyID, responseID)
	if err != nil {
		return nil, err
	}

	table := []model.ResponseTableRow{
		{Field: "id", Question: "Response ID", Answer: response["id"]},
		{Field: "submitdate", Question: "Date submitted", Answer: response["submitdate"]},
		{Field: "lastpage", Question: "Last page", Answer: response["lastpage"]},
		{Field: "startlanguage", Question: "Start language", Answer: response["startlanguage"]},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			g.id, COALESCE(gl.title, gb.title, ''),
			q.id, q.code, COALESCE(ql.text, qb.text, q.code)
		FROM question_group g
		INNER JOIN question q ON (q.group_id = g.id)
		LEFT OUTER JOIN question_group_l10n gl ON (gl.group_id = g.id AND gl.language = ?)
		LEFT OUTER JOIN question_group_l10n gb ON (gb.group_id = g.id AND gb.language = ?)
		LEFT OUTER JOIN question_l10n ql ON (ql.question_id = q.id AND ql.language = ?)
		LEFT OUTER JOIN question_l10n qb ON (qb.question_id = q.id AND qb.language = ?)
		WHERE g.survey_id = ?
		ORDER BY g.sort_order, g.id, q.sort_order, q.id`,
		lang, survey.Language, lang, survey.Language, surveyID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "surveys.full_response_table")
	}
	defer rows.Close()

	lastGroup := 0
	for rows.Next() {
		var groupID, questionID int
		var groupTitle, code, text string
		err = rows.Scan(&groupID, &groupTitle, &questionID, &code, &text)
		if err != nil {
			return nil, errors.Wrap(err, "surveys.full_response_table.scan")
		}

		if groupID != lastGroup {
			table = append(table, model.ResponseTableRow{
				Field:    fmt.Sprintf("gid_%d", groupID),
				Question: groupTitle,
			})
			lastGroup = groupID
		}
		table = append(table, model.ResponseTableRow{
			Field:    fmt.Sprintf("qid_%d", questionID),
			Question: text,
		})
		table = append(table, model.ResponseTableRow{
			Field:    code,
			Question: text,
			Answer:   response[code],
		})
	}
	return table, rows.Err()
}
