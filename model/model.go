package model

// Survey carries the per-survey properties the notification path reads.
// Flags keep the host platform's "Y"/"N" convention.
type Survey struct {
	ID                  int    `json:"id"`
	Language            string `json:"language"`
	AdditionalLanguages string `json:"additionalLanguages"`
	Active              string `json:"active"`
	HTMLEmail           string `json:"htmlEmail"`
	Datestamp           string `json:"datestamp"`
	AdminEmail          string `json:"adminEmail"`
	BounceEmail         string `json:"bounceEmail"`
}

// Question is one question instance of a survey. ID doubles as the
// platform-internal (SGQA) identifier: non-zero means resolvable.
type Question struct {
	ID        int
	GroupID   int
	Code      string
	Type      string
	Relevance string
}

// QTFileUpload is the question-type marker of file-upload questions.
// Attachment resolution matches against exactly this type.
const QTFileUpload = "|"

// UploadedFile is one entry of a file-upload question's stored value
// (a JSON array of these).
type UploadedFile struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
	Ext      string `json:"ext,omitempty"`
}

// ResponseTableRow is one row of the full response table.
// Field is either "gid_<id>" (group header), "qid_<id>" (question header)
// or a response field name (data row).
type ResponseTableRow struct {
	Field       string `json:"field"`
	Question    string `json:"question"`
	SubQuestion string `json:"subQuestion"`
	Answer      string `json:"answer"`
}

// SettingField describes one configurable field of the per-survey
// plugin settings form, in the order it should be rendered.
type SettingField struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Label          string          `json:"label"`
	Help           string          `json:"help,omitempty"`
	Options        []SettingOption `json:"options,omitempty"`
	Default        string          `json:"default,omitempty"`
	SubmitOnChange bool            `json:"submitOnChange,omitempty"`
	Current        string          `json:"current"`
}

// Setting field types understood by the admin UI.
const (
	FieldSelect     = "select"
	FieldExpression = "relevance" // free text, evaluated through the expression engine
)

type SettingOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}
