// Package plugin implements the ConfirmByEmail survey plugin: per-survey
// notification settings and the response-completed handler that sends
// the configured confirmation emails.
package plugin

import (
	"database/sql"
	"fmt"

	"github.com/lemeur/confirm-by-email/config"
	"github.com/lemeur/confirm-by-email/mailer"
	"github.com/lemeur/confirm-by-email/store"
)

// Name keys this plugin's rows in the settings store.
const Name = "ConfirmByEmail"

type Plugin struct {
	settings  *store.Settings
	surveys   *store.Surveys
	transport mailer.Transport
	cfg       config.Config
}

func New(db *sql.DB, transport mailer.Transport, cfg config.Config) *Plugin {
	return &Plugin{
		settings:  store.NewSettings(db, Name),
		surveys:   store.NewSurveys(db),
		transport: transport,
		cfg:       cfg,
	}
}

// settingEmailCount is the only slot-independent setting.
const settingEmailCount = "emailCount"

type fieldKind string

const (
	kindDestinations fieldKind = "emailDestinations"
	kindLang         fieldKind = "emailLang"
	kindAttachFiles  fieldKind = "emailAttachFiles"
	kindSubject      fieldKind = "emailSubject"
	kindBody         fieldKind = "emailBody"
)

// slotKey identifies one setting of one email slot. It replaces ad hoc
// string concatenation while keeping the persisted naming convention
// (emailSubject_<i>_<lang> etc.) intact.
type slotKey struct {
	Index int
	Kind  fieldKind
	Lang  string
}

func (k slotKey) String() string {
	name := fmt.Sprintf("%s_%d", k.Kind, k.Index)
	if k.Lang != "" {
		name += "_" + k.Lang
	}
	return name
}
