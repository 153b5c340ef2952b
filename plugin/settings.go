package plugin

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/lemeur/confirm-by-email/model"
)

// langSentinel selects the response's submission language at send time.
const langSentinel = "--"

// SurveySettings builds the ordered field descriptors of the per-survey
// settings form: the emailCount selector first, then five-to-N fields
// per configured slot. Current values are prefilled from the settings
// store; a never-written setting shows as empty.
func (p *Plugin) SurveySettings(ctx context.Context, surveyID int) ([]model.SettingField, error) {
	survey, err := p.surveys.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	langs := surveyLanguages(survey)

	emailCount, err := p.settings.GetInt(ctx, surveyID, settingEmailCount)
	if err != nil {
		return nil, err
	}
	if emailCount > p.cfg.MaxEmails {
		emailCount = p.cfg.MaxEmails
	}

	countOptions := make([]model.SettingOption, 0, p.cfg.MaxEmails+1)
	for n := 0; n <= p.cfg.MaxEmails; n++ {
		countOptions = append(countOptions, model.SettingOption{
			Value: strconv.Itoa(n),
			Label: strconv.Itoa(n),
		})
	}

	current, err := p.settings.Get(ctx, surveyID, settingEmailCount)
	if err != nil {
		return nil, err
	}
	fields := []model.SettingField{{
		Name:           settingEmailCount,
		Type:           model.FieldSelect,
		Label:          "Number of different emails to set",
		Help:           "When you change this value, the survey settings are automatically saved and different settings will be available for the plugin. Please get back to the plugin settings tab to see the new settings.",
		Options:        countOptions,
		Default:        "0",
		SubmitOnChange: true,
		Current:        current,
	}}

	for i := 1; i <= emailCount; i++ {
		slotFields, err := p.slotSettings(ctx, surveyID, i, langs)
		if err != nil {
			return nil, err
		}
		fields = append(fields, slotFields...)
	}
	return fields, nil
}

func (p *Plugin) slotSettings(ctx context.Context, surveyID, i int, langs []string) ([]model.SettingField, error) {
	baseLang := langs[0]
	fields := []model.SettingField{}

	add := func(key slotKey, field model.SettingField) error {
		current, err := p.settings.Get(ctx, surveyID, key.String())
		if err != nil {
			return err
		}
		field.Name = key.String()
		field.Current = current
		fields = append(fields, field)
		return nil
	}

	err := add(slotKey{i, kindDestinations, ""}, model.SettingField{
		Type:  model.FieldExpression,
		Label: fmt.Sprintf("[email n°%d] Semi-column separated list of emails to notify", i),
		Help:  "You can use an expression to build the list. If the list is empty, no email is sent.",
	})
	if err != nil {
		return nil, err
	}

	err = add(slotKey{i, kindLang, ""}, model.SettingField{
		Type:  model.FieldSelect,
		Label: fmt.Sprintf("[email n°%d] Language for this email", i),
		Options: []model.SettingOption{
			{Value: baseLang, Label: "Survey's base language"},
			{Value: langSentinel, Label: "Response's language"},
		},
		Default: langSentinel,
	})
	if err != nil {
		return nil, err
	}

	err = add(slotKey{i, kindAttachFiles, ""}, model.SettingField{
		Type:  model.FieldExpression,
		Label: fmt.Sprintf("[email n°%d] Semi-column separated list of question codes corresponding to FileUpload questions.", i),
		Help:  "The content of each question will be attached to the confirmation email. You can use an expression to build the list. If the list is empty, no attachment is sent.",
	})
	if err != nil {
		return nil, err
	}

	for n, lang := range langs {
		baseLangNote := ""
		if n == 0 {
			baseLangNote = " This is the survey base language template, it will be used by default if no translation is available."
		}
		err = add(slotKey{i, kindSubject, lang}, model.SettingField{
			Type:  model.FieldExpression,
			Label: fmt.Sprintf("[email n°%d] (%s) Subject", i, lang),
			Help:  "You can use an expression for micro-tailoring." + baseLangNote,
		})
		if err != nil {
			return nil, err
		}
		err = add(slotKey{i, kindBody, lang}, model.SettingField{
			Type:  model.FieldExpression,
			Label: fmt.Sprintf("[email n°%d] (%s) Content", i, lang),
			Help:  "You can use an expression for micro-tailoring. The token {ANSWERTABLE} is accepted." + baseLangNote,
		})
		if err != nil {
			return nil, err
		}
	}
	return fields, nil
}

// SaveSurveySettings writes every submitted pair to the settings store
// verbatim. No validation, no type coercion: last writer wins, per key.
func (p *Plugin) SaveSurveySettings(ctx context.Context, surveyID int, values map[string]string) error {
	return p.settings.SetAll(ctx, surveyID, values)
}

// surveyLanguages returns the survey's languages, base language first,
// empty entries of the space-separated additional list dropped.
func surveyLanguages(survey model.Survey) []string {
	return append([]string{survey.Language}, strings.Fields(survey.AdditionalLanguages)...)
}
