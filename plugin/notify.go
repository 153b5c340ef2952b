package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/lemeur/confirm-by-email/answertable"
	"github.com/lemeur/confirm-by-email/expr"
	"github.com/lemeur/confirm-by-email/log"
	"github.com/lemeur/confirm-by-email/mailer"
	"github.com/lemeur/confirm-by-email/model"
)

type SlotStatus string

const (
	SlotSent    SlotStatus = "sent"
	SlotSkipped SlotStatus = "skipped"
	SlotFailed  SlotStatus = "failed"
)

// SlotResult reports what happened to one email slot, so callers and
// tests can tell why a slot produced no email, not just that it did.
type SlotResult struct {
	Slot        int        `json:"slot"`
	Status      SlotStatus `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	MessageID   string     `json:"messageId,omitempty"`
	To          []string   `json:"to,omitempty"`
	Attachments int        `json:"attachments,omitempty"`
}

func skipped(slot int, reason string) SlotResult {
	return SlotResult{Slot: slot, Status: SlotSkipped, Reason: reason}
}

func failed(slot int, err error) SlotResult {
	return SlotResult{Slot: slot, Status: SlotFailed, Reason: err.Error()}
}

// AfterSurveyComplete handles a completed response. It is a defined
// no-op when the plugin is not configured for the survey or the survey
// is not active. Slots are processed in ascending order, independently:
// a failing slot never suppresses later slots.
func (p *Plugin) AfterSurveyComplete(ctx context.Context, surveyID, responseID int) ([]SlotResult, error) {
	emailCount, err := p.settings.GetInt(ctx, surveyID, settingEmailCount)
	if err != nil {
		return nil, err
	}
	if emailCount < 1 {
		return nil, nil
	}
	survey, err := p.surveys.Get(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	if survey.Active != "Y" {
		return nil, nil
	}

	response, err := p.surveys.Response(ctx, surveyID, responseID)
	if err != nil {
		return nil, err
	}
	questions, err := p.surveys.Questions(ctx, surveyID)
	if err != nil {
		return nil, err
	}
	ev := expr.New(questions, response)

	results := make([]SlotResult, 0, emailCount)
	for i := 1; i <= emailCount; i++ {
		results = append(results, p.processSlot(ctx, i, survey, responseID, response, ev))
	}
	return results, nil
}

func (p *Plugin) processSlot(ctx context.Context, slot int, survey model.Survey, responseID int, response map[string]string, ev *expr.Evaluator) SlotResult {
	destExpr, err := p.settings.Get(ctx, survey.ID, slotKey{slot, kindDestinations, ""}.String())
	if err != nil {
		return failed(slot, err)
	}
	to := validAddresses(ev.Evaluate(destExpr))
	if len(to) == 0 {
		return skipped(slot, "no valid destination address")
	}

	attachments := p.resolveAttachments(ctx, slot, survey, response, ev)

	lang, err := p.settings.Get(ctx, survey.ID, slotKey{slot, kindLang, ""}.String())
	if err != nil {
		return failed(slot, err)
	}
	if lang == "" || lang == langSentinel {
		lang = response["startlanguage"]
	}
	subjectTemplate, err := p.settings.Get(ctx, survey.ID, slotKey{slot, kindSubject, lang}.String())
	if err != nil {
		return failed(slot, err)
	}
	if subjectTemplate == "" {
		// no translation stored: base language for both subject and body
		lang = survey.Language
		subjectTemplate, err = p.settings.Get(ctx, survey.ID, slotKey{slot, kindSubject, lang}.String())
		if err != nil {
			return failed(slot, err)
		}
	}
	subject := ev.Evaluate(subjectTemplate)

	filtered := []string{}
	if survey.Datestamp == "N" {
		filtered = []string{"submitdate"}
	}
	rows, err := p.surveys.FullResponseTable(ctx, survey.ID, responseID, lang)
	if err != nil {
		return failed(slot, err)
	}
	isHTML := survey.HTMLEmail == "Y"
	table := answertable.Render(rows, filtered)

	bodyTemplate, err := p.settings.Get(ctx, survey.ID, slotKey{slot, kindBody, lang}.String())
	if err != nil {
		return failed(slot, err)
	}
	body := ev.ProcessTemplate(bodyTemplate, map[string]string{
		"ANSWERTABLE": table.Pick(isHTML),
	})

	messageID, _ := uuid.NewV4()
	err = p.transport.Send(mailer.Message{
		To:          to,
		Subject:     subject,
		Body:        body,
		From:        survey.AdminEmail,
		FromName:    p.cfg.SiteName,
		Bounce:      survey.BounceEmail,
		HTML:        isHTML,
		Attachments: attachments,
	})
	if err != nil {
		log.Errorf("notify.send: survey=%d response=%d slot=%d: %s", survey.ID, responseID, slot, err)
		return failed(slot, err)
	}

	log.Infof("notify.sent: survey=%d response=%d slot=%d message=%s recipients=%d attachments=%d",
		survey.ID, responseID, slot, messageID, len(to), len(attachments))
	return SlotResult{
		Slot:        slot,
		Status:      SlotSent,
		MessageID:   messageID.String(),
		To:          to,
		Attachments: len(attachments),
	}
}

// validAddresses splits an evaluated destination list on ";" and keeps
// only syntactically valid addresses.
func validAddresses(list string) []string {
	to := []string{}
	for _, addr := range strings.Split(list, ";") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, err := mail.ParseAddress(addr); err != nil {
			log.Debugf("notify.address: skipping %q: %s", addr, err)
			continue
		}
		to = append(to, addr)
	}
	return to
}

// resolveAttachments turns the slot's attachment expression into file
// attachments. A question contributes its files only if it resolves to a
// non-zero internal id, is a file-upload question and is relevant for
// this response. Malformed descriptors are silently skipped.
func (p *Plugin) resolveAttachments(ctx context.Context, slot int, survey model.Survey, response map[string]string, ev *expr.Evaluator) []mailer.Attachment {
	attachExpr, err := p.settings.Get(ctx, survey.ID, slotKey{slot, kindAttachFiles, ""}.String())
	if err != nil {
		log.Debugf("notify.attachments: slot=%d: %s", slot, err)
		return nil
	}

	attachments := []mailer.Attachment{}
	for _, code := range strings.Split(ev.Evaluate(attachExpr), ";") {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		value, ok := response[code]
		if !ok {
			continue
		}

		sgqa, _ := strconv.Atoi(ev.Evaluate("{" + code + ".sgqa}"))
		qtype := ev.Evaluate("{" + code + ".type}")
		if sgqa == 0 || qtype != model.QTFileUpload || !ev.IsRelevant(sgqa) {
			continue
		}

		files := []model.UploadedFile{}
		if err := json.Unmarshal([]byte(value), &files); err != nil {
			log.Debugf("notify.attachments: slot=%d question=%s: %s", slot, code, err)
			continue
		}
		for _, f := range files {
			if f.Name == "" || f.Filename == "" {
				continue
			}
			attachments = append(attachments, mailer.Attachment{
				Path: fmt.Sprintf("%s/surveys/%d/files/%s", p.cfg.UploadDir, survey.ID, f.Filename),
				Name: f.Name,
			})
		}
	}
	return attachments
}
