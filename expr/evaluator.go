// Package expr resolves the curly-brace micro-expressions embedded in
// plugin settings: destination lists, attachment lists, subject and body
// templates. Tokens address response fields and question metadata;
// anything else is handed to a general expression engine.
package expr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lemeur/confirm-by-email/log"
	"github.com/lemeur/confirm-by-email/model"
	"github.com/maja42/goval"
)

var reToken = regexp.MustCompile(`\{([^{}]+)\}`)

// Evaluator resolves expressions against one response of one survey.
type Evaluator struct {
	questions map[string]model.Question // by code
	bySGQA    map[int]model.Question
	response  map[string]string
	vars      map[string]interface{}
	eval      *goval.Evaluator
	funcs     map[string]goval.ExpressionFunction
}

func New(questions []model.Question, response map[string]string) *Evaluator {
	e := &Evaluator{
		questions: make(map[string]model.Question, len(questions)),
		bySGQA:    make(map[int]model.Question, len(questions)),
		response:  response,
		vars:      make(map[string]interface{}, len(response)),
		eval:      goval.NewEvaluator(),
	}
	for _, q := range questions {
		e.questions[q.Code] = q
		e.bySGQA[q.ID] = q
	}
	for code, value := range response {
		e.vars[code] = typedValue(value)
	}
	e.funcs = map[string]goval.ExpressionFunction{
		"if": func(args ...interface{}) (interface{}, error) {
			if len(args) < 3 {
				return nil, fmt.Errorf("if needs 3 args, got %d", len(args))
			}
			cond, _ := args[0].(bool)
			if cond {
				return args[1], nil
			}
			return args[2], nil
		},
		"strlen": func(args ...interface{}) (interface{}, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("strlen needs 1 arg, got %d", len(args))
			}
			return len(fmt.Sprint(args[0])), nil
		},
		"join": func(args ...interface{}) (interface{}, error) {
			if len(args) < 1 {
				return nil, fmt.Errorf("join needs at least 1 arg, got %d", len(args))
			}
			sep := fmt.Sprint(args[0])
			parts := make([]string, 0, len(args)-1)
			for _, a := range args[1:] {
				parts = append(parts, fmt.Sprint(a))
			}
			return strings.Join(parts, sep), nil
		},
	}
	return e
}

// numbers become numbers so comparisons in relevance expressions work
func typedValue(value string) interface{} {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}
	return value
}

// Evaluate resolves every {token} of s and returns the resulting string.
// Literal text outside braces passes through unchanged. A token that
// fails to resolve as an expression degrades to the empty string; a
// token naming an unknown question attribute is left verbatim.
func (e *Evaluator) Evaluate(s string) string {
	return e.ProcessTemplate(s, nil)
}

// ProcessTemplate is Evaluate with named substitutions taking precedence
// over every other resolution, e.g. ANSWERTABLE in email bodies.
func (e *Evaluator) ProcessTemplate(s string, substitutions map[string]string) string {
	return reToken.ReplaceAllStringFunc(s, func(token string) string {
		inner := strings.TrimSpace(token[1 : len(token)-1])

		if value, ok := substitutions[inner]; ok {
			return value
		}
		if code, attr, ok := strings.Cut(inner, "."); ok && (attr == "sgqa" || attr == "type") {
			q, found := e.questions[code]
			if !found {
				// unresolvable question attribute: leave the token in place
				return token
			}
			if attr == "sgqa" {
				return strconv.Itoa(q.ID)
			}
			return q.Type
		}
		if value, ok := e.response[inner]; ok {
			return value
		}

		result, err := e.eval.Evaluate(inner, e.vars, e.funcs)
		if err != nil {
			log.Debugf("expr.evaluate: %q: %s", inner, err)
			return ""
		}
		return fmt.Sprint(result)
	})
}

// IsRelevant reports whether the question with the given internal id was
// applicable for this response. An empty or constant-true relevance
// expression is relevant; evaluation failures count as not relevant.
func (e *Evaluator) IsRelevant(sgqa int) bool {
	q, ok := e.bySGQA[sgqa]
	if !ok {
		return false
	}
	relevance := strings.TrimSpace(q.Relevance)
	if relevance == "" || relevance == "1" {
		return true
	}

	result, err := e.eval.Evaluate(relevance, e.vars, e.funcs)
	if err != nil {
		log.Debugf("expr.relevance: %q: %s", relevance, err)
		return false
	}
	switch v := result.(type) {
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != "" && v != "0"
	}
	return false
}
