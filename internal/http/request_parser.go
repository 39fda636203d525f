// Package http provides HTTP server and handler implementations.
//
// This file implements request parsing: JSON bodies are read under a size
// limit into raw fields and converted one by one so that every bad field is
// reported together; query parameters are bound to small structs checked
// with go-playground/validator.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"vegakash/internal/core"
	"vegakash/internal/storage"
)

// MaxBodyBytes bounds every request body.
const MaxBodyBytes = 1 << 20

const (
	msgRequired = "field required"
	msgNotNull  = "must not be null"
	msgString   = "must be a string"
	msgNumber   = "must be a number"
	msgInteger  = "must be an integer"
)

// requestError is a body problem that is not a field validation failure.
type requestError struct {
	status int
	detail string
}

func (e *requestError) Error() string { return e.detail }

// writeRequestError answers a parse failure: field problems as 422, body
// problems with their own status.
func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeValidation(w, r, verr)
		return
	}
	var rerr *requestError
	if errors.As(err, &rerr) {
		writeError(w, r, rerr.status, rerr.detail)
		return
	}
	writeError(w, r, http.StatusBadRequest, err.Error())
}

// readObject reads a JSON object body into raw members. Unknown members are
// kept; callers ignore what they do not need.
func readObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &requestError{status: http.StatusRequestEntityTooLarge, detail: "Request body too large"}
		}
		return nil, &requestError{status: http.StatusBadRequest, detail: "Could not read request body"}
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, &requestError{status: http.StatusBadRequest, detail: "Request body is empty"}
	}
	if body[0] != '{' {
		return nil, &requestError{status: http.StatusBadRequest, detail: "Request body must be a JSON object"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &requestError{status: http.StatusBadRequest, detail: "Invalid JSON body"}
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func parseString(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errors.New(msgString)
	}
	return s, nil
}

// parseDecimal accepts a JSON number or a numeric string.
func parseDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	text := string(bytes.TrimSpace(raw))
	if strings.HasPrefix(text, `"`) {
		s, err := parseString(raw)
		if err != nil {
			return decimal.Decimal{}, errors.New(msgNumber)
		}
		text = strings.TrimSpace(s)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, errors.New(msgNumber)
	}
	return d, nil
}

func parseDate(raw json.RawMessage) (core.Date, error) {
	s, err := parseString(raw)
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.ParseDate(s)
}

// parseNewExpense converts a create body. When a member is missing or has
// the wrong JSON type, the domain rules are run as well so that the caller
// gets one *core.ValidationError with at most one entry per field.
func parseNewExpense(fields map[string]json.RawMessage) (core.NewExpense, error) {
	var (
		in   core.NewExpense
		verr core.ValidationError
	)

	required := func(name string) (json.RawMessage, bool) {
		raw, ok := fields[name]
		if !ok || isNull(raw) {
			verr.Add(name, errors.New(msgRequired))
			return nil, false
		}
		return raw, true
	}

	if raw, ok := required("title"); ok {
		s, err := parseString(raw)
		verr.Add("title", err)
		in.Title = s
	}
	if raw, ok := required("category"); ok {
		s, err := parseString(raw)
		verr.Add("category", err)
		in.Category = s
	}
	if raw, ok := required("amount"); ok {
		d, err := parseDecimal(raw)
		verr.Add("amount", err)
		in.Amount = d
	}
	if raw, ok := required("date"); ok {
		d, err := parseDate(raw)
		verr.Add("date", err)
		in.Date = d
	}
	if raw, ok := fields["description"]; ok && !isNull(raw) {
		s, err := parseString(raw)
		verr.Add("description", err)
		in.Description = &s
	}

	if !verr.HasErrors() {
		return in, nil
	}

	var rules *core.ValidationError
	if _, err := in.Normalize(); errors.As(err, &rules) {
		seen := map[string]bool{}
		for _, f := range verr.Fields {
			seen[f.Field] = true
		}
		for _, f := range rules.Fields {
			if !seen[f.Field] {
				verr.Fields = append(verr.Fields, f)
			}
		}
	}
	return core.NewExpense{}, &verr
}

// parsePatch converts an update body. An explicit null clears the
// description and is rejected for every other field.
func parsePatch(fields map[string]json.RawMessage) (core.Patch, error) {
	var (
		p    core.Patch
		verr core.ValidationError
	)

	present := func(name string) (json.RawMessage, bool) {
		raw, ok := fields[name]
		if !ok {
			return nil, false
		}
		if isNull(raw) {
			verr.Add(name, errors.New(msgNotNull))
			return nil, false
		}
		return raw, true
	}

	if raw, ok := present("title"); ok {
		s, err := parseString(raw)
		verr.Add("title", err)
		p.Title = &s
	}
	if raw, ok := present("category"); ok {
		s, err := parseString(raw)
		verr.Add("category", err)
		p.Category = &s
	}
	if raw, ok := present("amount"); ok {
		d, err := parseDecimal(raw)
		verr.Add("amount", err)
		p.Amount = &d
	}
	if raw, ok := present("date"); ok {
		d, err := parseDate(raw)
		verr.Add("date", err)
		p.Date = &d
	}
	if raw, ok := fields["description"]; ok {
		if isNull(raw) {
			p.ClearDescription = true
		} else {
			s, err := parseString(raw)
			verr.Add("description", err)
			p.Description = &s
		}
	}

	if verr.HasErrors() {
		return core.Patch{}, &verr
	}
	return p, nil
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.NewValidationError("id", "must be a positive integer")
	}
	return id, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("query"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// checkStruct runs tag validation and converts failures to field errors.
func checkStruct(v any, verr *core.ValidationError) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("query", err)
		return
	}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, core.FieldError{Field: fe.Field(), Message: validationMessage(fe)})
	}
}

func validationMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "min":
		if isString {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be greater than or equal to " + fe.Param()
	case "max":
		if isString {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// listQuery holds the GET /expenses query parameters that validator checks.
type listQuery struct {
	Skip      int    `query:"skip" validate:"min=0"`
	Limit     int    `query:"limit" validate:"min=1,max=100"`
	Category  string `query:"category" validate:"max=50"`
	Search    string `query:"search" validate:"max=200"`
	SortBy    string `query:"sort_by" validate:"oneof=date amount title"`
	SortOrder string `query:"sort_order" validate:"oneof=asc desc"`
}

func queryInt(q url.Values, name string, def int, verr *core.ValidationError) int {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		verr.Add(name, errors.New(msgInteger))
		return def
	}
	return n
}

func queryDate(q url.Values, name string, verr *core.ValidationError) *core.Date {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		verr.Add(name, err)
		return nil
	}
	return &d
}

func queryAmount(q url.Values, name string, verr *core.ValidationError) *int64 {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		verr.Add(name, errors.New(msgNumber))
		return nil
	}
	if d.IsNegative() {
		verr.Add(name, errors.New("must be greater than or equal to 0"))
		return nil
	}
	cents, err := core.BoundCents(d)
	if err != nil {
		verr.Add(name, err)
		return nil
	}
	return &cents
}

// parseListFilter binds and validates the list query string.
func parseListFilter(q url.Values) (storage.Filter, error) {
	var verr core.ValidationError

	lq := listQuery{
		Skip:      queryInt(q, "skip", 0, &verr),
		Limit:     queryInt(q, "limit", storage.DefaultLimit, &verr),
		Category:  strings.TrimSpace(q.Get("category")),
		Search:    strings.TrimSpace(q.Get("search")),
		SortBy:    strings.ToLower(strings.TrimSpace(q.Get("sort_by"))),
		SortOrder: strings.ToLower(strings.TrimSpace(q.Get("sort_order"))),
	}
	if lq.SortBy == "" {
		lq.SortBy = string(storage.SortByDate)
	}
	if lq.SortOrder == "" {
		lq.SortOrder = string(storage.Desc)
	}
	checkStruct(lq, &verr)

	f := storage.Filter{
		Category:       lq.Category,
		DateFrom:       queryDate(q, "date_from", &verr),
		DateTo:         queryDate(q, "date_to", &verr),
		MinAmountCents: queryAmount(q, "min_amount", &verr),
		MaxAmountCents: queryAmount(q, "max_amount", &verr),
		Search:         lq.Search,
		SortBy:         storage.SortField(lq.SortBy),
		SortOrder:      storage.SortOrder(lq.SortOrder),
		Skip:           lq.Skip,
		Limit:          lq.Limit,
	}

	if verr.HasErrors() {
		return storage.Filter{}, &verr
	}
	return f, nil
}

const DefaultTrendDays = 30

type trendsQuery struct {
	Days int `query:"days" validate:"min=1,max=3650"`
}

func parseTrendDays(q url.Values) (int, error) {
	var verr core.ValidationError
	tq := trendsQuery{Days: queryInt(q, "days", DefaultTrendDays, &verr)}
	if !verr.HasErrors() {
		checkStruct(tq, &verr)
	}
	if verr.HasErrors() {
		return 0, &verr
	}
	return tq.Days, nil
}

type chatQuery struct {
	Message string `query:"message" validate:"required,min=1,max=1000"`
}

// parseChatMessage reads the message from the query string, falling back to
// a JSON body {"message": "..."} when the query has none.
func parseChatMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	cq := chatQuery{Message: strings.TrimSpace(r.URL.Query().Get("message"))}

	if cq.Message == "" && r.ContentLength != 0 && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		fields, err := readObject(w, r)
		if err != nil {
			return "", err
		}
		if raw, ok := fields["message"]; ok && !isNull(raw) {
			s, err := parseString(raw)
			if err != nil {
				return "", core.NewValidationError("message", msgString)
			}
			cq.Message = strings.TrimSpace(s)
		}
	}

	var verr core.ValidationError
	checkStruct(cq, &verr)
	if verr.HasErrors() {
		return "", &verr
	}
	return cq.Message, nil
}
