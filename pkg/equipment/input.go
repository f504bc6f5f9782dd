package equipment

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"equipapi/models"
	"equipapi/pkg/apperr"
)

const maxNameLength = 255

var numericRE = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Value is one optional key of a request body. Present is false when the key was
// not sent; Raw keeps the undecoded JSON so type errors surface as validation
// errors instead of decode failures.
type Value struct {
	Present bool
	Raw     json.RawMessage
}

func (v *Value) UnmarshalJSON(b []byte) error {
	v.Present = true
	v.Raw = append(v.Raw[:0], b...)
	return nil
}

// Set builds a present Value from a Go value.
func Set(x any) Value {
	b, err := json.Marshal(x)
	if err != nil {
		panic(err)
	}
	return Value{Present: true, Raw: b}
}

// IsNull reports an explicit JSON null.
func (v Value) IsNull() bool {
	return v.Present && bytes.Equal(bytes.TrimSpace(v.Raw), []byte("null"))
}

func (v Value) str() (string, bool) {
	var s string
	if err := json.Unmarshal(v.Raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (v Value) number() (float64, bool) {
	raw := bytes.TrimSpace(v.Raw)
	if len(raw) > 0 && raw[0] == '"' {
		s, ok := v.str()
		if !ok {
			return 0, false
		}
		return parseNumeric(s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, false
	}
	return f, true
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRE.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Input is the body of a create or update request.
type Input struct {
	Name          Value `json:"name"`
	Quantity      Value `json:"quantity"`
	InternalNotes Value `json:"internal_notes"`
}

// apply validates the supplied keys and writes them onto rec. With requireName
// the name key must be present.
func (in Input) apply(rec *models.Equipment, requireName bool) error {
	ve := &apperr.ValidationError{}

	if in.Name.Present || requireName {
		switch name, ok := in.Name.str(); {
		case !in.Name.Present || in.Name.IsNull():
			ve.Add("name", "The name field is required.")
		case !ok:
			ve.Add("name", "The name field must be a string.")
		case strings.TrimSpace(name) == "":
			ve.Add("name", "The name field is required.")
		case utf8.RuneCountInString(strings.TrimSpace(name)) > maxNameLength:
			ve.Add("name", "The name field must not be greater than 255 characters.")
		default:
			rec.Name = strings.TrimSpace(name)
		}
	}

	if in.Quantity.Present {
		if in.Quantity.IsNull() {
			rec.Quantity = nil
		} else if q, ok := in.Quantity.number(); ok {
			rec.Quantity = &q
		} else {
			ve.Add("quantity", "The quantity field must be a number.")
		}
	}

	if in.InternalNotes.Present {
		if in.InternalNotes.IsNull() {
			rec.InternalNotes = nil
		} else if notes, ok := in.InternalNotes.str(); ok {
			rec.InternalNotes = &notes
		} else {
			ve.Add("internal_notes", "The internal notes field must be a string.")
		}
	}

	// merged record must still be valid
	if _, failed := ve.Fields["name"]; !failed && strings.TrimSpace(rec.Name) == "" {
		ve.Add("name", "The name field is required.")
	}
	return ve.OrNil()
}

// Filter narrows List. A nil Quantity means no filtering.
type Filter struct {
	Quantity *float64
}

// ParseFilter validates the raw quantity query value.
func ParseFilter(quantity string) (Filter, error) {
	if strings.TrimSpace(quantity) == "" {
		return Filter{}, nil
	}
	q, ok := parseNumeric(quantity)
	if !ok {
		return Filter{}, apperr.Invalid("quantity", "The quantity filter must be a number.")
	}
	return Filter{Quantity: &q}, nil
}
