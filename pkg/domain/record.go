package domain

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Field names a single answer of the signup form.
// The values double as column names of the hosted candidates table.
type Field string

const (
	FieldFullName        Field = "full_name"
	FieldAge             Field = "age"
	FieldPhone           Field = "phone"
	FieldMotivation      Field = "motivation"
	FieldReadingRelation Field = "reading_relation"
	FieldAvailability    Field = "availability"
	FieldGroupBehavior   Field = "group_behavior"
	FieldWhyMatch        Field = "why_match"
)

// Fields lists every answer field in form order.
var Fields = []Field{
	FieldFullName,
	FieldAge,
	FieldPhone,
	FieldMotivation,
	FieldReadingRelation,
	FieldAvailability,
	FieldGroupBehavior,
	FieldWhyMatch,
}

// IsKnown reports whether f is one of the answer record fields.
func (f Field) IsKnown() bool {
	for _, known := range Fields {
		if f == known {
			return true
		}
	}
	return false
}

// AnswerRecord holds the candidate's answers.
// The zero value is the empty record a flow starts with.
type AnswerRecord struct {
	FullName        string `json:"full_name" yaml:"full_name" mapstructure:"full_name"`
	Age             string `json:"age" yaml:"age" mapstructure:"age"`
	Phone           string `json:"phone" yaml:"phone" mapstructure:"phone"`
	Motivation      string `json:"motivation" yaml:"motivation" mapstructure:"motivation"`
	ReadingRelation string `json:"reading_relation" yaml:"reading_relation" mapstructure:"reading_relation"`
	Availability    string `json:"availability" yaml:"availability" mapstructure:"availability"`
	GroupBehavior   string `json:"group_behavior" yaml:"group_behavior" mapstructure:"group_behavior"`
	WhyMatch        string `json:"why_match" yaml:"why_match" mapstructure:"why_match"`
}

func (r *AnswerRecord) slot(f Field) *string {
	switch f {
	case FieldFullName:
		return &r.FullName
	case FieldAge:
		return &r.Age
	case FieldPhone:
		return &r.Phone
	case FieldMotivation:
		return &r.Motivation
	case FieldReadingRelation:
		return &r.ReadingRelation
	case FieldAvailability:
		return &r.Availability
	case FieldGroupBehavior:
		return &r.GroupBehavior
	case FieldWhyMatch:
		return &r.WhyMatch
	}
	return nil
}

// Get returns the value of a field. Unknown fields read as empty.
func (r AnswerRecord) Get(f Field) string {
	if p := r.slot(f); p != nil {
		return *p
	}
	return ""
}

// Set overwrites one field.
func (r *AnswerRecord) Set(f Field, value string) error {
	p := r.slot(f)
	if p == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	*p = value
	return nil
}

// Map returns the record as a column -> value mapping.
func (r AnswerRecord) Map() map[string]string {
	out := make(map[string]string, len(Fields))
	for _, f := range Fields {
		out[string(f)] = r.Get(f)
	}
	return out
}

// AnswerRecordFromMap decodes a loosely typed mapping (JSON rows, form values)
// into an AnswerRecord. Numbers are accepted for string fields (e.g. age).
func AnswerRecordFromMap(m map[string]any) (AnswerRecord, error) {
	var rec AnswerRecord
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return AnswerRecord{}, err
	}
	if err := dec.Decode(m); err != nil {
		return AnswerRecord{}, fmt.Errorf("failed to decode answer record: %w", err)
	}
	return rec, nil
}

// StoredRecord is an AnswerRecord after the external store accepted it.
type StoredRecord struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	AnswerRecord
}
