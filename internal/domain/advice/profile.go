package advice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// MaxQuestionWords bounds the free text question.
const MaxQuestionWords = 30

// ConditionNone means the user explicitly reported no health conditions.
const ConditionNone = "none"

// Profile is the user supplied context sent with a personalized advice
// request. It is built right before the request and never stored.
type Profile struct {
	Location    string   `json:"location" validate:"required"`
	Age         int      `json:"age,omitempty" validate:"omitempty,gte=1,lte=120"`
	AgeGroup    string   `json:"age_group,omitempty" validate:"omitempty,max=32"`
	Gender      string   `json:"gender,omitempty" validate:"omitempty,max=32"`
	TimeOutside string   `json:"time_outside,omitempty" validate:"omitempty,max=32"`
	Conditions  []string `json:"conditions,omitempty" validate:"dive,required,max=64"`
	Question    string   `json:"question,omitempty"`
}

var validate = validator.New()

// Normalize trims fields and lowercases/dedupes conditions. A specific age
// takes precedence over an age group.
func (p Profile) Normalize() Profile {
	out := Profile{
		Location:    strings.TrimSpace(p.Location),
		Age:         p.Age,
		AgeGroup:    strings.TrimSpace(p.AgeGroup),
		Gender:      strings.TrimSpace(p.Gender),
		TimeOutside: strings.TrimSpace(p.TimeOutside),
		Question:    strings.Join(strings.Fields(p.Question), " "),
	}
	if out.Age > 0 {
		out.AgeGroup = ""
	}
	seen := make(map[string]struct{}, len(p.Conditions))
	for _, c := range p.Conditions {
		clean := strings.ToLower(strings.TrimSpace(c))
		if clean == "" {
			continue
		}
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}
		out.Conditions = append(out.Conditions, clean)
	}
	return out
}

// Validate checks a normalized profile.
func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, describeValidation(err), err)
	}
	if words := len(strings.Fields(p.Question)); words > MaxQuestionWords {
		return apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("please limit your question to %d words or less", MaxQuestionWords), nil)
	}
	if len(p.Conditions) > 1 {
		for _, c := range p.Conditions {
			if c == ConditionNone {
				return apperrors.Wrap(apperrors.CodeInvalidInput, `"none" cannot be combined with other health conditions`, nil)
			}
		}
	}
	if p.Question == "" && len(p.Conditions) == 0 && p.Age == 0 && p.AgeGroup == "" && p.Gender == "" && p.TimeOutside == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "please provide at least one input: health conditions, age, gender, time outside, or a question", nil)
	}
	return nil
}

func describeValidation(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "invalid advisory profile"
	}
	fe := fieldErrs[0]
	switch fe.StructField() {
	case "Location":
		return "please enter a location first"
	case "Age":
		return "age must be between 1 and 120"
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.StructField()))
	}
}
