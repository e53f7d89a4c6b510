package lineitems

import (
	"errors"
	"math"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"
)

// ItemInput is the operator's request for a new item.
type ItemInput struct {
	Selection Selection `json:"selection"`
	Quantity  float64   `json:"quantity"`
	Markup    float64   `json:"markup"`
	// Rate replaces the catalog rate when the kind allows overrides.
	Rate *float64 `json:"rate"`
}

// ParseItemInput reads an item request from form values keyed by the kind's
// field names. Non-numeric quantity, markup or rate is a ValidationError.
func (k *Kind) ParseItemInput(get func(string) string) (ItemInput, error) {
	in := ItemInput{Selection: make(Selection, len(k.Facets))}
	for i, f := range k.Facets {
		in.Selection[i] = strings.TrimSpace(get(f))
	}

	fields := map[string]string{}
	if q, err := parseNumber(get(k.QuantityField)); err != nil {
		fields["quantity"] = err.Error()
	} else {
		in.Quantity = q
	}
	if k.HasMarkup() {
		if raw := strings.TrimSpace(get(k.MarkupField)); raw != "" {
			if m, err := parseNumber(raw); err != nil {
				fields["markup"] = err.Error()
			} else {
				in.Markup = m
			}
		}
	}
	if k.RateOverridable {
		if raw := strings.TrimSpace(get(k.ItemRateField)); raw != "" {
			if r, err := parseNumber(raw); err != nil {
				fields["rate"] = err.Error()
			} else {
				in.Rate = &r
			}
		}
	}
	if len(fields) > 0 {
		return in, &ValidationError{Fields: fields}
	}
	return in, nil
}

var errNotNumber = errors.New("must be a number")

func parseNumber(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errNotNumber
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumber
	}
	return f, nil
}

var (
	// Min skips zero values, so zero needs its own rule.
	positive    = validation.Required.Error("must be greater than zero")
	wholeNumber = validation.By(func(v any) error {
		f, ok := number(v)
		if ok && (math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f)) {
			return errors.New("must be a whole number")
		}
		return nil
	})
	finiteNumber = validation.By(func(v any) error {
		f, ok := number(v)
		if ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return errNotNumber
		}
		return nil
	})
)

func number(v any) (float64, bool) {
	v, isNil := validation.Indirect(v)
	if isNil {
		return 0, false
	}
	return cast.ToFloat64(v), true
}

// validate checks an item request: quantity a positive whole number, markup
// non-negative, rate override non-negative.
func (k *Kind) validate(in *ItemInput) error {
	rules := []*validation.FieldRules{
		validation.Field(&in.Quantity, positive, wholeNumber, validation.Min(1.0).Error("must be greater than zero")),
		validation.Field(&in.Markup, finiteNumber, validation.Min(0.0).Error("must be zero or greater")),
	}
	if in.Rate != nil {
		rules = append(rules, validation.Field(&in.Rate, finiteNumber, validation.Min(0.0).Error("must be zero or greater")))
	}
	return asValidationError(validation.ValidateStruct(in, rules...))
}

func (k *Kind) validatePatch(p *ItemPatch) error {
	var rules []*validation.FieldRules
	if p.Quantity != nil {
		rules = append(rules, validation.Field(&p.Quantity, positive, wholeNumber, validation.Min(1.0).Error("must be greater than zero")))
	}
	if p.Markup != nil {
		rules = append(rules, validation.Field(&p.Markup, finiteNumber, validation.Min(0.0).Error("must be zero or greater")))
	}
	if p.Rate != nil {
		rules = append(rules, validation.Field(&p.Rate, finiteNumber, validation.Min(0.0).Error("must be zero or greater")))
	}
	if len(rules) == 0 {
		return nil
	}
	return asValidationError(validation.ValidateStruct(p, rules...))
}

// validateGroupPatch rejects blank names and durations below one month.
func validateGroupPatch(p *GroupPatch) error {
	var rules []*validation.FieldRules
	if p.Name != nil {
		rules = append(rules, validation.Field(&p.Name, validation.Required.Error("is required"), validation.Length(1, 120)))
	}
	if p.DurationMonths != nil {
		rules = append(rules, validation.Field(&p.DurationMonths, minMonths, validation.Min(1).Error(minMonthsMsg)))
	}
	if len(rules) == 0 {
		return nil
	}
	return asValidationError(validation.ValidateStruct(p, rules...))
}

const minMonthsMsg = "must be at least 1 month"

var minMonths = validation.Required.Error(minMonthsMsg)

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return &ValidationError{Fields: map[string]string{"input": err.Error()}}
	}
	fields := make(map[string]string, len(errs))
	for k, e := range errs {
		fields[strings.ToLower(k)] = e.Error()
	}
	return &ValidationError{Fields: fields}
}
