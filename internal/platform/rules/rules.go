// Package rules evaluates named boolean predicates over the flat field bag
// reported with a visit form. Rules are pure and side-effect free; a missing
// field always evaluates to false, never to an error.
package rules

import (
	"fmt"
	"strings"
)

// Fields is a read-only view of reported form fields. The zero value is usable.
type Fields map[string]string

// Get returns the value for key, or "" if absent.
func (f Fields) Get(key string) string {
	if f == nil {
		return ""
	}
	return f[key]
}

// Has reports whether key was reported at all.
func (f Fields) Has(key string) bool {
	if f == nil {
		return false
	}
	_, ok := f[key]
	return ok
}

// Rule decides whether a reported visit satisfies one condition.
type Rule func(Fields) bool

// Registry resolves rules by name so that callers bind to configuration, not
// to concrete predicates.
type Registry struct {
	rules map[string]Rule
}

func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

func (r *Registry) Register(name string, rule Rule) {
	r.rules[name] = rule
}

// Lookup returns the named rule or an error listing it as unknown.
func (r *Registry) Lookup(name string) (Rule, error) {
	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule %q", name)
	}
	return rule, nil
}

// Names returns the registered rule names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	return names
}

// Field and value constants from the visit forms.
const (
	fieldDeliveryPlace        = "deliveryPlace"
	fieldHypertensionFirst    = "isHypertensionDetectedForFirstTime"
	fieldVitaminADose         = "vitaminADose"
	fieldImmunizationsGiven   = "immunizationsGiven"
	fieldPreviousImmunization = "previousImmunizations"

	valueHome      = "home"
	valueTrue      = "true"
	valueVitaminA3 = "3"
	valuePenta2    = "pentavalent_2"
)

// Registered rule names.
const (
	DeliveryHappenedAtHome        = "delivery-happened-at-home"
	HypertensionDetectedFirstTime = "hypertension-detected-first-time"
	Pentavalent2Given             = "pentavalent-2-given"
	VitaminA3DoseGiven            = "vitamin-a-3-dose-given"
)

// NewDefaultRegistry returns a registry with the built-in rules registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(DeliveryHappenedAtHome, func(f Fields) bool {
		return strings.EqualFold(f.Get(fieldDeliveryPlace), valueHome)
	})
	r.Register(HypertensionDetectedFirstTime, func(f Fields) bool {
		return strings.EqualFold(f.Get(fieldHypertensionFirst), valueTrue)
	})
	r.Register(Pentavalent2Given, func(f Fields) bool {
		return ImmunizedWith(valuePenta2, f)
	})
	r.Register(VitaminA3DoseGiven, func(f Fields) bool {
		return strings.EqualFold(f.Get(fieldVitaminADose), valueVitaminA3)
	})
	return r
}

// ImmunizedWith reports whether the given immunization appears in the
// space-separated list reported this visit but not in the list reported
// before it, i.e. it was newly given.
func ImmunizedWith(immunization string, f Fields) bool {
	return listContains(f.Get(fieldImmunizationsGiven), immunization) &&
		!listContains(f.Get(fieldPreviousImmunization), immunization)
}

func listContains(list, item string) bool {
	for _, got := range strings.Fields(list) {
		if strings.EqualFold(got, item) {
			return true
		}
	}
	return false
}
