// Package scope modela el vocabulario cerrado de categorías de datos médicos
// que un token o un grant puede autorizar.
package scope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Label es una categoría de datos. El conjunto es cerrado: ver All.
type Label string

const (
	MedicalRecords Label = "medical_records"
	FamilyHistory  Label = "family_history"
	HealthData     Label = "health_data"
	Documents      Label = "documents"
	PersonalInfo   Label = "personal_info"
)

// All en orden canónico. El índice define el bit de cada label en Set.
var All = []Label{MedicalRecords, FamilyHistory, HealthData, Documents, PersonalInfo}

func (l Label) bit() (Set, bool) {
	for i, v := range All {
		if v == l {
			return Set(1) << i, true
		}
	}
	return 0, false
}

func (l Label) Valid() bool {
	_, ok := l.bit()
	return ok
}

// ParseLabel normaliza y valida un label; rechaza cualquier valor fuera de All.
func ParseLabel(raw string) (Label, error) {
	l := Label(strings.ToLower(strings.TrimSpace(raw)))
	if !l.Valid() {
		return "", fmt.Errorf("unknown scope %q", raw)
	}
	return l, nil
}

// Set es un conjunto de labels representado como bitmask.
// Un valor inválido no es representable.
type Set uint8

func NewSet(labels ...Label) Set {
	var s Set
	for _, l := range labels {
		if b, ok := l.bit(); ok {
			s |= b
		}
	}
	return s
}

// ParseSet valida estrictamente; duplicados se colapsan, vacíos se ignoran.
func ParseSet(raw []string) (Set, error) {
	var s Set
	for _, r := range raw {
		if strings.TrimSpace(r) == "" {
			continue
		}
		l, err := ParseLabel(r)
		if err != nil {
			return 0, err
		}
		s = s.With(l)
	}
	return s, nil
}

func (s Set) With(l Label) Set {
	b, ok := l.bit()
	if !ok {
		return s
	}
	return s | b
}

func (s Set) Has(l Label) bool {
	b, ok := l.bit()
	return ok && s&b != 0
}

func (s Set) Empty() bool { return s == 0 }

// SubsetOf indica si todos los labels de s están en other.
func (s Set) SubsetOf(other Set) bool { return s&^other == 0 }

func (s Set) Labels() []Label {
	out := make([]Label, 0, len(All))
	for _, l := range All {
		if s.Has(l) {
			out = append(out, l)
		}
	}
	return out
}

func (s Set) Strings() []string {
	labels := s.Labels()
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, string(l))
	}
	return out
}

func (s Set) String() string { return strings.Join(s.Strings(), ",") }

func (s Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Strings())
}

func (s *Set) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseSet(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
