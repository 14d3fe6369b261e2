package scope

import (
	"fmt"
	"strings"
)

// Kind identifica el flujo de invitación que originó un token.
type Kind string

const (
	KindDoctorInvite Kind = "doctor_invite"
	KindFamilyInvite Kind = "family_invite"
)

// Presets define qué labels puede autorizar cada flujo de invitación.
// Los subconjuntos se solapan a propósito; cualquier cambio va en esta tabla.
var Presets = map[Kind]Set{
	KindDoctorInvite: NewSet(MedicalRecords, HealthData, Documents, PersonalInfo),
	KindFamilyInvite: NewSet(MedicalRecords, FamilyHistory, HealthData, PersonalInfo),
}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if k == "" {
		return "", nil
	}
	if _, ok := Presets[k]; !ok {
		return "", fmt.Errorf("unknown invitation kind %q", raw)
	}
	return k, nil
}

// Allowed devuelve el preset del kind. Un kind vacío admite todo el vocabulario.
func Allowed(k Kind) Set {
	if k == "" {
		return NewSet(All...)
	}
	return Presets[k]
}
