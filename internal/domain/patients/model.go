package patients

import "time"

// Profile es la identidad mínima de un paciente que se muestra a quienes
// tienen un grant con personal_info.
type Profile struct {
	ID    string
	Name  string
	Email string

	CreatedAt time.Time
	UpdatedAt time.Time
}
