package accessgrants

import "context"

// Repository: las filas nunca se borran. GetByID devuelve accesserr.ErrNotFound.
type Repository interface {
	Create(ctx context.Context, g Grant) error
	Update(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)

	// ListByPatient ordena por granted_at desc.
	ListByPatient(ctx context.Context, patientID string) ([]Grant, error)
	ListByRecipient(ctx context.Context, grantedToID string) ([]Grant, error)
	ListByRecipientAndPatient(ctx context.Context, grantedToID, patientID string) ([]Grant, error)
}

// PatientDirectory evita importar el paquete patients (rompe ciclos).
type PatientDirectory interface {
	Lookup(ctx context.Context, patientID string) (PatientIdentity, error)
}
