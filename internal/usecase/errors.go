package usecase

// Códigos usados nos erros do motor. A camada HTTP mapeia cada classe
// para um status próprio.
const (
	CodeValidation             = "VALIDATION_ERROR"
	CodePersistenceRejected    = "PERSISTENCE_REJECTED"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	CodeCampaignLoop           = "CAMPAIGN_LOOP"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}
