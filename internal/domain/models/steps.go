// internal/domain/models/steps.go
package models

// Step identifies the next onboarding action a client should present.
type Step string

const (
	StepUserRegister   Step = "USER_REGISTER"
	StepVerifyEmail    Step = "VERIFY_EMAIL"
	StepSetPassword    Step = "SET_PASSWORD"
	StepSetupPassword  Step = "SETUP_PASSWORD"
	StepAccountLinking Step = "ACCOUNT_LINKING"
)
