package domain

// Documents records which identity documents the user has on hand.
type Documents struct {
	ID            bool `json:"id"`
	SSNCard       bool `json:"ssnCard"`
	BirthCert     bool `json:"birthCert"`
	ShelterLetter bool `json:"shelterLetter"`
}

// Profile is the single onboarding record. The Has* flags are tri-state:
// nil means the question has not been answered yet.
type Profile struct {
	Name               string    `json:"name"`
	OnboardingComplete bool      `json:"onboardingComplete"`
	HasSOARWorker      *bool     `json:"hasSOARWorker"`
	HasAppliedSSI      *bool     `json:"hasAppliedSSI"`
	HasGradyCard       *bool     `json:"hasGradyCard"`
	HasSNAP            *bool     `json:"hasSNAP"`
	Documents          Documents `json:"documents"`
}

// DefaultProfile returns the profile seeded on first run.
func DefaultProfile() Profile {
	return Profile{Name: "Jennifer"}
}
