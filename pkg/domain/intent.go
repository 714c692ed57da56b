package domain

import (
	"net/url"
)

// IntentKind names an outbound navigation request.
type IntentKind string

const (
	IntentBilling  IntentKind = "billing"
	IntentSignIn   IntentKind = "sign_in"
	IntentAppFirst IntentKind = "app_first"
)

// Navigation targets owned by the external router.
const (
	BillingPath      = "/app/billing"
	SignInPath       = "/auth/signin"
	IntegrationsPath = "/app/integrations"

	// EntryMarker tells the sign-in flow the user came from the chat surface.
	EntryMarker = "slack"
)

// Intent is an opaque navigation request for the external router.
// The engine builds it; it never performs the navigation itself.
type Intent struct {
	Kind   IntentKind        `json:"kind"`
	Target string            `json:"target"`
	Params map[string]string `json:"params,omitempty"`
}

// URL renders the target with its parameters as a query string.
func (i Intent) URL() string {
	if len(i.Params) == 0 {
		return i.Target
	}
	q := url.Values{}
	for k, v := range i.Params {
		q.Set(k, v)
	}
	return i.Target + "?" + q.Encode()
}

// BillingIntent requests the billing surface.
func BillingIntent() Intent {
	return Intent{Kind: IntentBilling, Target: BillingPath}
}

// SignInIntent requests the sign-in flow for connecting integrationID.
func SignInIntent(integrationID string) Intent {
	return Intent{
		Kind:   IntentSignIn,
		Target: SignInPath,
		Params: map[string]string{
			"integration": integrationID,
			"flow":        EntryMarker,
		},
	}
}

// AppFirstIntent requests the app-first onboarding alternative.
func AppFirstIntent() Intent {
	return Intent{Kind: IntentAppFirst, Target: SignInPath}
}
