package domain

import "strings"

// Action vocabulary carried by block elements.
const (
	ActionConnectPrefix      = "connect_"
	ActionSelectDomainPrefix = "select_domain_"
	ActionConfirmDomains     = "confirm_domains"
	ActionOpenBilling        = "open_billing"
)

// ConnectAction builds the action string for connecting an integration.
func ConnectAction(integrationID string) string {
	return ActionConnectPrefix + integrationID
}

// SelectDomainAction builds the action string for toggling a focus domain.
func SelectDomainAction(domainID string) string {
	return ActionSelectDomainPrefix + domainID
}

// Command is a user intent decoded at the boundary.
// The set of implementations is closed to this package.
type Command interface {
	command()
}

// OpenBilling asks for navigation to the billing surface.
type OpenBilling struct{}

// SelectDomain toggles a focus domain in the selection.
type SelectDomain struct {
	DomainID string
}

// ConfirmDomains locks in the current focus domain selection.
type ConfirmDomains struct{}

// Connect asks to connect an integration through the external sign-in flow.
type Connect struct {
	IntegrationID string
}

// SendText is a free-text message typed by the user.
type SendText struct {
	Text string
}

// Unknown is an action string outside the vocabulary.
type Unknown struct {
	Raw string
}

func (OpenBilling) command()    {}
func (SelectDomain) command()   {}
func (ConfirmDomains) command() {}
func (Connect) command()        {}
func (SendText) command()       {}
func (Unknown) command()        {}

// ParseAction decodes a block action string into a Command.
// Prefixed actions with an empty payload decode to Unknown.
func ParseAction(action string) Command {
	switch {
	case action == ActionOpenBilling:
		return OpenBilling{}
	case action == ActionConfirmDomains:
		return ConfirmDomains{}
	case strings.HasPrefix(action, ActionSelectDomainPrefix):
		if id := strings.TrimPrefix(action, ActionSelectDomainPrefix); id != "" {
			return SelectDomain{DomainID: id}
		}
	case strings.HasPrefix(action, ActionConnectPrefix):
		if id := strings.TrimPrefix(action, ActionConnectPrefix); id != "" {
			return Connect{IntegrationID: id}
		}
	}
	return Unknown{Raw: action}
}
