package domain

// Integration is a third-party tool the assistant asks the user to connect.
type Integration struct {
	ID      string `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Emoji   string `json:"emoji" yaml:"emoji"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
}

// FocusDomain is a marketing area the user can ask the assistant to prioritize.
// Commitment is the summary line shown once the selection is confirmed.
type FocusDomain struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Emoji       string `json:"emoji" yaml:"emoji"`
	Description string `json:"description" yaml:"description"`
	Commitment  string `json:"commitment" yaml:"commitment"`
}

// Catalog is the immutable configuration data the engine is built with.
type Catalog struct {
	Integrations []Integration `json:"integrations" yaml:"integrations"`
	Domains      []FocusDomain `json:"domains" yaml:"domains"`
}

// DefaultCatalog returns the onboarding catalogs shared with the other pages.
// The ids and display names must not change.
func DefaultCatalog() Catalog {
	return Catalog{
		Integrations: []Integration{
			{ID: "meta", Name: "Meta Ads", Emoji: "📊", Primary: true},
			{ID: "hubspot", Name: "HubSpot", Emoji: "🧡"},
			{ID: "customerio", Name: "Customer.io", Emoji: "📧"},
		},
		Domains: []FocusDomain{
			{
				ID:          "paid_ads",
				Name:        "Paid Ads",
				Emoji:       "📊",
				Description: "Meta, Google Ads monitoring & optimization",
				Commitment:  "**Paid Ads**: I'll monitor your Meta & Google campaigns, alert you to issues, and suggest optimizations",
			},
			{
				ID:          "seo",
				Name:        "SEO",
				Emoji:       "🔍",
				Description: "Rankings, keywords, technical audits",
				Commitment:  "**SEO**: I'll track rankings, find keyword opportunities, and run technical audits",
			},
			{
				ID:          "content",
				Name:        "Content",
				Emoji:       "✍️",
				Description: "Ideation, creation, publishing",
				Commitment:  "**Content**: I'll help with ideation, track your content pipeline, and assist with publishing",
			},
			{
				ID:          "email",
				Name:        "Email Marketing",
				Emoji:       "📧",
				Description: "Campaigns, automation, analytics",
				Commitment:  "**Email**: I'll analyze campaign performance, suggest A/B tests, and help with automation",
			},
		},
	}
}

// Integration looks up an integration by id.
func (c Catalog) Integration(id string) (Integration, bool) {
	for _, i := range c.Integrations {
		if i.ID == id {
			return i, true
		}
	}
	return Integration{}, false
}

// Domain looks up a focus domain by id.
func (c Catalog) Domain(id string) (FocusDomain, bool) {
	for _, d := range c.Domains {
		if d.ID == id {
			return d, true
		}
	}
	return FocusDomain{}, false
}

// IntegrationName returns the display name for id, or id itself when the
// catalog does not know it.
func (c Catalog) IntegrationName(id string) string {
	if i, ok := c.Integration(id); ok {
		return i.Name
	}
	return id
}

// IntegrationIDs returns the integration ids in catalog order.
func (c Catalog) IntegrationIDs() []string {
	ids := make([]string, len(c.Integrations))
	for i, in := range c.Integrations {
		ids[i] = in.ID
	}
	return ids
}
