package config

// Destination configuration types. One YAML file per destination,
// loaded from the destinations directory at process start. Credentials
// live in these files (or the secret store mounted behind them), never
// in source.

type Platform string

const (
	PlatformShopify   Platform = "shopify"
	PlatformWordPress Platform = "wordpress"
)

type Destination struct {
	Name      string    `yaml:"name"` // Defaults to the filename (without extension)
	Platform  Platform  `yaml:"platform"`
	Priority  int       `yaml:"priority"`
	Enabled   *bool     `yaml:"enabled"` // Defaults to true when omitted
	Shopify   Shopify   `yaml:"shopify"`
	WordPress WordPress `yaml:"wordpress"`
}

type Shopify struct {
	StoreDomain   string `yaml:"store_domain"` // e.g. my-store.myshopify.com
	AccessToken   string `yaml:"access_token"`
	APIVersion    string `yaml:"api_version"`
	DefaultAuthor string `yaml:"default_author"`
}

type WordPress struct {
	SiteURL           string `yaml:"site_url"`
	Username          string `yaml:"username"`
	AppPassword       string `yaml:"app_password"`
	DefaultCategoryID int    `yaml:"default_category_id"`
	DefaultStatus     string `yaml:"default_status"`
}

func (d *Destination) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// Set holds all loaded destinations, sorted by priority (descending).
type Set struct {
	destinations []*Destination
}

func NewSet(destinations []*Destination) *Set {
	return &Set{destinations: destinations}
}

func (s *Set) All() []*Destination {
	return s.destinations
}

func (s *Set) Shopify() []*Destination {
	return s.byPlatform(PlatformShopify)
}

func (s *Set) WordPress() []*Destination {
	return s.byPlatform(PlatformWordPress)
}

func (s *Set) Count() int {
	return len(s.destinations)
}

// Filter returns the subset of destinations whose names are listed.
// An empty list selects every enabled destination.
func (s *Set) Filter(names []string) *Set {
	if len(names) == 0 {
		return s
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var out []*Destination
	for _, d := range s.destinations {
		if wanted[d.Name] {
			out = append(out, d)
		}
	}
	return &Set{destinations: out}
}

func (s *Set) byPlatform(p Platform) []*Destination {
	var out []*Destination
	for _, d := range s.destinations {
		if d.Platform == p {
			out = append(out, d)
		}
	}
	return out
}
