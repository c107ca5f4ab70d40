package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of destination configurations
type Loader struct {
	destinationsDir string
}

func NewLoader(destinationsDir string) *Loader {
	return &Loader{destinationsDir: destinationsDir}
}

// LoadAll loads all YAML destination files from the destinations
// directory. Disabled destinations are dropped at load time.
func (l *Loader) LoadAll() (*Set, error) {
	if _, err := os.Stat(l.destinationsDir); os.IsNotExist(err) {
		return &Set{}, nil
	}

	files, err := filepath.Glob(filepath.Join(l.destinationsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.destinationsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	var destinations []*Destination
	for _, file := range files {
		dest, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(dest); err != nil {
			return nil, fmt.Errorf("invalid destination %s: %w", file, err)
		}

		if !dest.IsEnabled() {
			continue
		}

		destinations = append(destinations, dest)
	}

	sort.SliceStable(destinations, func(i, j int) bool {
		return destinations[i].Priority > destinations[j].Priority
	})

	return &Set{destinations: destinations}, nil
}

func (l *Loader) loadFile(path string) (*Destination, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var dest Destination
	if err := yaml.Unmarshal(data, &dest); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&dest, path)

	return &dest, nil
}

func (l *Loader) setDefaults(dest *Destination, path string) {
	if dest.Name == "" {
		base := filepath.Base(path)
		dest.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if dest.Platform == PlatformShopify && dest.Shopify.APIVersion == "" {
		dest.Shopify.APIVersion = "2024-01"
	}
	if dest.Platform == PlatformWordPress && dest.WordPress.DefaultStatus == "" {
		dest.WordPress.DefaultStatus = "draft"
	}
}

func (l *Loader) validate(dest *Destination) error {
	switch dest.Platform {
	case PlatformShopify:
		if dest.Shopify.StoreDomain == "" {
			return fmt.Errorf("shopify store_domain is required")
		}
		if dest.Shopify.AccessToken == "" {
			return fmt.Errorf("shopify access_token is required")
		}
	case PlatformWordPress:
		if dest.WordPress.SiteURL == "" {
			return fmt.Errorf("wordpress site_url is required")
		}
		if dest.WordPress.Username == "" || dest.WordPress.AppPassword == "" {
			return fmt.Errorf("wordpress username and app_password are required")
		}
	case "":
		return fmt.Errorf("platform is required")
	default:
		return fmt.Errorf("unknown platform: %s", dest.Platform)
	}

	return nil
}
