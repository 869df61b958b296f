// Package catalog loads the seed catalog of the shop from YAML. The default
// catalog is embedded in the binary; an operator may point CATALOG_FILE at
// another file with the same layout.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tbourn/go-rewards-shop/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

type file struct {
	Items []entry `yaml:"items"`
}

type entry struct {
	ID                       string     `yaml:"id"`
	Category                 string     `yaml:"category"`
	Game                     string     `yaml:"game"`
	Name                     string     `yaml:"name"`
	Description              string     `yaml:"description"`
	Cost                     int64      `yaml:"cost"`
	ImageURL                 string     `yaml:"image_url"`
	Available                *bool      `yaml:"available"`
	ExpiresAt                *time.Time `yaml:"expires_at"`
	Type                     string     `yaml:"type"`
	RequiresDeliveryUsername bool       `yaml:"requires_delivery_username"`
	Perk                     *struct {
		Multiplier float64 `yaml:"multiplier"`
		Minutes    int     `yaml:"minutes"`
	} `yaml:"perk"`
}

// Default returns the embedded catalog.
func Default() ([]domain.Item, error) {
	return Parse(defaultSeed)
}

// Load reads a catalog file, or the embedded catalog when path is empty.
func Load(path string) ([]domain.Item, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML catalog. Items are available unless
// stated otherwise; an expires_at makes an item limited-time.
func Parse(b []byte) ([]domain.Item, error) {
	var f file
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Items))
	out := make([]domain.Item, 0, len(f.Items))
	for i, e := range f.Items {
		it, err := e.item()
		if err != nil {
			return nil, fmt.Errorf("catalog: item %d: %w", i, err)
		}
		if _, dup := seen[it.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate item id %q", it.ID)
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}

func (e entry) item() (domain.Item, error) {
	it := domain.Item{
		ID:                       strings.TrimSpace(e.ID),
		Category:                 strings.TrimSpace(e.Category),
		Game:                     strings.TrimSpace(e.Game),
		Name:                     strings.TrimSpace(e.Name),
		Description:              strings.TrimSpace(e.Description),
		Cost:                     e.Cost,
		ImageURL:                 strings.TrimSpace(e.ImageURL),
		Available:                e.Available == nil || *e.Available,
		Type:                     domain.ItemType(strings.TrimSpace(e.Type)),
		RequiresDeliveryUsername: e.RequiresDeliveryUsername,
	}
	if it.Type == "" {
		it.Type = domain.ItemTypeItem
	}
	if e.ExpiresAt != nil {
		at := e.ExpiresAt.UTC()
		it.LimitedTime = true
		it.ExpiresAt = &at
	}

	switch {
	case it.ID == "":
		return it, fmt.Errorf("id is required")
	case it.Name == "":
		return it, fmt.Errorf("%s: name is required", it.ID)
	case it.Cost < 0:
		return it, fmt.Errorf("%s: cost must be >= 0", it.ID)
	case !it.Type.Valid():
		return it, fmt.Errorf("%s: unknown type %q", it.ID, it.Type)
	}

	if it.Type == domain.ItemTypePerk {
		if e.Perk == nil || e.Perk.Multiplier <= 0 || e.Perk.Minutes <= 0 {
			return it, fmt.Errorf("%s: perk items need a positive multiplier and minutes", it.ID)
		}
		it.PerkMultiplier = e.Perk.Multiplier
		it.PerkMinutes = e.Perk.Minutes
	}
	return it, nil
}
