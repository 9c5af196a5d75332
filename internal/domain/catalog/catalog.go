// Package catalog serves the farm's crop records and recent mandi prices
// for the dashboard. Data is read-only and loaded once from TOML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

//go:embed catalog.toml
var defaultData []byte

// ErrNotFound is returned when a crop or commodity has no records.
var ErrNotFound = errors.New("not found")

// Crop is one planting on the farm.
type Crop struct {
	ID              string         `toml:"id" json:"id"`
	Name            string         `toml:"name" json:"name"`
	Variety         string         `toml:"variety" json:"variety"`
	Field           string         `toml:"field" json:"field"`
	AreaAcres       float64        `toml:"area_acres" json:"area_acres"`
	PlantedOn       toml.LocalDate `toml:"planted_on" json:"planted_on"`
	ExpectedHarvest toml.LocalDate `toml:"expected_harvest" json:"expected_harvest"`
	Status          string         `toml:"status" json:"status"`
	Notes           string         `toml:"notes" json:"notes,omitempty"`
}

// Price is a single mandi quote in rupees per quintal.
type Price struct {
	Commodity  string         `toml:"commodity" json:"commodity"`
	Market     string         `toml:"market" json:"market"`
	State      string         `toml:"state" json:"state"`
	Date       toml.LocalDate `toml:"date" json:"date"`
	MinPrice   float64        `toml:"min_price" json:"min_price"`
	MaxPrice   float64        `toml:"max_price" json:"max_price"`
	ModalPrice float64        `toml:"modal_price" json:"modal_price"`
}

// Summary aggregates modal prices for one commodity across markets.
type Summary struct {
	Commodity string  `json:"commodity"`
	Markets   int     `json:"markets"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	StdDev    float64 `json:"std_dev"`
}

type document struct {
	Crops  []Crop  `toml:"crops"`
	Prices []Price `toml:"prices"`
}

// Catalog is safe for concurrent reads.
type Catalog struct {
	crops  []Crop
	byID   map[string]int
	prices []Price
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultData)
}

// Load reads a catalog from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes TOML catalog data.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c := &Catalog{
		crops:  doc.Crops,
		byID:   make(map[string]int, len(doc.Crops)),
		prices: doc.Prices,
	}
	for i, crop := range doc.Crops {
		if crop.ID == "" {
			return nil, fmt.Errorf("crop %d has no id", i)
		}
		if _, dup := c.byID[crop.ID]; dup {
			return nil, fmt.Errorf("duplicate crop id %q", crop.ID)
		}
		c.byID[crop.ID] = i
	}
	for i, p := range doc.Prices {
		if p.Commodity == "" || p.Market == "" {
			return nil, fmt.Errorf("price %d needs commodity and market", i)
		}
	}
	return c, nil
}

// Crops returns all crop records.
func (c *Catalog) Crops() []Crop {
	out := make([]Crop, len(c.crops))
	copy(out, c.crops)
	return out
}

// Crop returns one crop by id.
func (c *Catalog) Crop(id string) (Crop, error) {
	i, ok := c.byID[id]
	if !ok {
		return Crop{}, fmt.Errorf("crop %q: %w", id, ErrNotFound)
	}
	return c.crops[i], nil
}

// Prices filters quotes by commodity and market, case-insensitively.
// Empty filters match everything. Results are ordered by commodity then market.
func (c *Catalog) Prices(commodity, market string) []Price {
	out := make([]Price, 0, len(c.prices))
	for _, p := range c.prices {
		if commodity != "" && !strings.EqualFold(p.Commodity, commodity) {
			continue
		}
		if market != "" && !strings.EqualFold(p.Market, market) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Commodity != out[j].Commodity {
			return out[i].Commodity < out[j].Commodity
		}
		return out[i].Market < out[j].Market
	})
	return out
}

// Summary computes modal price statistics for a commodity.
func (c *Catalog) Summary(commodity string) (Summary, error) {
	rows := c.Prices(commodity, "")
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("commodity %q: %w", commodity, ErrNotFound)
	}

	modal := make([]float64, len(rows))
	for i, p := range rows {
		modal[i] = p.ModalPrice
	}

	mean, std := stat.MeanStdDev(modal, nil)
	if len(modal) < 2 {
		std = 0
	}

	return Summary{
		Commodity: rows[0].Commodity,
		Markets:   len(rows),
		Mean:      mean,
		Min:       floats.Min(modal),
		Max:       floats.Max(modal),
		StdDev:    std,
	}, nil
}
