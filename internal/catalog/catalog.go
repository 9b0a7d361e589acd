// ABOUTME: Product catalog loaded from a YAML menu file or the embedded default menu
// ABOUTME: Provides lookup by product id plus category and text filtering for browsing

package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrUnknownProduct is returned when a product id is not on the menu.
var ErrUnknownProduct = errors.New("unknown product")

// AllCategories matches every category in Filter.
const AllCategories = "All"

//go:embed menu.yaml
var defaultMenu []byte

// Product is a menu entry.
type Product struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Category    string          `yaml:"category"`
	Price       decimal.Decimal `yaml:"-"`
	Glyph       string          `yaml:"glyph"`

	// Raw string value for YAML unmarshaling
	PriceRaw string `yaml:"price"`
}

// Catalog resolves product ids to their current name, price and glyph.
type Catalog interface {
	Product(id string) (Product, error)
}

// Menu is an immutable, in-memory Catalog.
type Menu struct {
	categories []string
	items      []Product
	byID       map[string]int
}

// Ensure Menu implements Catalog.
var _ Catalog = (*Menu)(nil)

type menuFile struct {
	Categories []string  `yaml:"categories"`
	Items      []Product `yaml:"items"`
}

// Default returns the built-in menu.
func Default() (*Menu, error) {
	return Parse(defaultMenu)
}

// Load reads a menu from a YAML file.
func Load(path string) (*Menu, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading menu file: %w", err)
	}
	menu, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading menu %s: %w", path, err)
	}
	return menu, nil
}

// Parse builds a Menu from YAML and validates every item.
func Parse(data []byte) (*Menu, error) {
	var f menuFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing menu: %w", err)
	}
	for i := range f.Items {
		price, err := decimal.NewFromString(strings.TrimSpace(f.Items[i].PriceRaw))
		if err != nil {
			return nil, fmt.Errorf("item %q: parsing price %q: %w", f.Items[i].ID, f.Items[i].PriceRaw, err)
		}
		f.Items[i].Price = price
	}
	return NewMenu(f.Categories, f.Items)
}

// NewMenu builds a Menu from already-parsed products.
// Ids must be unique and non-empty, names non-empty, and prices non-negative.
func NewMenu(categories []string, items []Product) (*Menu, error) {
	m := &Menu{
		categories: append([]string(nil), categories...),
		items:      make([]Product, 0, len(items)),
		byID:       make(map[string]int, len(items)),
	}

	for _, p := range items {
		if p.ID == "" {
			return nil, fmt.Errorf("menu item %q has no id", p.Name)
		}
		if _, dup := m.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate menu item id %q", p.ID)
		}
		if p.Name == "" {
			return nil, fmt.Errorf("menu item %q has no name", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("menu item %q has negative price %s", p.ID, p.Price)
		}
		m.byID[p.ID] = len(m.items)
		m.items = append(m.items, p)
	}

	return m, nil
}

// Product looks up a product by id.
func (m *Menu) Product(id string) (Product, error) {
	i, ok := m.byID[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return m.items[i], nil
}

// Items returns every product in menu order.
func (m *Menu) Items() []Product {
	return append([]Product(nil), m.items...)
}

// Categories returns the menu categories in display order.
func (m *Menu) Categories() []string {
	return append([]string(nil), m.categories...)
}

// Filter returns products in category (or all, for AllCategories or "") whose
// name or description contains query, ignoring case.
func (m *Menu) Filter(category, query string) []Product {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []Product
	for _, p := range m.items {
		if category != "" && category != AllCategories && !strings.EqualFold(p.Category, category) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Description), query) {
			continue
		}
		out = append(out, p)
	}
	return out
}
