package sim

import (
	"fmt"
	"slices"
)

type ModifierCategory string

const (
	ModifierCity      ModifierCategory = "city"
	ModifierMenu      ModifierCategory = "menu"
	ModifierPricing   ModifierCategory = "pricing"
	ModifierLogistics ModifierCategory = "logistics"
)

func (c ModifierCategory) valid() bool {
	switch c {
	case ModifierCity, ModifierMenu, ModifierPricing, ModifierLogistics:
		return true
	}
	return false
}

// ModifierSpec is one purchasable unlock. City modifiers add a revenue unit;
// the other categories add BonusBps to their category multiplier.
type ModifierSpec struct {
	ID       string           `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Category ModifierCategory `json:"category" yaml:"category"`
	Cost     int64            `json:"cost" yaml:"cost"`
	BonusBps int64            `json:"bonus_bps" yaml:"bonus_bps"`
}

type SectorSpec struct {
	ID              string         `json:"id" yaml:"id"`
	Name            string         `json:"name" yaml:"name"`
	BaseRatePerCity int64          `json:"base_rate_per_city" yaml:"base_rate_per_city"`
	Modifiers       []ModifierSpec `json:"modifiers" yaml:"modifiers"`
}

func (s SectorSpec) modifier(id string) (ModifierSpec, bool) {
	for _, m := range s.Modifiers {
		if m.ID == id {
			return m, true
		}
	}
	return ModifierSpec{}, false
}

// SectorCatalog is the read-only price list for sector investments.
type SectorCatalog struct {
	sectors map[string]SectorSpec
}

func NewSectorCatalog(specs []SectorSpec) SectorCatalog {
	out := SectorCatalog{sectors: make(map[string]SectorSpec, len(specs))}
	for _, s := range specs {
		out.sectors[s.ID] = s
	}
	return out
}

func (c SectorCatalog) Sector(id string) (SectorSpec, bool) {
	s, ok := c.sectors[id]
	return s, ok
}

func DefaultSectors() []SectorSpec {
	return []SectorSpec{
		{
			ID:              "food",
			Name:            "Cloud Kitchens",
			BaseRatePerCity: Rupees(18_000),
			Modifiers: []ModifierSpec{
				{ID: "pune", Name: "Pune", Category: ModifierCity, Cost: Rupees(150_000)},
				{ID: "mumbai", Name: "Mumbai", Category: ModifierCity, Cost: Rupees(300_000)},
				{ID: "bengaluru", Name: "Bengaluru", Category: ModifierCity, Cost: Rupees(250_000)},
				{ID: "street_menu", Name: "Street Food Menu", Category: ModifierMenu, Cost: Rupees(40_000), BonusBps: 1_000},
				{ID: "premium_menu", Name: "Premium Menu", Category: ModifierMenu, Cost: Rupees(90_000), BonusBps: 2_500},
				{ID: "combo_pricing", Name: "Combo Pricing", Category: ModifierPricing, Cost: Rupees(25_000), BonusBps: 800},
				{ID: "own_fleet", Name: "Own Delivery Fleet", Category: ModifierLogistics, Cost: Rupees(120_000), BonusBps: 1_500},
			},
		},
		{
			ID:              "retail",
			Name:            "Neighbourhood Retail",
			BaseRatePerCity: Rupees(12_000),
			Modifiers: []ModifierSpec{
				{ID: "jaipur", Name: "Jaipur", Category: ModifierCity, Cost: Rupees(100_000)},
				{ID: "delhi", Name: "Delhi", Category: ModifierCity, Cost: Rupees(280_000)},
				{ID: "private_label", Name: "Private Label", Category: ModifierMenu, Cost: Rupees(60_000), BonusBps: 1_200},
				{ID: "loyalty", Name: "Loyalty Pricing", Category: ModifierPricing, Cost: Rupees(30_000), BonusBps: 600},
				{ID: "hub_spoke", Name: "Hub and Spoke", Category: ModifierLogistics, Cost: Rupees(80_000), BonusBps: 1_000},
			},
		},
		{
			ID:              "saas",
			Name:            "SaaS Studio",
			BaseRatePerCity: Rupees(25_000),
			Modifiers: []ModifierSpec{
				{ID: "hyderabad", Name: "Hyderabad", Category: ModifierCity, Cost: Rupees(400_000)},
				{ID: "enterprise_tier", Name: "Enterprise Tier", Category: ModifierPricing, Cost: Rupees(150_000), BonusBps: 3_000},
				{ID: "usage_billing", Name: "Usage Billing", Category: ModifierPricing, Cost: Rupees(50_000), BonusBps: 1_000},
				{ID: "cdn", Name: "Edge CDN", Category: ModifierLogistics, Cost: Rupees(70_000), BonusBps: 700},
			},
		},
	}
}

// SectorInvestment records what has been unlocked in one sector.
// MonthlyRevenue is derived and rewritten on every recompute.
type SectorInvestment struct {
	SectorID       string   `json:"sector_id"`
	TotalInvested  int64    `json:"total_invested"`
	Cities         []string `json:"cities"`
	Menus          []string `json:"menus"`
	Pricing        []string `json:"pricing"`
	Logistics      []string `json:"logistics"`
	MonthlyRevenue int64    `json:"monthly_revenue"`
}

func (s *SectorInvestment) set(c ModifierCategory) *[]string {
	switch c {
	case ModifierCity:
		return &s.Cities
	case ModifierMenu:
		return &s.Menus
	case ModifierPricing:
		return &s.Pricing
	case ModifierLogistics:
		return &s.Logistics
	default:
		panic(fmt.Sprintf("sim: unhandled modifier category %q", c))
	}
}

func (s *SectorInvestment) has(id string) bool {
	for _, c := range []ModifierCategory{ModifierCity, ModifierMenu, ModifierPricing, ModifierLogistics} {
		if slices.Contains(*s.set(c), id) {
			return true
		}
	}
	return false
}

// Business derives the business side-income line from sector investments.
type Business struct {
	catalog     SectorCatalog
	investments []*SectorInvestment
}

func newBusiness(catalog SectorCatalog) *Business {
	return &Business{catalog: catalog}
}

func (m *Business) investment(sectorID string) *SectorInvestment {
	for _, inv := range m.investments {
		if inv.SectorID == sectorID {
			return inv
		}
	}
	return nil
}

func (m *Business) invest(led *Ledger, day uint32, sectorID string, category ModifierCategory, modifierID string) (*SectorInvestment, error) {
	sector, ok := m.catalog.Sector(sectorID)
	if !ok {
		return nil, fmt.Errorf("%w: unknown sector %q", ErrInvalidAmount, sectorID)
	}
	mod, ok := sector.modifier(modifierID)
	if !ok || mod.Category != category {
		return nil, fmt.Errorf("%w: sector %s has no %s modifier %q", ErrInvalidAmount, sectorID, category, modifierID)
	}
	inv := m.investment(sectorID)
	if inv != nil && inv.has(modifierID) {
		return nil, fmt.Errorf("%w: %s already active in %s", ErrConstraintViolation, modifierID, sectorID)
	}
	if category != ModifierCity && (inv == nil || len(inv.Cities) == 0) {
		return nil, fmt.Errorf("%w: open a city in %s first", ErrConstraintViolation, sectorID)
	}
	if led.Cash() < mod.Cost {
		return nil, fmt.Errorf("%w: %s costs %d, cash is %d", ErrInsufficientFunds, mod.Name, mod.Cost, led.Cash())
	}

	if inv == nil {
		inv = &SectorInvestment{SectorID: sectorID}
		m.investments = append(m.investments, inv)
	}
	set := inv.set(category)
	*set = append(*set, modifierID)
	slices.Sort(*set)
	inv.TotalInvested += mod.Cost
	led.applyCashDelta(day, -mod.Cost, CategoryBusiness, fmt.Sprintf("%s: unlocked %s", sector.Name, mod.Name))
	m.recompute(led)
	return inv, nil
}

// sectorRevenue is baseRatePerCity * cities, scaled by (1 + bonus) for each
// non-city category.
func (m *Business) sectorRevenue(inv *SectorInvestment) int64 {
	sector, ok := m.catalog.Sector(inv.SectorID)
	if !ok {
		return 0
	}
	revenue := sector.BaseRatePerCity * int64(len(inv.Cities))
	for _, c := range []ModifierCategory{ModifierMenu, ModifierPricing, ModifierLogistics} {
		var bonus int64
		for _, id := range *inv.set(c) {
			if mod, ok := sector.modifier(id); ok {
				bonus += mod.BonusBps
			}
		}
		revenue += applyBps(revenue, bonus)
	}
	return revenue
}

// recompute replaces the business income line. Calling it twice with the
// same investments leaves the ledger unchanged.
func (m *Business) recompute(led *Ledger) int64 {
	var total int64
	for _, inv := range m.investments {
		inv.MonthlyRevenue = m.sectorRevenue(inv)
		total += inv.MonthlyRevenue
	}
	led.setSideIncomeLine(IncomeBusiness, total)
	return total
}

func (m *Business) snapshot() []SectorInvestment {
	out := make([]SectorInvestment, 0, len(m.investments))
	for _, inv := range m.investments {
		c := *inv
		c.Cities = slices.Clone(inv.Cities)
		c.Menus = slices.Clone(inv.Menus)
		c.Pricing = slices.Clone(inv.Pricing)
		c.Logistics = slices.Clone(inv.Logistics)
		out = append(out, c)
	}
	return out
}

func (m *Business) restore(invs []SectorInvestment) error {
	m.investments = nil
	for _, inv := range invs {
		if _, ok := m.catalog.Sector(inv.SectorID); !ok {
			return fmt.Errorf("%w: unknown sector %q", ErrNotFound, inv.SectorID)
		}
		c := inv
		c.Cities = slices.Clone(inv.Cities)
		c.Menus = slices.Clone(inv.Menus)
		c.Pricing = slices.Clone(inv.Pricing)
		c.Logistics = slices.Clone(inv.Logistics)
		m.investments = append(m.investments, &c)
	}
	return nil
}
