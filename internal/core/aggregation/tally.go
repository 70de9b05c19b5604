package aggregation

import (
	"sort"

	v1 "github.com/aevon-lab/salespulse/internal/api/v1"
	"github.com/shopspring/decimal"
)

// JoinState records whether a group's reference row has been looked up.
type JoinState uint8

const (
	JoinPending JoinState = iota
	JoinResolved
	JoinMissing
)

// Group accumulates quantity and revenue for one product or customer id.
// Name and Region are filled in by the join.
type Group struct {
	ID       string
	Name     string
	Region   string
	Quantity int64
	Revenue  decimal.Decimal
	Join     JoinState
}

// groupSet keeps groups in first-encountered order. That order is the
// tie-break for equal revenue.
type groupSet struct {
	order []*Group
	index map[string]*Group
}

func newGroupSet() groupSet {
	return groupSet{index: make(map[string]*Group)}
}

func (s *groupSet) add(id string, quantity int64, revenue decimal.Decimal) {
	g, ok := s.index[id]
	if !ok {
		g = &Group{ID: id, Revenue: decimal.Zero}
		s.index[id] = g
		s.order = append(s.order, g)
	}
	g.Quantity += quantity
	g.Revenue = g.Revenue.Add(revenue)
}

func (s *groupSet) clone() groupSet {
	c := groupSet{
		order: make([]*Group, len(s.order)),
		index: make(map[string]*Group, len(s.index)),
	}
	for i, g := range s.order {
		cp := *g
		c.order[i] = &cp
		c.index[cp.ID] = &cp
	}
	return c
}

func (s *groupSet) ranked() []*Group {
	out := make([]*Group, len(s.order))
	copy(out, s.order)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue.GreaterThan(out[j].Revenue)
	})
	return out
}

// Tally is the complete grouping state of a window: totals, every product
// and customer group, and region revenue. Snapshots are views over it.
//
// A Tally is not safe for concurrent use.
type Tally struct {
	window    Window
	total     decimal.Decimal
	orders    int64
	lastSeq   int64
	folded    map[string]struct{}
	products  groupSet
	customers groupSet
	regions   []RegionTotal
	regionIdx map[string]int
}

// NewTally returns an empty tally for w.
func NewTally(w Window) *Tally {
	return &Tally{
		window:    w,
		total:     decimal.Zero,
		folded:    make(map[string]struct{}),
		products:  newGroupSet(),
		customers: newGroupSet(),
		regionIdx: make(map[string]int),
	}
}

// Clone returns a deep copy of t.
func (t *Tally) Clone() *Tally {
	c := &Tally{
		window:    t.window,
		total:     t.total,
		orders:    t.orders,
		lastSeq:   t.lastSeq,
		folded:    make(map[string]struct{}, len(t.folded)),
		products:  t.products.clone(),
		customers: t.customers.clone(),
		regions:   make([]RegionTotal, len(t.regions)),
		regionIdx: make(map[string]int, len(t.regionIdx)),
	}
	for id := range t.folded {
		c.folded[id] = struct{}{}
	}
	copy(c.regions, t.regions)
	for r, i := range t.regionIdx {
		c.regionIdx[r] = i
	}
	return c
}

func (t *Tally) Window() Window                { return t.window }
func (t *Tally) TotalRevenue() decimal.Decimal { return t.total }
func (t *Tally) OrderCount() int64             { return t.orders }

// LastSeq is the highest insertion sequence folded so far; 0 when the store
// does not assign one.
func (t *Tally) LastSeq() int64 { return t.lastSeq }

// Contains reports whether a sale with id has been folded.
func (t *Tally) Contains(id string) bool {
	_, ok := t.folded[id]
	return ok
}

// Fold adds a sale to the totals and to its product and customer groups.
// It does not check the window; callers filter first.
func (t *Tally) Fold(sale *v1.SaleEvent) {
	t.folded[sale.ID] = struct{}{}
	t.total = t.total.Add(sale.TotalRevenue)
	t.orders++
	if sale.Seq > t.lastSeq {
		t.lastSeq = sale.Seq
	}
	t.products.add(sale.ProductID, sale.Quantity, sale.TotalRevenue)
	t.customers.add(sale.CustomerID, sale.Quantity, sale.TotalRevenue)
}

// AddRegionRevenue adds amount to region, appending the region on first sight.
func (t *Tally) AddRegionRevenue(region string, amount decimal.Decimal) {
	if i, ok := t.regionIdx[region]; ok {
		t.regions[i].TotalRevenue = t.regions[i].TotalRevenue.Add(amount)
		return
	}
	t.regionIdx[region] = len(t.regions)
	t.regions = append(t.regions, RegionTotal{Region: region, TotalRevenue: amount})
}

// RankedProducts returns every product group sorted by revenue descending.
func (t *Tally) RankedProducts() []*Group { return t.products.ranked() }

// RankedCustomers returns every customer group sorted by revenue descending.
func (t *Tally) RankedCustomers() []*Group { return t.customers.ranked() }

// CustomerIDs returns the distinct customer ids in first-encountered order.
func (t *Tally) CustomerIDs() []string {
	ids := make([]string, len(t.customers.order))
	for i, g := range t.customers.order {
		ids[i] = g.ID
	}
	return ids
}

// JoinProduct records the join outcome for a product group.
// A nil product means the row does not exist and marks the group missing,
// even if it resolved before.
func (t *Tally) JoinProduct(id string, p *v1.Product) {
	g, ok := t.products.index[id]
	if !ok {
		return
	}
	if p == nil {
		g.Join = JoinMissing
		return
	}
	g.Name = p.Name
	g.Join = JoinResolved
}

// JoinCustomer records the join outcome for a customer group.
// A nil customer means the row does not exist and marks the group missing,
// even if it resolved before.
func (t *Tally) JoinCustomer(id string, c *v1.Customer) {
	g, ok := t.customers.index[id]
	if !ok {
		return
	}
	if c == nil {
		g.Join = JoinMissing
		return
	}
	g.Name = c.Name
	g.Region = c.Region
	g.Join = JoinResolved
}

// CustomerRegion returns the region of a customer group that resolved.
func (t *Tally) CustomerRegion(id string) (string, bool) {
	g, ok := t.customers.index[id]
	if !ok || g.Join != JoinResolved {
		return "", false
	}
	return g.Region, true
}

// Snapshot renders the tally. Each ranking takes the first limit groups and
// then drops the ones whose join did not resolve, so it may hold fewer than
// limit rows.
func (t *Tally) Snapshot(limit int) Snapshot {
	regions := make([]RegionTotal, len(t.regions))
	copy(regions, t.regions)
	return Snapshot{
		Window:       t.window,
		TotalRevenue: t.total,
		OrderCount:   t.orders,
		TopProducts:  TopProducts(t.RankedProducts(), limit),
		TopCustomers: TopCustomers(t.RankedCustomers(), limit),
		RegionTotals: regions,
	}
}

// TopProducts truncates ranked to limit and keeps resolved groups.
func TopProducts(ranked []*Group, limit int) []ProductTotal {
	top := Head(ranked, limit)
	out := make([]ProductTotal, 0, len(top))
	for _, g := range top {
		if g.Join != JoinResolved {
			continue
		}
		out = append(out, ProductTotal{
			ProductID:     g.ID,
			ProductName:   g.Name,
			TotalQuantity: g.Quantity,
			TotalRevenue:  g.Revenue,
		})
	}
	return out
}

// TopCustomers truncates ranked to limit and keeps resolved groups.
func TopCustomers(ranked []*Group, limit int) []CustomerTotal {
	top := Head(ranked, limit)
	out := make([]CustomerTotal, 0, len(top))
	for _, g := range top {
		if g.Join != JoinResolved {
			continue
		}
		out = append(out, CustomerTotal{
			CustomerID:    g.ID,
			CustomerName:  g.Name,
			Region:        g.Region,
			TotalQuantity: g.Quantity,
			TotalRevenue:  g.Revenue,
		})
	}
	return out
}

// Head returns the first limit groups; a negative limit keeps all of them.
func Head(groups []*Group, limit int) []*Group {
	if limit >= 0 && len(groups) > limit {
		return groups[:limit]
	}
	return groups
}
