// Package session owns the per-client search state: the query being edited,
// the current result page, selection and hover, and ROI edit mode.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/robert-malhotra/scene-browser/internal/catalog"
)

// ErrSuperseded is returned by a search whose completion was discarded
// because a newer search was issued while it was in flight.
var ErrSuperseded = errors.New("search superseded by a newer request")

// Origin tells where an ROI edit came from.
type Origin int

const (
	// OriginManual is an ROI typed into numeric fields.
	OriginManual Origin = iota
	// OriginDrag is an ROI drawn on the map.
	OriginDrag
)

func (o Origin) String() string {
	if o == OriginDrag {
		return "drag"
	}
	return "manual"
}

// AutoSearchPolicy decides whether an ROI edit triggers a search by itself.
type AutoSearchPolicy string

const (
	AutoSearchNever  AutoSearchPolicy = "never"
	AutoSearchDrag   AutoSearchPolicy = "drag"
	AutoSearchAlways AutoSearchPolicy = "always"
)

// ParseAutoSearchPolicy parses a policy name. The empty string is "never".
func ParseAutoSearchPolicy(s string) (AutoSearchPolicy, error) {
	switch p := AutoSearchPolicy(s); p {
	case "":
		return AutoSearchNever, nil
	case AutoSearchNever, AutoSearchDrag, AutoSearchAlways:
		return p, nil
	}
	return "", fmt.Errorf("unknown auto search policy %q", s)
}

func (p AutoSearchPolicy) searchesOn(o Origin) bool {
	switch p {
	case AutoSearchAlways:
		return true
	case AutoSearchDrag:
		return o == OriginDrag
	}
	return false
}

// FilterPatch is a partial update of the query filters. Nil fields are left
// unchanged; an empty string clears a filter.
type FilterPatch struct {
	ProductID *string       `json:"product_id,omitempty"`
	DateStart *string       `json:"date_start,omitempty"`
	DateEnd   *string       `json:"date_end,omitempty"`
	ROI       *catalog.BBox `json:"roi_bbox,omitempty"`
	// ClearROI removes the spatial filter. It wins over ROI.
	ClearROI bool `json:"clear_roi,omitempty"`
}

// Snapshot is a read-only copy of the controller state. Result is shared
// with the controller and must not be modified.
type Snapshot struct {
	Query       catalog.Query         `json:"query"`
	Result      *catalog.SearchResult `json:"result"`
	SelectedUID string                `json:"selected_uid,omitempty"`
	HoveredUID  string                `json:"hovered_uid,omitempty"`
	RoiEditMode bool                  `json:"roi_edit_mode"`
	Loading     bool                  `json:"loading"`
	Error       string                `json:"error,omitempty"`
	Products    []catalog.Product     `json:"products"`
	// Version increases with every state transition.
	Version uint64 `json:"version"`
}

// SelectedScene looks up the selected uid in the current result page.
// Selection is a weak reference, so this is nil when the uid is not on it.
func (s Snapshot) SelectedScene() *catalog.Scene {
	return s.find(s.SelectedUID)
}

// HoveredScene looks up the hovered uid in the current result page.
func (s Snapshot) HoveredScene() *catalog.Scene {
	return s.find(s.HoveredUID)
}

func (s Snapshot) find(uid string) *catalog.Scene {
	if uid == "" || s.Result == nil {
		return nil
	}
	for i := range s.Result.Items {
		if s.Result.Items[i].SceneUID == uid {
			return &s.Result.Items[i]
		}
	}
	return nil
}

// Options configures a Controller.
type Options struct {
	// DefaultROI is the initial ROI and the target of ResetRoi.
	DefaultROI catalog.BBox
	// DefaultLimit is the initial page size.
	DefaultLimit int
	AutoSearch   AutoSearchPolicy
	Logger       *slog.Logger
}

// Controller is the single owner of one session's search state. Every
// mutation goes through its methods; views read Snapshots.
type Controller struct {
	catalog catalog.Catalog
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	state   Snapshot
	issued  uint64 // sequence number of the latest search issued
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewController creates a controller with the default query and an empty
// result. Call Bootstrap to load products and run the first search.
func NewController(c catalog.Catalog, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.AutoSearch == "" {
		opts.AutoSearch = AutoSearchNever
	}

	q := catalog.Query{Page: catalog.DefaultPage, Limit: opts.DefaultLimit}.Normalize()
	if opts.DefaultROI != (catalog.BBox{}) {
		roi := opts.DefaultROI
		q.ROI = &roi
	}

	return &Controller{
		catalog: c,
		opts:    opts,
		logger:  opts.Logger,
		state: Snapshot{
			Query:    q,
			Result:   &catalog.SearchResult{Page: q.Page, Limit: q.Limit, Items: []catalog.Scene{}},
			Products: []catalog.Product{},
		},
		subs: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state transition.
// fn is called without the controller lock held, so it may call back into
// the controller. The returned function unsubscribes.
func (c *Controller) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// update applies fn under the lock, bumps the version, and notifies
// subscribers with the resulting snapshot.
func (c *Controller) update(fn func(s *Snapshot)) Snapshot {
	c.mu.Lock()
	fn(&c.state)
	snap, subs := c.commitLocked()
	c.mu.Unlock()

	notify(subs, snap)
	return snap
}

// commitLocked bumps the version and returns the snapshot and subscribers
// to notify once the lock is released.
func (c *Controller) commitLocked() (Snapshot, []func(Snapshot)) {
	c.state.Version++
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, id := range slices.Sorted(maps.Keys(c.subs)) {
		subs = append(subs, c.subs[id])
	}
	return c.snapshotLocked(), subs
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := c.state
	s.Query = cloneQuery(s.Query)
	s.Products = slices.Clone(s.Products)
	return s
}

// Bootstrap loads the product list and runs the initial search with the
// current query.
func (c *Controller) Bootstrap(ctx context.Context) (Snapshot, error) {
	c.update(func(s *Snapshot) { s.Error = "" })

	products, err := c.catalog.ListProducts(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load products: %w", err)
		c.logger.ErrorContext(ctx, "bootstrap failed", "error", err)
		snap := c.update(func(s *Snapshot) { s.Error = err.Error() })
		return snap, err
	}

	c.update(func(s *Snapshot) { s.Products = slices.Clone(products) })

	return c.RunSearch(ctx)
}

// SetFilters merges patch into the query and resets the page to 1. It does
// not search.
func (c *Controller) SetFilters(patch FilterPatch) Snapshot {
	return c.update(func(s *Snapshot) {
		if patch.ProductID != nil {
			s.Query.ProductID = *patch.ProductID
		}
		if patch.DateStart != nil {
			s.Query.DateStart = normalizeDate(*patch.DateStart)
		}
		if patch.DateEnd != nil {
			s.Query.DateEnd = normalizeDate(*patch.DateEnd)
		}
		if patch.ClearROI {
			s.Query.ROI = nil
		} else if patch.ROI != nil {
			roi := patch.ROI.Normalize()
			s.Query.ROI = &roi
		}
		s.Query.Page = catalog.DefaultPage
	})
}

// RunSearch searches with the current filters on page 1, adopts the result,
// selects its first item, clears hover, and leaves ROI edit mode.
func (c *Controller) RunSearch(ctx context.Context) (Snapshot, error) {
	var (
		seq uint64
		q   catalog.Query
	)
	c.update(func(s *Snapshot) {
		c.issued++
		seq = c.issued
		s.Loading = true
		s.Error = ""
		s.RoiEditMode = false
		q = cloneQuery(s.Query)
		q.Page = catalog.DefaultPage
	})

	return c.execute(ctx, seq, q)
}

// ChangePage fetches page p of the current query. Filters, ROI, and edit
// mode are kept. The page is committed only when the fetch succeeds.
func (c *Controller) ChangePage(ctx context.Context, p int) (Snapshot, error) {
	var (
		seq uint64
		q   catalog.Query
	)
	c.update(func(s *Snapshot) {
		c.issued++
		seq = c.issued
		s.Loading = true
		s.Error = ""
		q = cloneQuery(s.Query)
		q.Page = p
	})

	return c.execute(ctx, seq, q)
}

// execute runs the catalog call outside the lock and commits the outcome
// only if seq is still the latest issued search.
func (c *Controller) execute(ctx context.Context, seq uint64, q catalog.Query) (Snapshot, error) {
	q = q.Normalize()

	c.logger.DebugContext(ctx, "searching catalog",
		"catalog", c.catalog.Name(),
		"seq", seq,
		"product_id", q.ProductID,
		"page", q.Page,
		"limit", q.Limit,
	)

	result, err := c.catalog.Search(ctx, q)
	if err == nil && result == nil {
		err = errors.New("catalog returned no result")
	}
	if err != nil {
		err = fmt.Errorf("search failed: %w", err)
	}

	c.mu.Lock()
	if seq != c.issued {
		c.mu.Unlock()
		c.logger.WarnContext(ctx, "discarding stale search completion", "seq", seq, "page", q.Page)
		return c.Snapshot(), ErrSuperseded
	}

	c.state.Loading = false
	if err != nil {
		c.state.Error = err.Error()
	} else {
		c.state.Query.Page = q.Page
		c.state.Query.Limit = q.Limit
		c.state.Result = result
		c.state.SelectedUID = ""
		if len(result.Items) > 0 {
			c.state.SelectedUID = result.Items[0].SceneUID
		}
		c.state.HoveredUID = ""
	}
	snap, subs := c.commitLocked()
	c.mu.Unlock()

	notify(subs, snap)

	if err != nil {
		c.logger.ErrorContext(ctx, "search failed", "seq", seq, "error", err)
		return snap, err
	}
	return snap, nil
}

// Select sets the selected scene uid. Membership in the current page is not
// checked.
func (c *Controller) Select(uid string) Snapshot {
	return c.update(func(s *Snapshot) { s.SelectedUID = uid })
}

// Hover sets the hovered scene uid; "" clears it.
func (c *Controller) Hover(uid string) Snapshot {
	return c.update(func(s *Snapshot) { s.HoveredUID = uid })
}

// SetRoiEditMode enters or leaves ROI edit mode. The ROI itself is untouched.
func (c *Controller) SetRoiEditMode(on bool) Snapshot {
	return c.update(func(s *Snapshot) { s.RoiEditMode = on })
}

// ToggleRoiEditMode flips ROI edit mode.
func (c *Controller) ToggleRoiEditMode() Snapshot {
	return c.update(func(s *Snapshot) { s.RoiEditMode = !s.RoiEditMode })
}

// SetRoiBBox replaces the ROI and resets the page to 1. Whether a search
// follows depends on the auto search policy and the edit's origin.
func (c *Controller) SetRoiBBox(ctx context.Context, rect catalog.BBox, origin Origin) (Snapshot, error) {
	snap := c.update(func(s *Snapshot) {
		roi := rect.Normalize()
		s.Query.ROI = &roi
		s.Query.Page = catalog.DefaultPage
	})

	if !c.opts.AutoSearch.searchesOn(origin) {
		return snap, nil
	}

	c.logger.DebugContext(ctx, "roi changed, searching", "origin", origin.String(), "policy", string(c.opts.AutoSearch))
	return c.RunSearch(ctx)
}

// ResetRoi restores the default ROI and resets the page to 1.
func (c *Controller) ResetRoi() Snapshot {
	return c.update(func(s *Snapshot) {
		if c.opts.DefaultROI == (catalog.BBox{}) {
			s.Query.ROI = nil
		} else {
			roi := c.opts.DefaultROI
			s.Query.ROI = &roi
		}
		s.Query.Page = catalog.DefaultPage
	})
}

// normalizeDate clears date filters that are not calendar days.
func normalizeDate(v string) string {
	d, _ := catalog.NormalizeDate(v)
	return d
}

func cloneQuery(q catalog.Query) catalog.Query {
	if q.ROI != nil {
		roi := *q.ROI
		q.ROI = &roi
	}
	return q
}
