// ABOUTME: Insight lifecycle management from detected patterns
// ABOUTME: Handles type dedup, active and dismissed caps, and owner switching
package insights

import (
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/kinetic/config"
	"github.com/harperreed/kinetic/models"
	"github.com/harperreed/kinetic/storage"
)

// Catalog resolves a product key to a recommendation, or nil when the
// catalog has nothing for it. Supplied by the external catalog collaborator.
type Catalog interface {
	Lookup(key string) *models.Recommendation
}

// CatalogFunc adapts a plain function to Catalog.
type CatalogFunc func(key string) *models.Recommendation

func (f CatalogFunc) Lookup(key string) *models.Recommendation { return f(key) }

// TemplateFunc renders the user-facing message for a pattern. Pure and
// deterministic; replaceable by a richer implementation without touching
// detection.
type TemplateFunc func(p models.DetectedPattern) string

// Manager converts detected patterns into persisted coach insights.
type Manager struct {
	store    storage.Store
	cfg      *config.Config
	catalog  Catalog
	template TemplateFunc
	now      func() time.Time

	// owner and insights cache the currently loaded namespace. Any call for
	// a different owner reloads from storage and discards this state.
	owner  string
	loaded bool
	set    []models.CoachInsight
}

// NewManager creates a manager. A nil catalog never recommends; a nil
// template uses the built-in fallback messages.
func NewManager(store storage.Store, cfg *config.Config, catalog Catalog, template TemplateFunc) *Manager {
	if catalog == nil {
		catalog = CatalogFunc(func(string) *models.Recommendation { return nil })
	}
	if template == nil {
		template = FallbackMessage
	}
	return &Manager{store: store, cfg: cfg, catalog: catalog, template: template, now: time.Now}
}

// SetClock overrides the clock, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Reload switches to owner's namespace, discarding any in-memory state from
// the previous owner.
func (m *Manager) Reload(owner string) {
	m.owner = owner
	m.loaded = true
	m.set = m.load(owner)
}

// ensure makes owner the loaded namespace.
func (m *Manager) ensure(owner string) {
	if !m.loaded || m.owner != owner {
		m.Reload(owner)
	}
}

// Process folds a batch of detected patterns into owner's insight set and
// returns the active insights. A pattern whose type already produced an
// insight within the dedup window is skipped, whether that insight is active
// or dismissed.
func (m *Manager) Process(patterns []models.DetectedPattern, owner string) []models.CoachInsight {
	m.ensure(owner)
	now := m.now()

	for _, p := range patterns {
		if m.recentlySeen(p.Type, now) {
			continue
		}

		insight := models.CoachInsight{
			ID:        uuid.New(),
			Type:      p.Type,
			Message:   m.template(p),
			Priority:  p.Priority,
			CreatedAt: now,
		}
		if p.ProductKey != "" {
			insight.Product = m.catalog.Lookup(p.ProductKey)
		}
		m.set = append(m.set, insight)
	}

	m.applyCaps()
	m.persist()
	return m.Active(owner)
}

// recentlySeen reports whether any known insight of this type was created
// within the dedup window.
func (m *Manager) recentlySeen(t models.PatternType, now time.Time) bool {
	for i := range m.set {
		if m.set[i].Type == t && now.Sub(m.set[i].CreatedAt) < m.cfg.InsightDedupWindow {
			return true
		}
	}
	return false
}

// applyCaps trims the active set to the most recently created and the
// dismissed set to the most recently dismissed.
func (m *Manager) applyCaps() {
	var active, dismissed []models.CoachInsight
	for _, i := range m.set {
		if i.Active() {
			active = append(active, i)
		} else {
			dismissed = append(dismissed, i)
		}
	}

	sort.SliceStable(active, func(a, b int) bool {
		return active[a].CreatedAt.After(active[b].CreatedAt)
	})
	if len(active) > m.cfg.MaxActiveInsights {
		active = active[:m.cfg.MaxActiveInsights]
	}

	sort.SliceStable(dismissed, func(a, b int) bool {
		return dismissed[a].DismissedAt.After(*dismissed[b].DismissedAt)
	})
	if len(dismissed) > m.cfg.DismissedCap {
		dismissed = dismissed[:m.cfg.DismissedCap]
	}

	m.set = append(active, dismissed...)
}

// Active returns owner's non-dismissed insights, most recent first.
func (m *Manager) Active(owner string) []models.CoachInsight {
	m.ensure(owner)

	var active []models.CoachInsight
	for _, i := range m.set {
		if i.Active() {
			active = append(active, i)
		}
	}
	sort.SliceStable(active, func(a, b int) bool {
		return active[a].CreatedAt.After(active[b].CreatedAt)
	})
	return active
}

// Dismiss marks the insight with id dismissed. The insight stays in storage
// for dedup until it ages out or the dismissed cap evicts it. Returns
// whether an insight was dismissed.
func (m *Manager) Dismiss(id string, owner string) bool {
	m.ensure(owner)

	for i := range m.set {
		if m.set[i].ID.String() == id && m.set[i].Active() {
			ts := m.now()
			m.set[i].DismissedAt = &ts
			m.applyCaps()
			m.persist()
			return true
		}
	}
	return false
}

// load reads owner's persisted insight set; corrupt state yields empty.
func (m *Manager) load(owner string) []models.CoachInsight {
	raw, ok := m.store.Get(storage.InsightsKey(owner))
	if !ok {
		return nil
	}

	var set []models.CoachInsight
	if err := json.Unmarshal([]byte(raw), &set); err != nil {
		log.Printf("insights: discarding corrupt state for owner %s: %v", storage.OwnerSegment(owner), err)
		return nil
	}
	return set
}

// persist writes the set back, best-effort.
func (m *Manager) persist() {
	data, err := json.Marshal(m.set)
	if err != nil {
		return
	}
	if !m.store.Set(storage.InsightsKey(m.owner), string(data)) {
		log.Printf("insights: failed to persist set for owner %s", storage.OwnerSegment(m.owner))
	}
}
