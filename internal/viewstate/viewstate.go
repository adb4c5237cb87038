// Package viewstate mirrors the browser-side state of the document
// library: one snapshot of the listing, a single selection with its active
// tab, and per-card activity flags. Network calls always run outside the
// state lock; the lock only guards reads and writes of the mirror itself.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"docshelf/internal/models"
)

// ClientPreviewTTL is how long a fetched preview link is kept before the
// view treats it as stale. The server grants the underlying signed link
// for roughly a minute, so the link usually stops working long before
// this countdown ends; a dead link simply fails in the viewer and the
// next request fetches a fresh one.
const ClientPreviewTTL = 15 * time.Minute

// CardState is the activity flag of one document card.
type CardState string

const (
	CardIdle        CardState = "idle"
	CardEditing     CardState = "editing"
	CardSummarizing CardState = "summarizing"
	CardPreviewing  CardState = "previewing"
)

// Tab is the detail pane shown for the selected document.
type Tab string

const (
	TabPreview Tab = "preview"
	TabSummary Tab = "summary"
	TabNote    Tab = "note"
)

// API is the server surface the controller drives. *client.Client
// satisfies it.
type API interface {
	List(ctx context.Context) ([]models.Document, error)
	DownloadURL(ctx context.Context, path string) (string, error)
	Summarize(ctx context.Context, path string) (string, error)
	Rename(ctx context.Context, path, name string) error
	Retag(ctx context.Context, path, name string, tags []string) error
	SetNote(ctx context.Context, path, note string) error
	ClearNote(ctx context.Context, path string) error
	Delete(ctx context.Context, path string) error
}

// PreviewLink is a fetched signed URL plus the time it was fetched.
type PreviewLink struct {
	URL       string
	FetchedAt time.Time
}

// StaleAt is when the view stops trusting the link.
func (p PreviewLink) StaleAt() time.Time {
	return p.FetchedAt.Add(ClientPreviewTTL)
}

type card struct {
	state   CardState
	preview *PreviewLink
	lastErr string
}

// Card is a read-only copy of one card's transient state.
type Card struct {
	State   CardState
	Preview *PreviewLink
	LastErr string
}

// Controller is the client-side state machine. All exported methods are
// safe for concurrent use.
type Controller struct {
	api API
	now func() time.Time

	mu       sync.RWMutex
	docs     []models.Document
	selected string
	tab      Tab
	cards    map[string]*card
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used for preview staleness.
func WithClock(fn func() time.Time) Option {
	return func(c *Controller) {
		c.now = fn
	}
}

// NewController creates an empty controller; call Refresh to load the
// first snapshot.
func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:   api,
		now:   time.Now,
		tab:   TabPreview,
		cards: make(map[string]*card),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh replaces the full snapshot with the server's listing and prunes
// card state and the selection for documents that no longer exist.
func (c *Controller) Refresh(ctx context.Context) error {
	docs, err := c.api.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh listing: %w", err)
	}

	c.mu.Lock()
	c.docs = docs
	live := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		live[d.Path] = struct{}{}
	}
	for path := range c.cards {
		if _, ok := live[path]; !ok {
			delete(c.cards, path)
		}
	}
	if c.selected != "" {
		if _, ok := live[c.selected]; !ok {
			c.selected = ""
			c.tab = TabPreview
		}
	}
	c.mu.Unlock()
	return nil
}

// Documents returns the current snapshot, newest first.
func (c *Controller) Documents() []models.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Document, len(c.docs))
	copy(out, c.docs)
	return out
}

// Selected returns the selected document's path, if any.
func (c *Controller) Selected() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected, c.selected != ""
}

// ActiveTab returns the detail tab for the current selection.
func (c *Controller) ActiveTab() Tab {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tab
}

// Card returns a copy of the transient state for path. Unknown paths read
// as idle.
func (c *Controller) Card(path string) Card {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.cards[path]
	if !ok {
		return Card{State: CardIdle}
	}
	view := Card{State: st.state, LastErr: st.lastErr}
	if st.preview != nil {
		link := *st.preview
		view.Preview = &link
	}
	return view
}

// Select makes path the single selection and opens its preview tab. The
// prior selection's preview link and error are dropped; an in-flight
// summarize keeps its flag so the de-duplication survives the switch.
func (c *Controller) Select(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasDocLocked(path) {
		return fmt.Errorf("unknown document %s", path)
	}
	if c.selected == path {
		return nil
	}
	c.resetTransientLocked(c.selected)
	c.selected = path
	c.tab = TabPreview
	return nil
}

// Deselect clears the selection and the outgoing card's transient state.
func (c *Controller) Deselect() {
	c.mu.Lock()
	c.resetTransientLocked(c.selected)
	c.selected = ""
	c.tab = TabPreview
	c.mu.Unlock()
}

// SetTab switches the detail pane for the current selection.
func (c *Controller) SetTab(tab Tab) error {
	switch tab {
	case TabPreview, TabSummary, TabNote:
	default:
		return fmt.Errorf("unknown tab %q", tab)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == "" {
		return errors.New("no document selected")
	}
	c.tab = tab
	return nil
}

// PreviewURL returns a signed link for path, reusing a cached one until
// its advisory countdown runs out.
func (c *Controller) PreviewURL(ctx context.Context, path string) (string, error) {
	c.mu.Lock()
	if !c.hasDocLocked(path) {
		c.mu.Unlock()
		return "", fmt.Errorf("unknown document %s", path)
	}
	st := c.cardLocked(path)
	if st.preview != nil && c.now().Before(st.preview.StaleAt()) {
		url := st.preview.URL
		c.mu.Unlock()
		return url, nil
	}
	st.state = CardPreviewing
	c.mu.Unlock()

	url, err := c.api.DownloadURL(ctx, path)

	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.cards[path]
	if !ok {
		// pruned by a concurrent refresh
		return url, err
	}
	if err != nil {
		st.state = CardIdle
		st.lastErr = err.Error()
		return "", err
	}
	st.state = CardIdle
	st.lastErr = ""
	st.preview = &PreviewLink{URL: url, FetchedAt: c.now()}
	return url, nil
}

// Summarize triggers the server-side summary for path and refreshes the
// snapshot with the result. A trigger on a path that is already
// summarizing is ignored and reports started=false.
func (c *Controller) Summarize(ctx context.Context, path string) (bool, error) {
	c.mu.Lock()
	if !c.hasDocLocked(path) {
		c.mu.Unlock()
		return false, fmt.Errorf("unknown document %s", path)
	}
	st := c.cardLocked(path)
	if st.state == CardSummarizing {
		c.mu.Unlock()
		return false, nil
	}
	st.state = CardSummarizing
	c.mu.Unlock()

	_, err := c.api.Summarize(ctx, path)

	c.mu.Lock()
	if st, ok := c.cards[path]; ok {
		st.state = CardIdle
		if err != nil {
			st.lastErr = err.Error()
		} else {
			st.lastErr = ""
		}
	}
	c.mu.Unlock()

	if err != nil {
		return true, err
	}
	return true, c.Refresh(ctx)
}

// BeginEdit puts the card into the editing state.
func (c *Controller) BeginEdit(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasDocLocked(path) {
		return fmt.Errorf("unknown document %s", path)
	}
	st := c.cardLocked(path)
	if st.state == CardSummarizing {
		return fmt.Errorf("document %s is busy", path)
	}
	st.state = CardEditing
	return nil
}

// CancelEdit drops an in-progress edit without saving.
func (c *Controller) CancelEdit(path string) {
	c.mu.Lock()
	if st, ok := c.cards[path]; ok && st.state == CardEditing {
		st.state = CardIdle
		st.lastErr = ""
	}
	c.mu.Unlock()
}

// CommitEdit saves the edited name, and the tag set when tags is non-nil.
// A failed save leaves the card in editing so the form survives.
func (c *Controller) CommitEdit(ctx context.Context, path, name string, tags []string) error {
	c.mu.Lock()
	st, ok := c.cards[path]
	if !ok || st.state != CardEditing {
		c.mu.Unlock()
		return fmt.Errorf("document %s is not being edited", path)
	}
	c.mu.Unlock()

	var err error
	if tags == nil {
		err = c.api.Rename(ctx, path, name)
	} else {
		err = c.api.Retag(ctx, path, name, tags)
	}

	c.mu.Lock()
	if st, ok := c.cards[path]; ok {
		if err != nil {
			st.lastErr = err.Error()
		} else {
			st.state = CardIdle
			st.lastErr = ""
		}
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	return c.Refresh(ctx)
}

// SaveNote stores note text for path and refreshes the snapshot.
func (c *Controller) SaveNote(ctx context.Context, path, note string) error {
	if err := c.api.SetNote(ctx, path, note); err != nil {
		c.recordErr(path, err)
		return err
	}
	return c.Refresh(ctx)
}

// RemoveNote clears the note for path and refreshes the snapshot.
func (c *Controller) RemoveNote(ctx context.Context, path string) error {
	if err := c.api.ClearNote(ctx, path); err != nil {
		c.recordErr(path, err)
		return err
	}
	return c.Refresh(ctx)
}

// Delete removes the document server-side and refreshes, which prunes the
// card and the selection if it pointed here.
func (c *Controller) Delete(ctx context.Context, path string) error {
	if err := c.api.Delete(ctx, path); err != nil {
		c.recordErr(path, err)
		return err
	}
	return c.Refresh(ctx)
}

func (c *Controller) hasDocLocked(path string) bool {
	for _, d := range c.docs {
		if d.Path == path {
			return true
		}
	}
	return false
}

func (c *Controller) cardLocked(path string) *card {
	st, ok := c.cards[path]
	if !ok {
		st = &card{state: CardIdle}
		c.cards[path] = st
	}
	return st
}

func (c *Controller) resetTransientLocked(path string) {
	st, ok := c.cards[path]
	if !ok {
		return
	}
	st.preview = nil
	st.lastErr = ""
	if st.state != CardSummarizing {
		st.state = CardIdle
	}
}

func (c *Controller) recordErr(path string, err error) {
	c.mu.Lock()
	if st, ok := c.cards[path]; ok {
		st.lastErr = err.Error()
	}
	c.mu.Unlock()
}
