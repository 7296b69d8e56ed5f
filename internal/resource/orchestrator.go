// Package resource orchestrates generic CRUD against a single resource:
// paginated listing with search, create/update/delete with cache
// invalidation, and draft handling for abandoned create dialogs.
package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/adminforge/adminforge/internal/event"
	"github.com/adminforge/adminforge/internal/surface"
	"github.com/adminforge/adminforge/internal/transport"
)

// ErrRequestInFlight is returned when a mutating operation is submitted
// while another is still pending for the same orchestrator — the guard
// against rapid double-submit.
var ErrRequestInFlight = errors.New("a request is already in flight for this resource")

// ErrOperationUnavailable is returned when the resource exposes no
// operation in the requested slot.
var ErrOperationUnavailable = errors.New("resource does not expose this operation")

// DefaultPageSize and DefaultSearchDelay apply when Config leaves the
// field zero. Set once at startup from configuration.
var (
	DefaultPageSize    = 20
	DefaultSearchDelay = 500 * time.Millisecond
)

// Config tunes one orchestrator instance.
type Config struct {
	PageSize      int            // list page size; zero means DefaultPageSize
	SearchDelay   time.Duration  // debounce before a search re-fetch; zero means DefaultSearchDelay
	Drafts        DraftStore     // optional; nil disables drafts
	OnSearchReady func()         // invoked after the debounce window elapses
	Recorder      event.Recorder // optional; audits successful mutations
	Actor         string         // acting user recorded with mutations; default "system"
}

// pageKey identifies one cached page. Superseded in-flight responses are
// never cancelled: the active key decides what is displayed, stale keys
// simply go unread.
type pageKey struct {
	Endpoint string
	Offset   int
	Count    int
	Search   string
}

// Orchestrator drives CRUD for one resource view. State (offset, search,
// cache) is local to the instance; nothing is shared across orchestrators.
type Orchestrator struct {
	client   transport.Requester
	resource string
	ops      surface.ResourceOperations

	mu       sync.Mutex
	offset   int
	search   string
	cache    map[pageKey]transport.Page
	inflight bool

	pageSize    int
	searchDelay time.Duration
	drafts      DraftStore
	onSearch    func()
	searchTimer *time.Timer
	recorder    event.Recorder
	actor       string
}

// New creates an orchestrator for the operations catalogued for a
// resource.
func New(client transport.Requester, ops surface.ResourceOperations, cfg Config) *Orchestrator {
	o := &Orchestrator{
		client:      client,
		resource:    ops.ResourceName,
		ops:         ops,
		cache:       make(map[pageKey]transport.Page),
		pageSize:    cfg.PageSize,
		searchDelay: cfg.SearchDelay,
		drafts:      cfg.Drafts,
		onSearch:    cfg.OnSearchReady,
		recorder:    cfg.Recorder,
		actor:       cfg.Actor,
	}
	if o.pageSize <= 0 {
		o.pageSize = DefaultPageSize
	}
	if o.searchDelay <= 0 {
		o.searchDelay = DefaultSearchDelay
	}
	if o.actor == "" {
		o.actor = "system"
	}
	return o
}

// NewForEndpoint creates an orchestrator for a plain REST endpoint with
// conventional list/create at the endpoint and get/update/delete at
// endpoint/{id}.
func NewForEndpoint(client transport.Requester, resourceName, endpoint string, cfg Config) *Orchestrator {
	idPath := endpoint + "/{id}"
	ops := surface.ResourceOperations{
		ResourceName: resourceName,
		List: &surface.Operation{Method: "GET", Path: endpoint,
			QueryParams: []string{"offset", "count", "search"}},
		Get:    &surface.Operation{Method: "GET", Path: idPath, PathParams: []string{"id"}},
		Create: []surface.Operation{{Method: "POST", Path: endpoint}},
		Update: []surface.Operation{{Method: "PUT", Path: idPath, PathParams: []string{"id"}}},
		Delete: []surface.Operation{{Method: "DELETE", Path: idPath, PathParams: []string{"id"}}},
	}
	return New(client, ops, cfg)
}

// Offset returns the current page offset.
func (o *Orchestrator) Offset() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.offset
}

// SetOffset moves to an absolute page offset.
func (o *Orchestrator) SetOffset(offset int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if offset < 0 {
		offset = 0
	}
	o.offset = offset
}

// Search returns the current search term.
func (o *Orchestrator) Search() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.search
}

// SetSearch updates the search term, resets pagination to the first page,
// and (re)starts the debounce window. OnSearchReady fires once the term
// has been stable for the configured delay.
func (o *Orchestrator) SetSearch(term string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.search = term
	o.offset = 0
	if o.onSearch == nil {
		return
	}
	if o.searchTimer != nil {
		o.searchTimer.Stop()
	}
	o.searchTimer = time.AfterFunc(o.searchDelay, o.onSearch)
}

// List fetches the current page. Results are cached by
// (endpoint, offset, count, search); a fetch failure degrades to an empty
// non-paginated page with zero total so the caller stays interactive.
func (o *Orchestrator) List(ctx context.Context) transport.Page {
	if o.ops.List == nil {
		return transport.Page{}
	}

	o.mu.Lock()
	key := pageKey{Endpoint: o.ops.List.Path, Offset: o.offset, Count: o.pageSize, Search: o.search}
	if page, ok := o.cache[key]; ok {
		o.mu.Unlock()
		return page
	}
	o.mu.Unlock()

	query := transport.EncodeQuery(
		[]string{"offset", "count", "search"},
		map[string]string{
			"offset": strconv.Itoa(key.Offset),
			"count":  strconv.Itoa(key.Count),
			"search": key.Search,
		},
	)
	path := key.Endpoint
	if query != "" {
		path += "?" + query
	}

	raw, err := o.client.Request(ctx, "GET", path, nil)
	if err != nil {
		log.Error().Err(err).Str("resource", o.resource).Msg("resource: list fetch failed")
		return transport.Page{}
	}
	page, err := transport.NormalizePage(raw)
	if err != nil {
		log.Error().Err(err).Str("resource", o.resource).Msg("resource: list body malformed")
		return transport.Page{}
	}

	o.mu.Lock()
	o.cache[key] = page
	o.mu.Unlock()
	return page
}

// Get fetches a single entity by path parameters.
func (o *Orchestrator) Get(ctx context.Context, params map[string]string) (json.RawMessage, error) {
	if o.ops.Get == nil {
		return nil, ErrOperationUnavailable
	}
	return o.client.Request(ctx, "GET", transport.ExpandPath(o.ops.Get.Path, params), nil)
}

// Create submits the canonical create operation (index 0).
func (o *Orchestrator) Create(ctx context.Context, body any) (json.RawMessage, error) {
	return o.CreateAt(ctx, 0, nil, body)
}

// CreateAt submits the create operation at index i. On success the list
// cache is invalidated and the resource's draft is discarded.
func (o *Orchestrator) CreateAt(ctx context.Context, i int, params map[string]string, body any) (json.RawMessage, error) {
	if i < 0 || i >= len(o.ops.Create) {
		return nil, ErrOperationUnavailable
	}
	op := o.ops.Create[i]

	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	raw, err := o.client.Request(ctx, op.Method, transport.ExpandPath(op.Path, params), body)
	if err != nil {
		return nil, err
	}
	o.invalidate()
	o.record(ctx, "create", idFromBody(raw))
	if o.drafts != nil {
		if err := o.drafts.Discard(ctx, o.resource); err != nil {
			log.Warn().Err(err).Str("resource", o.resource).Msg("resource: draft discard failed")
		}
	}
	return raw, nil
}

// Update submits the canonical update operation (index 0).
func (o *Orchestrator) Update(ctx context.Context, params map[string]string, body any) (json.RawMessage, error) {
	return o.UpdateAt(ctx, 0, params, body)
}

// UpdateAt submits the update operation at index i, invalidating the list
// cache on success.
func (o *Orchestrator) UpdateAt(ctx context.Context, i int, params map[string]string, body any) (json.RawMessage, error) {
	if i < 0 || i >= len(o.ops.Update) {
		return nil, ErrOperationUnavailable
	}
	op := o.ops.Update[i]

	if err := o.acquire(); err != nil {
		return nil, err
	}
	defer o.release()

	raw, err := o.client.Request(ctx, op.Method, transport.ExpandPath(op.Path, params), body)
	if err != nil {
		return nil, err
	}
	o.invalidate()
	o.record(ctx, "update", params["id"])
	return raw, nil
}

// Delete submits the canonical delete operation (index 0).
func (o *Orchestrator) Delete(ctx context.Context, params map[string]string) error {
	return o.DeleteAt(ctx, 0, params)
}

// DeleteAt submits the delete operation at index i, invalidating the list
// cache on success.
func (o *Orchestrator) DeleteAt(ctx context.Context, i int, params map[string]string) error {
	if i < 0 || i >= len(o.ops.Delete) {
		return ErrOperationUnavailable
	}
	op := o.ops.Delete[i]

	if err := o.acquire(); err != nil {
		return err
	}
	defer o.release()

	if _, err := o.client.Request(ctx, op.Method, transport.ExpandPath(op.Path, params), nil); err != nil {
		return err
	}
	o.invalidate()
	o.record(ctx, "delete", params["id"])
	return nil
}

// CloseCreateDialog records the outcome of an abandoned create dialog:
// non-empty in-progress data becomes (or supersedes) the draft; empty
// data leaves any existing draft alone.
func (o *Orchestrator) CloseCreateDialog(ctx context.Context, data map[string]any) error {
	if o.drafts == nil || !hasContent(data) {
		return nil
	}
	return o.drafts.Save(ctx, o.resource, data)
}

// OpenCreateDialog returns the data a fresh create form should open with:
// the live draft's data when one exists, nil for an empty form.
func (o *Orchestrator) OpenCreateDialog(ctx context.Context) (map[string]any, error) {
	if o.drafts == nil {
		return nil, nil
	}
	d, err := o.drafts.Load(ctx, o.resource)
	if err != nil || d == nil {
		return nil, err
	}
	return d.Data, nil
}

// DiscardDraft drops the resource's draft explicitly.
func (o *Orchestrator) DiscardDraft(ctx context.Context) error {
	if o.drafts == nil {
		return nil
	}
	return o.drafts.Discard(ctx, o.resource)
}

func (o *Orchestrator) acquire() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inflight {
		return ErrRequestInFlight
	}
	o.inflight = true
	return nil
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.inflight = false
	o.mu.Unlock()
}

// record audits a successful mutation. Best-effort: a failed write never
// fails the operation it describes.
func (o *Orchestrator) record(ctx context.Context, operation, entityID string) {
	if o.recorder == nil {
		return
	}
	evt := event.NewResourceMutated(o.resource, entityID, operation, o.actor)
	if err := o.recorder.Record(ctx, evt); err != nil {
		log.Warn().Err(err).Str("resource", o.resource).Msg("resource: audit record failed")
	}
}

// idFromBody pulls the id field out of a mutation response, if present.
func idFromBody(raw json.RawMessage) string {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.ID
}

// invalidate clears every cached page for the resource.
func (o *Orchestrator) invalidate() {
	o.mu.Lock()
	o.cache = make(map[pageKey]transport.Page)
	o.mu.Unlock()
}

func hasContent(data map[string]any) bool {
	for _, v := range data {
		switch value := v.(type) {
		case nil:
			continue
		case string:
			if value != "" {
				return true
			}
		case map[string]any:
			if hasContent(value) {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// String describes the orchestrator for logs.
func (o *Orchestrator) String() string {
	return fmt.Sprintf("orchestrator(%s)", o.resource)
}
