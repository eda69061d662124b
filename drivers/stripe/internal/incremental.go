package driver

import (
	"fmt"
	"strconv"
	"time"

	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/types"
	"github.com/singer-io/tap-stripe/utils"
)

const (
	lineItemRetries    = 3
	lineItemRetryDelay = 500 * time.Millisecond
)

// SyncContext carries everything one run needs; constructed once per sync and
// passed explicitly, never ambient.
type SyncContext struct {
	Config       *Config
	State        *types.State
	Client       *Client
	Selected     map[string]bool
	Transformers map[string]*Transformer
	Counters     *Counters
	Now          int64
}

// emitter seams; swapped out in tests
var (
	emitRecord = logger.LogRecord
	emitState  = logger.LogState
)

func (ctx *SyncContext) emit(stream string, record types.Record, kind string) {
	if transformer := ctx.Transformers[stream]; transformer != nil {
		record = transformer.Transform(record)
	}
	emitRecord(stream, record, time.Now())
	ctx.Counters.RecordEmitted(stream, kind)
}

// flushState hands the full state to the emitter so partial progress survives
// a crash mid-stream.
func (ctx *SyncContext) flushState() {
	emitState(ctx.State)
}

// streamSyncer is the creation-pass behavior of one top-level stream.
type streamSyncer interface {
	Sync(ctx *SyncContext) error
}

type incrementalSyncer struct {
	def StreamDef
}

func (s *incrementalSyncer) Sync(ctx *SyncContext) error {
	return ctx.syncCreationPass(s.def, nil)
}

type parentChildSyncer struct {
	def   StreamDef
	child ChildDef
}

func (s *parentChildSyncer) Sync(ctx *SyncContext) error {
	return ctx.syncCreationPass(s.def, &s.child)
}

func syncerFor(def StreamDef, selected map[string]bool) streamSyncer {
	if def.Child != "" && selected[def.Child] {
		return &parentChildSyncer{def: def, child: childDefs[def.Child]}
	}
	return &incrementalSyncer{def: def}
}

// syncCreationPass walks [effective_start, now) in fixed windows. Window
// boundaries cap upstream result-set size; reverse-chronological pagination
// over unbounded ranges risks missed rows near boundary timestamps.
func (ctx *SyncContext) syncCreationPass(def StreamDef, child *ChildDef) error {
	repKey := def.ReplicationKey
	bookmark, found := ctx.State.Get(def.Name, repKey)
	if !found {
		bookmark = ctx.Config.StartEpoch()
	}

	effectiveStart := bookmark
	var childThreshold int64
	if child != nil {
		childBookmark, found := ctx.State.Get(child.Name, repKey)
		if !found {
			childBookmark = ctx.Config.StartEpoch()
		}
		childThreshold = childBookmark
		// children are only discoverable by re-walking parents, so the walk
		// restarts from wherever the child left off; parents in the replayed
		// range are re-delivered
		if childBookmark < effectiveStart {
			logger.Infof("Stream %s: rewinding to %s bookmark %d", def.Name, child.Name, childBookmark)
			effectiveStart = childBookmark
		}
	}

	if def.Lookback {
		// compensates upstream write-then-index lag near the previous cutoff
		effectiveStart = utils.MaxInt64(ctx.Config.StartEpoch(), effectiveStart-ctx.Config.LookbackWindow)
	}

	emitThreshold := effectiveStart
	windowSize := ctx.Config.WindowSeconds()
	filterKey := def.QueryFilterKey()

	for windowStart := effectiveStart; windowStart < ctx.Now; windowStart += windowSize {
		windowEnd := utils.MinInt64(windowStart+windowSize, ctx.Now)
		filters := map[string]string{
			filterKey + "[gte]": strconv.FormatInt(windowStart, 10),
			filterKey + "[lt]":  strconv.FormatInt(windowEnd, 10),
		}

		windowStartTime := time.Now()
		windowRecords := 0
		err := ctx.Client.List(def.Path, filters, func(raw types.Record) error {
			windowRecords++
			objectEpoch, ok := epochValue(raw, repKey)
			if !ok {
				logger.Warnf("Stream %s: skipping object without %s field", def.Name, repKey)
				return nil
			}

			// child records derive from the in-hand parent; no separate fetch
			if child != nil && objectEpoch > childThreshold {
				if err := ctx.syncChild(*child, raw, objectEpoch, emitCreated); err != nil {
					return err
				}
				// only after the child's records are fully emitted
				ctx.State.Set(child.Name, repKey, objectEpoch)
			}

			// strictly newer than the bookmark this walk started from; the
			// window may re-scan records after a rewind
			if objectEpoch > emitThreshold {
				record, _ := unwrapListContainers(raw).(map[string]any)
				record = reduceForeignKeys(record, def.Name)
				record = stampUpdated(record, objectEpoch)
				ctx.emit(def.Name, record, emitCreated)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("window [%d, %d): %w", windowStart, windowEnd, err)
		}
		logger.Debugf("Stream %s: window [%d, %d) returned %d objects in %s",
			def.Name, windowStart, windowEnd, windowRecords, time.Since(windowStartTime).String())

		// boundary advance guarantees forward progress through empty windows
		ctx.State.Set(def.Name, repKey, windowEnd)
		ctx.flushState()
	}

	return nil
}

// syncChild emits every child record belonging to one parent object, starting
// from the sub-list embedded on the parent and paginating the remainder
// upstream only when the embedded page overflowed. Bookmark ownership stays
// with the caller: the creation-path walk advances the child bookmark, the
// event path never does.
func (ctx *SyncContext) syncChild(child ChildDef, parent types.Record, parentEpoch int64, kind string) error {
	parentID, _ := parent["id"].(string)
	if parentID == "" {
		return fmt.Errorf("cannot sync %s: parent object has no id", child.Name)
	}

	emitOne := func(raw types.Record) error {
		record, _ := unwrapListContainers(raw).(map[string]any)
		record = synthesizeChildID(record, child, parentID)
		record = stampUpdated(record, parentEpoch)
		ctx.emit(child.Name, record, kind)
		return nil
	}

	startingAfter := ""
	if child.EmbedKey != "" {
		container, _ := parent[child.EmbedKey].(map[string]any)
		if container != nil && isListContainer(container) {
			data, _ := container["data"].([]any)
			for _, elem := range data {
				record, ok := elem.(map[string]any)
				if !ok {
					continue
				}
				if id, ok := record["id"].(string); ok {
					startingAfter = id
				}
				if err := emitOne(record); err != nil {
					return err
				}
			}
			if hasMore, _ := container["has_more"].(bool); !hasMore {
				return nil
			}
		}
	}

	filters := map[string]string{}
	if child.FilterParam != "" {
		filters[child.FilterParam] = parentID
	}
	if startingAfter != "" {
		filters["starting_after"] = startingAfter
	}

	// the known line-item deletion race is retried before propagating
	err := utils.RetryExecIf(func() error {
		return ctx.Client.List(child.ListPath(parentID), filters, emitOne)
	}, IsDeletedLineItem, lineItemRetries, lineItemRetryDelay)
	if err != nil {
		if IsNotFound(err) && !IsDeletedLineItem(err) {
			// parent deleted underneath us; expected and recoverable
			logger.Warnf("Stream %s: parent %s no longer exists, treating as empty: %s", child.Name, parentID, err)
			return nil
		}
		return err
	}

	return nil
}
