package driver

import (
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/singer-io/tap-stripe/constants"
	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/types"
	"github.com/singer-io/tap-stripe/utils"
)

// syncEventUpdates scans the shared change-log feed for updates to a stream
// group's records. The feed only retains DefaultEventsRetentionSeconds of
// history; older starts are clamped, never treated as errors.
func (ctx *SyncContext) syncEventUpdates(def StreamDef) error {
	bookmarkStream := types.EventsStream(def.Name)
	bookmark, found := ctx.State.Get(bookmarkStream, types.UpdatesBookmarkKey)
	if !found {
		bookmark = ctx.Config.StartEpoch()
	}

	retentionFloor := ctx.Now - DefaultEventsRetentionSeconds
	if bookmark < retentionFloor {
		logger.Warnf("Stream %s: update bookmark %d predates the event feed retention window, clamping to %d",
			def.Name, bookmark, retentionFloor)
		bookmark = retentionFloor
	}

	// one latest-seen map across the whole scan: the feed returns newest-first
	// pages while windows are walked oldest-first, so per-page or per-window
	// maps would re-emit stale snapshots
	latestSeen := map[string]int64{}

	windowSize := ctx.Config.EventWindowSeconds()
	for windowStart := bookmark; windowStart < ctx.Now; windowStart += windowSize {
		windowEnd := utils.MinInt64(windowStart+windowSize, ctx.Now)
		filters := map[string]string{
			"created[gte]": strconv.FormatInt(windowStart, 10),
			"created[lt]":  strconv.FormatInt(windowEnd, 10),
			"type":         def.EventType,
		}

		windowStartTime := time.Now()
		windowEvents := 0
		err := ctx.Client.List("/events", filters, func(event types.Record) error {
			windowEvents++
			return ctx.applyEvent(def, event, latestSeen)
		})
		if err != nil {
			return fmt.Errorf("events window [%d, %d): %w", windowStart, windowEnd, err)
		}
		logger.Debugf("Stream %s: events window [%d, %d) returned %d events in %s",
			def.Name, windowStart, windowEnd, windowEvents, time.Since(windowStartTime).String())

		ctx.State.Set(bookmarkStream, types.UpdatesBookmarkKey, windowEnd)
		ctx.flushState()
	}

	return nil
}

func (ctx *SyncContext) applyEvent(def StreamDef, event types.Record, latestSeen map[string]int64) error {
	eventType, _ := event["type"].(string)
	if matched, _ := path.Match(def.EventType, eventType); !matched {
		return nil
	}
	eventCreated, ok := epochValue(event, "created")
	if !ok {
		return nil
	}

	data, _ := event["data"].(map[string]any)
	object, _ := data["object"].(map[string]any)
	if object == nil {
		return nil
	}
	objectType, _ := object["object"].(string)
	objectID, _ := object["id"].(string)

	target, found := streamForEvent(objectType, eventType)
	if !found || !ctx.Selected[target] || objectID == "" {
		return nil
	}

	// only the chronologically latest event per object is emitted
	if previous, seen := latestSeen[objectID]; seen && previous >= eventCreated {
		return nil
	}
	latestSeen[objectID] = eventCreated

	record, _ := unwrapListContainers(object).(map[string]any)
	record = reduceForeignKeys(record, target)
	record[constants.UpdatedField] = eventCreated
	record[constants.UpdatedByEventTypeField] = eventType
	ctx.emit(target, record, emitUpdated)

	targetDef := streamDefsByName[target]
	if targetDef.Child == "" || !ctx.Selected[targetDef.Child] {
		return nil
	}

	// an event snapshot is not guaranteed complete for child derivation;
	// re-fetch the full parent by id
	parent, err := ctx.Client.Retrieve(targetDef.Path, objectID)
	if err != nil {
		if IsNotFound(err) {
			logger.Warnf("Stream %s: updated parent %s no longer exists, skipping child refresh", target, objectID)
			return nil
		}
		return err
	}

	parentEpoch, ok := epochValue(parent, targetDef.ReplicationKey)
	if !ok {
		parentEpoch = eventCreated
	}
	return ctx.syncChild(childDefs[targetDef.Child], parent, parentEpoch, emitUpdated)
}
