/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package registry reconciles adb's transport-level view of attached devices
// with the persisted device records, keyed by hardware serial.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/carverauto/adbmosaic/pkg/adb"
	"github.com/carverauto/adbmosaic/pkg/devicestore"
	"github.com/carverauto/adbmosaic/pkg/identitymap"
	"github.com/carverauto/adbmosaic/pkg/logger"
	"github.com/carverauto/adbmosaic/pkg/models"
)

const defaultProbeConcurrency = 4

// Config tunes a reconciliation engine.
type Config struct {
	// AutoPromote switches every USB-only device to TCP/IP after each pass.
	AutoPromote bool
	// ProbeConcurrency bounds the number of devices probed at once.
	ProbeConcurrency int
}

// Engine owns the reconciled device view. Reconcile, Promote and the record
// mutations are serialized; readers only take the cache lock.
type Engine struct {
	probe  adb.Probe
	store  devicestore.Store
	cfg    Config
	logger logger.Logger
	now    func() time.Time

	opMu sync.Mutex

	mu      sync.RWMutex
	devices map[string]*models.Device
	order   []string
}

var _ Manager = (*Engine)(nil)

// New creates an engine. Call Load to prime it from the store.
func New(probe adb.Probe, store devicestore.Store, cfg Config, log logger.Logger) *Engine {
	if cfg.ProbeConcurrency <= 0 {
		cfg.ProbeConcurrency = defaultProbeConcurrency
	}

	return &Engine{
		probe:   probe,
		store:   store,
		cfg:     cfg,
		logger:  log,
		now:     time.Now,
		devices: make(map[string]*models.Device),
	}
}

// Load replaces the in-memory view with the persisted records. A new engine
// owns no streams, so streaming flags left by an earlier process are cleared
// and written back.
func (e *Engine) Load(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	persisted, err := e.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load persisted devices: %w", err)
	}

	devices := make(map[string]*models.Device, len(persisted))
	order := make([]string, 0, len(persisted))

	var stale []*models.Device

	for _, d := range persisted {
		if d.IsStreaming {
			d.IsStreaming = false
			stale = append(stale, d)
		}

		devices[d.Identity] = d
		order = append(order, d.Identity)
	}

	for _, d := range stale {
		e.put(ctx, d)
	}

	sort.Strings(order)

	e.mu.Lock()
	e.devices = devices
	e.order = order
	e.mu.Unlock()

	e.logger.Debug().Int("devices", len(order)).Int("stale_streaming", len(stale)).Msg("Loaded persisted devices")

	return nil
}

// pass holds the working state of one reconciliation.
type pass struct {
	known   map[string]*models.Device
	touched map[string]*models.Device
	kinds   map[string]models.TransportKind
	aliases map[string][]string
	dirty   map[string]*models.Device
	purged  map[string]bool
	order   []string
}

// Reconcile scans the transport, merges what it finds into the persisted
// records and, when configured, promotes USB-only devices to TCP/IP.
func (e *Engine) Reconcile(ctx context.Context) (*Result, error) {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	started := e.now()

	raw, err := e.probe.ListDevices(ctx)
	if err != nil {
		recordReconcile(ctx, outcomeTransportUnavailable, e.now().Sub(started))

		return nil, fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}

	persisted, err := e.store.GetAll(ctx)
	if err != nil {
		recordReconcile(ctx, outcomeStoreError, e.now().Sub(started))

		return nil, fmt.Errorf("load persisted devices: %w", err)
	}

	if len(raw) == 0 && len(persisted) == 0 {
		recordReconcile(ctx, outcomeNotReady, e.now().Sub(started))

		return nil, ErrEnvironmentNotReady
	}

	result := &Result{}

	candidates := make([]models.RawDevice, 0, len(raw))

	for _, r := range raw {
		if !r.Status.Actionable() {
			result.Skipped = append(result.Skipped, Skipped{
				ID:     r.ID,
				Status: r.Status,
				Reason: "status " + string(r.Status),
			})

			continue
		}

		candidates = append(candidates, r)
	}

	observations, unreachable := e.probeAll(ctx, candidates)
	result.Skipped = append(result.Skipped, unreachable...)
	recordSkipped(ctx, len(result.Skipped))

	p := &pass{
		known:   make(map[string]*models.Device, len(persisted)),
		touched: make(map[string]*models.Device),
		kinds:   make(map[string]models.TransportKind),
		aliases: make(map[string][]string),
		dirty:   make(map[string]*models.Device),
		purged:  make(map[string]bool),
	}

	for _, d := range persisted {
		p.known[d.Identity] = d
	}

	e.merge(p, observations)
	e.foldLegacy(ctx, p, identitymap.NewIndex(persisted), result)

	absent := e.retainAbsent(p, persisted)

	e.writeBack(ctx, p)
	e.replaceCache(p, absent)

	if e.cfg.AutoPromote {
		for _, identity := range p.order {
			d := p.touched[identity]
			if !d.USBConnected || d.TCPConnected {
				continue
			}

			res, purged, perr := e.promoteLocked(ctx, identity)
			result.Purged = append(result.Purged, purged...)
			result.Promotions = append(result.Promotions, PromotionOutcome{
				Identity: identity,
				Result:   res,
				Err:      perr,
			})
		}
	}

	e.checkTransportOwnership(ctx)

	result.Devices = e.Devices()

	for _, d := range result.Devices {
		if d.TCPConnected {
			result.TCPConnected = append(result.TCPConnected, d.Identity)
		}
	}

	recordReconcile(ctx, outcomeOK, e.now().Sub(started))

	e.logger.Info().
		Int("scanned", len(raw)).
		Int("connected", len(p.order)).
		Int("skipped", len(result.Skipped)).
		Int("purged", len(result.Purged)).
		Int("tcp_connected", len(result.TCPConnected)).
		Msg("Reconciled devices")

	return result, nil
}

// checkTransportOwnership logs and counts every live transport id claimed by
// more than one record. It returns the number of such ids.
func (e *Engine) checkTransportOwnership(ctx context.Context) int {
	e.mu.RLock()

	live := make([]*models.Device, 0, len(e.devices))

	for _, d := range e.devices {
		view := &models.Device{Identity: d.Identity}

		if d.USBConnected {
			view.Transport.USB = d.Transport.USB
		}

		if d.TCPConnected {
			view.Transport.TCP = d.Transport.TCP
		}

		live = append(live, view)
	}
	e.mu.RUnlock()

	conflicts := identitymap.NewIndex(live).Conflicts()

	for key, owners := range conflicts {
		identitymap.RecordConflict(ctx, key.Kind, len(owners))

		e.logger.Warn().
			Str("kind", key.Kind.String()).
			Str("id", key.Value).
			Strs("owners", owners).
			Msg("Live transport id claimed by more than one device")
	}

	return len(conflicts)
}

// probeAll queries every candidate concurrently. Results keep scan order and a
// failing device never affects the others.
func (e *Engine) probeAll(ctx context.Context, entries []models.RawDevice) ([]*observation, []Skipped) {
	observed := make([]*observation, len(entries))
	skipped := make([]*Skipped, len(entries))

	var g errgroup.Group

	g.SetLimit(e.cfg.ProbeConcurrency)

	for i, raw := range entries {
		g.Go(func() error {
			obs, err := e.probeOne(ctx, raw)
			if err != nil {
				e.logger.Warn().Err(err).Str("id", raw.ID).Msg("Device unreachable, skipping for this pass")

				skipped[i] = &Skipped{ID: raw.ID, Status: raw.Status, Reason: err.Error()}

				return nil
			}

			observed[i] = obs

			return nil
		})
	}

	_ = g.Wait()

	outObs := make([]*observation, 0, len(entries))
	outSkipped := make([]Skipped, 0)

	for i := range entries {
		if observed[i] != nil {
			outObs = append(outObs, observed[i])
		}

		if skipped[i] != nil {
			outSkipped = append(outSkipped, *skipped[i])
		}
	}

	return outObs, outSkipped
}

func (e *Engine) probeOne(ctx context.Context, raw models.RawDevice) (*observation, error) {
	serial, err := e.probe.GetSerialNumber(ctx, raw.ID)
	if err != nil {
		return nil, fmt.Errorf("read serial: %w", err)
	}

	if serial == "" {
		serial = raw.ID
	}

	battery, err := e.probe.GetBatteryLevel(ctx, raw.ID)
	if err != nil {
		return nil, fmt.Errorf("read battery: %w", err)
	}

	if battery < 0 {
		return nil, fmt.Errorf("%w: level %d", adb.ErrBatteryUnavailable, battery)
	}

	screen, err := e.probe.GetScreenDimensions(ctx, raw.ID)
	if err != nil {
		return nil, fmt.Errorf("read screen: %w", err)
	}

	if !screen.Valid() {
		return nil, adb.ErrScreenUnavailable
	}

	return &observation{
		raw:      raw,
		kind:     models.ClassifyTransport(raw.ID),
		identity: serial,
		battery:  battery,
		screen:   screen,
	}, nil
}

// merge overlays observations on persisted records in scan order. A later
// entry for an identity already merged this pass replaces the earlier row but
// keeps the liveness of the earlier row's transport.
func (e *Engine) merge(p *pass, observations []*observation) {
	now := e.now()

	for _, obs := range observations {
		earlier, dup := p.touched[obs.identity]

		base := p.known[obs.identity]
		if dup {
			base = earlier
		}

		merged := mergeDevice(base, obs, now)

		if dup {
			carryEarlierTransport(merged, earlier, p.kinds[obs.identity], obs.kind)

			e.logger.Debug().
				Str("identity", obs.identity).
				Str("id", obs.raw.ID).
				Msg("Duplicate scan entry for identity, later entry wins")
		} else {
			p.order = append(p.order, obs.identity)
		}

		p.touched[obs.identity] = merged
		p.kinds[obs.identity] = obs.kind
		p.aliases[obs.identity] = append(p.aliases[obs.identity], obs.raw.ID)
	}
}

// foldLegacy finds persisted records that still claim a transport id seen this
// pass under another identity. Records keyed under the transport id itself are
// folded into the canonical record and deleted; other stale holders lose the
// transport id.
func (e *Engine) foldLegacy(ctx context.Context, p *pass, index *identitymap.Index, result *Result) {
	for _, identity := range p.order {
		canonical := p.touched[identity]

		for _, transportID := range p.aliases[identity] {
			conflicts := 0

			for _, owner := range index.Claimants(transportID) {
				if owner == identity || p.touched[owner] != nil || p.purged[owner] {
					continue
				}

				legacy := p.known[owner]
				if legacy == nil {
					continue
				}

				conflicts++

				if owner == transportID {
					foldLegacy(canonical, legacy)

					if err := e.store.Delete(ctx, owner); err != nil {
						e.logger.Warn().Err(err).Str("key", owner).Msg("Failed to purge legacy device record")

						continue
					}

					p.purged[owner] = true
					delete(p.dirty, owner)
					result.Purged = append(result.Purged, owner)

					e.logger.Info().
						Str("legacy", owner).
						Str("identity", identity).
						Msg("Folded legacy device record into canonical identity")

					continue
				}

				holder := p.dirty[owner]
				if holder == nil {
					holder = legacy.Clone()
				}

				clearTransportID(holder, transportID)
				p.dirty[owner] = holder
			}

			identitymap.RecordConflict(ctx, kindOf(transportID), conflicts)
		}
	}

	recordPurged(ctx, len(result.Purged))
}

// retainAbsent keeps persisted records the scan did not see, with connection
// state cleared.
func (e *Engine) retainAbsent(p *pass, persisted []*models.Device) []*models.Device {
	absent := make([]*models.Device, 0)

	for _, d := range persisted {
		if p.touched[d.Identity] != nil || p.purged[d.Identity] {
			continue
		}

		current := p.dirty[d.Identity]
		if current == nil {
			current = d.Clone()
		}

		if current.Connected() || current.BatteryLevel != nil {
			current.MarkDisconnected()
			p.dirty[d.Identity] = current
		}

		absent = append(absent, current)
	}

	sort.Slice(absent, func(i, j int) bool { return absent[i].Identity < absent[j].Identity })

	return absent
}

// writeBack persists every touched and changed record. A failed write is
// logged; the pass still completes with the in-memory view.
func (e *Engine) writeBack(ctx context.Context, p *pass) {
	for _, identity := range p.order {
		e.put(ctx, p.touched[identity])
	}

	dirty := make([]string, 0, len(p.dirty))
	for identity := range p.dirty {
		dirty = append(dirty, identity)
	}

	sort.Strings(dirty)

	for _, identity := range dirty {
		e.put(ctx, p.dirty[identity])
	}
}

func (e *Engine) put(ctx context.Context, d *models.Device) {
	if err := e.store.Put(ctx, d); err != nil {
		recordWriteFailure(ctx)

		e.logger.Error().Err(err).Str("identity", d.Identity).Msg("Failed to persist device record")
	}
}

func (e *Engine) replaceCache(p *pass, absent []*models.Device) {
	devices := make(map[string]*models.Device, len(p.order)+len(absent))
	order := make([]string, 0, len(p.order)+len(absent))

	for _, identity := range p.order {
		devices[identity] = p.touched[identity]
		order = append(order, identity)
	}

	for _, d := range absent {
		devices[d.Identity] = d
		order = append(order, d.Identity)
	}

	e.mu.Lock()
	e.devices = devices
	e.order = order
	e.mu.Unlock()
}

func clearTransportID(d *models.Device, transportID string) {
	if d.Transport.USB == transportID {
		d.Transport.USB = ""
		d.USBConnected = false
	}

	if d.Transport.TCP == transportID {
		d.Transport.TCP = ""
		d.TCPConnected = false
	}
}

func kindOf(transportID string) identitymap.Kind {
	if models.ClassifyTransport(transportID) == models.TransportTCP {
		return identitymap.KindTCP
	}

	return identitymap.KindUSB
}
