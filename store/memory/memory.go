// Package memory provides an in-memory pension.TxStore.
package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/warp/pension-engine/generic"
	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	state state
}

type state struct {
	owner      *generic.AccountID
	members    map[pension.Role]map[generic.AccountID]struct{}
	records    map[generic.AccountID]pension.Record
	insurances map[generic.AccountID][]pension.InsuranceEntry
	taxes      map[generic.AccountID]pension.TaxConfig
	benefits   map[generic.AccountID]generic.Amount
}

func newState() state {
	s := state{
		members:    make(map[pension.Role]map[generic.AccountID]struct{}),
		records:    make(map[generic.AccountID]pension.Record),
		insurances: make(map[generic.AccountID][]pension.InsuranceEntry),
		taxes:      make(map[generic.AccountID]pension.TaxConfig),
		benefits:   make(map[generic.AccountID]generic.Amount),
	}
	for _, r := range pension.Roles {
		s.members[r] = make(map[generic.AccountID]struct{})
	}
	return s
}

func New() *Memory {
	return &Memory{state: newState()}
}

var _ pension.TxStore = (*Memory)(nil)

func (m *Memory) Owner(ctx context.Context) (generic.AccountID, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Owner(ctx)
}

func (m *Memory) SetOwner(ctx context.Context, owner generic.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SetOwner(ctx, owner)
}

func (m *Memory) IsMember(ctx context.Context, role pension.Role, id generic.AccountID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.IsMember(ctx, role, id)
}

func (m *Memory) AddMember(ctx context.Context, role pension.Role, id generic.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AddMember(ctx, role, id)
}

func (m *Memory) RemoveMember(ctx context.Context, role pension.Role, id generic.AccountID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.RemoveMember(ctx, role, id)
}

func (m *Memory) Members(ctx context.Context, role pension.Role) ([]generic.AccountID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Members(ctx, role)
}

func (m *Memory) GetRecord(ctx context.Context, id generic.AccountID) (*pension.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetRecord(ctx, id)
}

func (m *Memory) PutRecord(ctx context.Context, id generic.AccountID, rec pension.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.PutRecord(ctx, id, rec)
}

func (m *Memory) Pensioners(ctx context.Context) ([]generic.AccountID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Pensioners(ctx)
}

func (m *Memory) Insurances(ctx context.Context, id generic.AccountID) ([]pension.InsuranceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Insurances(ctx, id)
}

func (m *Memory) AppendInsurance(ctx context.Context, id generic.AccountID, entry pension.InsuranceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AppendInsurance(ctx, id, entry)
}

func (m *Memory) TaxConfig(ctx context.Context, id generic.AccountID) (*pension.TaxConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.TaxConfig(ctx, id)
}

func (m *Memory) PutTaxConfig(ctx context.Context, id generic.AccountID, cfg pension.TaxConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.PutTaxConfig(ctx, id, cfg)
}

func (m *Memory) SpouseBenefit(ctx context.Context, beneficiary generic.AccountID) (*generic.Amount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.SpouseBenefit(ctx, beneficiary)
}

func (m *Memory) PutSpouseBenefit(ctx context.Context, beneficiary generic.AccountID, amount generic.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.PutSpouseBenefit(ctx, beneficiary, amount)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Memory) WithTx(ctx context.Context, fn func(pension.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.state.clone()
	if err := fn(&m.state); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (s state) clone() state {
	out := newState()
	if s.owner != nil {
		o := *s.owner
		out.owner = &o
	}
	for role, set := range s.members {
		for id := range set {
			out.members[role][id] = struct{}{}
		}
	}
	for id, rec := range s.records {
		out.records[id] = rec.Clone()
	}
	for id, list := range s.insurances {
		out.insurances[id] = append([]pension.InsuranceEntry(nil), list...)
	}
	for id, cfg := range s.taxes {
		out.taxes[id] = cfg
	}
	for id, amt := range s.benefits {
		out.benefits[id] = amt
	}
	return out
}

// =============================================================================
// UNLOCKED STATE - pension.Store over plain maps
// =============================================================================

func (s *state) Owner(_ context.Context) (generic.AccountID, bool, error) {
	if s.owner == nil {
		return generic.AccountID{}, false, nil
	}
	return *s.owner, true, nil
}

func (s *state) SetOwner(_ context.Context, owner generic.AccountID) error {
	s.owner = &owner
	return nil
}

func (s *state) IsMember(_ context.Context, role pension.Role, id generic.AccountID) (bool, error) {
	_, ok := s.members[role][id]
	return ok, nil
}

func (s *state) AddMember(_ context.Context, role pension.Role, id generic.AccountID) error {
	set, ok := s.members[role]
	if !ok {
		set = make(map[generic.AccountID]struct{})
		s.members[role] = set
	}
	set[id] = struct{}{}
	return nil
}

func (s *state) RemoveMember(_ context.Context, role pension.Role, id generic.AccountID) error {
	delete(s.members[role], id)
	return nil
}

func (s *state) Members(_ context.Context, role pension.Role) ([]generic.AccountID, error) {
	ids := make([]generic.AccountID, 0, len(s.members[role]))
	for id := range s.members[role] {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

func (s *state) GetRecord(_ context.Context, id generic.AccountID) (*pension.Record, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	out := rec.Clone()
	return &out, nil
}

func (s *state) PutRecord(_ context.Context, id generic.AccountID, rec pension.Record) error {
	s.records[id] = rec.Clone()
	return nil
}

func (s *state) Pensioners(_ context.Context) ([]generic.AccountID, error) {
	ids := make([]generic.AccountID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids, nil
}

func (s *state) Insurances(_ context.Context, id generic.AccountID) ([]pension.InsuranceEntry, error) {
	list, ok := s.insurances[id]
	if !ok {
		return nil, nil
	}
	return append([]pension.InsuranceEntry(nil), list...), nil
}

func (s *state) AppendInsurance(_ context.Context, id generic.AccountID, entry pension.InsuranceEntry) error {
	s.insurances[id] = append(s.insurances[id], entry)
	return nil
}

func (s *state) TaxConfig(_ context.Context, id generic.AccountID) (*pension.TaxConfig, error) {
	cfg, ok := s.taxes[id]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (s *state) PutTaxConfig(_ context.Context, id generic.AccountID, cfg pension.TaxConfig) error {
	s.taxes[id] = cfg
	return nil
}

func (s *state) SpouseBenefit(_ context.Context, beneficiary generic.AccountID) (*generic.Amount, error) {
	amt, ok := s.benefits[beneficiary]
	if !ok {
		return nil, nil
	}
	return &amt, nil
}

func (s *state) PutSpouseBenefit(_ context.Context, beneficiary generic.AccountID, amount generic.Amount) error {
	s.benefits[beneficiary] = amount
	return nil
}

func sortIDs(ids []generic.AccountID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
