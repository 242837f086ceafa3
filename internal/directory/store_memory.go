package directory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	dErrors "craftgate/pkg/domain-errors"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu           sync.RWMutex
	servers      map[int64]Server
	memberships  map[uuid.UUID]map[int64]Membership
	forms        map[uuid.UUID]Form
	applications []Application
	invitations  map[string]Invitation
	accessApps   []AccessApplication
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		servers:     make(map[int64]Server),
		memberships: make(map[uuid.UUID]map[int64]Membership),
		forms:       make(map[uuid.UUID]Form),
		invitations: make(map[string]Invitation),
	}
}

// AddServer seeds a server.
func (s *MemoryStore) AddServer(server Server) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.servers[server.ID] = server
}

// AddMembership seeds a membership.
func (s *MemoryStore) AddMembership(m Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.memberships[m.PlayerID] == nil {
		s.memberships[m.PlayerID] = make(map[int64]Membership)
	}
	s.memberships[m.PlayerID][m.ServerID] = m
}

// AddForm seeds a form revision.
func (s *MemoryStore) AddForm(form Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forms[form.ID] = form
}

// AddInvitation seeds an invitation code.
func (s *MemoryStore) AddInvitation(inv Invitation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invitations[inv.Code] = inv
}

func (s *MemoryStore) FindServer(ctx context.Context, id int64) (Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	server, ok := s.servers[id]
	if !ok {
		return Server{}, dErrors.New(dErrors.CodeNotFound, "server not found")
	}
	return server, nil
}

func (s *MemoryStore) ListServersByPlayer(ctx context.Context, playerID uuid.UUID) ([]Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	joined := make([]Server, 0, len(s.memberships[playerID]))
	for serverID := range s.memberships[playerID] {
		joined = append(joined, s.servers[serverID])
	}
	sortByID(joined)
	return joined, nil
}

func (s *MemoryStore) ListServersNotJoined(ctx context.Context, playerID uuid.UUID) ([]Server, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var others []Server
	for id, server := range s.servers {
		if _, ok := s.memberships[playerID][id]; !ok {
			others = append(others, server)
		}
	}
	sortByID(others)
	return others, nil
}

func (s *MemoryStore) IsMember(ctx context.Context, playerID uuid.UUID, serverID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.memberships[playerID][serverID]
	return ok, nil
}

func (s *MemoryStore) IsOperator(ctx context.Context, playerID uuid.UUID, serverID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[playerID][serverID]
	return ok && m.IsOperator, nil
}

func (s *MemoryStore) OperatedServerIDs(ctx context.Context, playerID uuid.UUID) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []int64
	for serverID, m := range s.memberships[playerID] {
		if m.IsOperator {
			ids = append(ids, serverID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *MemoryStore) CreateMembership(ctx context.Context, m Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[m.PlayerID][m.ServerID]; ok {
		return dErrors.New(dErrors.CodeConflict, "already a member")
	}
	if s.memberships[m.PlayerID] == nil {
		s.memberships[m.PlayerID] = make(map[int64]Membership)
	}
	s.memberships[m.PlayerID][m.ServerID] = m
	return nil
}

func (s *MemoryStore) DeleteMembership(ctx context.Context, playerID uuid.UUID, serverID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[playerID][serverID]; !ok {
		return dErrors.New(dErrors.CodeNotFound, "membership not found")
	}
	delete(s.memberships[playerID], serverID)
	return nil
}

func (s *MemoryStore) LatestForm(ctx context.Context, serverID int64) (Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, form := range s.forms {
		if form.ServerID == serverID && form.IsLatest {
			return form, nil
		}
	}
	return Form{}, dErrors.New(dErrors.CodeNotFound, "form not found")
}

func (s *MemoryStore) FormByID(ctx context.Context, formID uuid.UUID) (Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	form, ok := s.forms[formID]
	if !ok {
		return Form{}, dErrors.New(dErrors.CodeNotFound, "form not found")
	}
	return form, nil
}

func (s *MemoryStore) CreateApplication(ctx context.Context, app Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications = append(s.applications, app)
	return nil
}

func (s *MemoryStore) ListApplicationsByServer(ctx context.Context, serverID int64, offset, limit int) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Application
	for _, app := range s.applications {
		if app.ServerID == serverID {
			all = append(all, app)
		}
	}
	// Newest first, like the paged review view expects.
	slices.SortFunc(all, func(a, b Application) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) FindInvitation(ctx context.Context, code string) (Invitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invitations[code]
	if !ok {
		return Invitation{}, dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	return inv, nil
}

func (s *MemoryStore) UpdateInvitationUses(ctx context.Context, code string, remaining int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invitations[code]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "invitation not found")
	}
	inv.ReusableTimes = remaining
	s.invitations[code] = inv
	return nil
}

func (s *MemoryStore) DeleteInvitation(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invitations, code)
	return nil
}

func (s *MemoryStore) CreateAccessApplication(ctx context.Context, app AccessApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessApps = append(s.accessApps, app)
	return nil
}

func (s *MemoryStore) ListAccessApplicationsBySubmitter(ctx context.Context, playerID uuid.UUID, states []AccessState) ([]AccessApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []AccessApplication
	for _, app := range s.accessApps {
		if app.SubmittedBy != playerID {
			continue
		}
		if len(states) > 0 && !slices.Contains(states, app.State) {
			continue
		}
		out = append(out, app)
	}
	slices.SortFunc(out, func(a, b AccessApplication) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func sortByID(servers []Server) {
	sort.Slice(servers, func(i, j int) bool { return servers[i].ID < servers[j].ID })
}
