// Package ipalloc allocates overlay host addresses from operator-defined
// CIDR pools, deterministically and without contention beyond what the
// repository's uniqueness constraint on ip_assignments already enforces.
package ipalloc

import (
	"context"
	"fmt"
	"net"

	"github.com/apparentlymart/go-cidr/cidr"

	"nebulafleet.dev/models"
	"nebulafleet.dev/server/internal/repository"
)

type IDGenerator func() string

// Allocator assigns addresses within pools and optional sub-range groups.
type Allocator struct {
	pools       *repository.IPPoolRepository
	groups      *repository.IPGroupRepository
	assignments *repository.IPAssignmentRepository
	newID       IDGenerator
}

func New(pools *repository.IPPoolRepository, groups *repository.IPGroupRepository, assignments *repository.IPAssignmentRepository, newID IDGenerator) *Allocator {
	return &Allocator{pools: pools, groups: groups, assignments: assignments, newID: newID}
}

// Allocate returns the first unassigned host address in pool, scanning
// in canonical order and honoring an optional IPGroup clip. Fails with
// ErrPoolExhausted when no candidate remains.
func (a *Allocator) Allocate(ctx context.Context, pool *models.IPPool, group *models.IPGroup) (string, error) {
	_, network, err := net.ParseCIDR(pool.CIDR)
	if err != nil {
		return "", fmt.Errorf("parse pool cidr %q: %w", pool.CIDR, err)
	}

	first, last := cidr.AddressRange(network)
	if group != nil {
		if start := net.ParseIP(group.StartIP); start != nil && network.Contains(start) {
			first = start
		}
		if end := net.ParseIP(group.EndIP); end != nil && network.Contains(end) {
			last = end
		}
	}

	taken, err := a.assignments.AssignedAddresses(ctx, pool.ID)
	if err != nil {
		return "", err
	}

	for ip := first; compareIPs(ip, last) <= 0; ip = cidr.Inc(ip) {
		if isNetworkOrBroadcast(ip, network) {
			continue
		}
		if !taken[ip.String()] {
			return ip.String(), nil
		}
	}
	return "", models.ErrPoolExhausted
}

// AssignPrimary allocates an address for node and persists it as its
// primary assignment for ipVersion.
func (a *Allocator) AssignPrimary(ctx context.Context, node *models.Node, pool *models.IPPool, group *models.IPGroup, ipVersion string) (*models.IPAssignment, error) {
	ip, err := a.Allocate(ctx, pool, group)
	if err != nil {
		return nil, err
	}
	assignment := &models.IPAssignment{
		ID:        a.newID(),
		NodeID:    node.ID,
		IPAddress: ip,
		IPVersion: ipVersion,
		IsPrimary: true,
		PoolID:    &pool.ID,
	}
	if group != nil {
		assignment.IPGroupID = &group.ID
	}
	if err := a.assignments.Insert(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// AssignSecondary allocates an additional, non-primary address for a
// multi-IP node (ipVersion requiring more than one address).
func (a *Allocator) AssignSecondary(ctx context.Context, node *models.Node, pool *models.IPPool, group *models.IPGroup, ipVersion string) (*models.IPAssignment, error) {
	ip, err := a.Allocate(ctx, pool, group)
	if err != nil {
		return nil, err
	}
	assignment := &models.IPAssignment{
		ID:        a.newID(),
		NodeID:    node.ID,
		IPAddress: ip,
		IPVersion: ipVersion,
		IsPrimary: false,
		PoolID:    &pool.ID,
	}
	if group != nil {
		assignment.IPGroupID = &group.ID
	}
	if err := a.assignments.Insert(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// EnsureDefaultPool creates the pool named by defaultCIDR if no existing
// pool has exactly that CIDR, run once at server startup.
func (a *Allocator) EnsureDefaultPool(ctx context.Context, defaultCIDR string) (*models.IPPool, error) {
	existing, err := a.pools.ByCIDR(ctx, defaultCIDR)
	if err == nil {
		return existing, nil
	}
	if err != models.ErrPoolNotFound {
		return nil, err
	}
	pool := &models.IPPool{ID: a.newID(), CIDR: defaultCIDR, Description: "default pool"}
	if err := a.pools.Insert(ctx, pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// BackfillLegacyAssignments assigns a poolID to every IPAssignment that
// predates the pool_id column, matching its address against known pool
// networks and falling back to defaultPool when none match. Run once at
// server startup, after EnsureDefaultPool.
func (a *Allocator) BackfillLegacyAssignments(ctx context.Context, defaultPool *models.IPPool) (int, error) {
	orphaned, err := a.assignments.ListWithoutPool(ctx)
	if err != nil {
		return 0, err
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	pools, err := a.pools.List(ctx)
	if err != nil {
		return 0, err
	}

	backfilled := 0
	for _, assignment := range orphaned {
		poolID := matchPool(assignment.IPAddress, pools, defaultPool.ID)
		if err := a.assignments.SetPool(ctx, assignment.ID, poolID); err != nil {
			return backfilled, err
		}
		backfilled++
	}
	return backfilled, nil
}

// matchPool returns the ID of the first pool whose CIDR contains
// address, or defaultPoolID if none do (or address does not parse).
func matchPool(address string, pools []*models.IPPool, defaultPoolID string) string {
	ip := net.ParseIP(address)
	if ip == nil {
		return defaultPoolID
	}
	for _, pool := range pools {
		_, network, err := net.ParseCIDR(pool.CIDR)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return pool.ID
		}
	}
	return defaultPoolID
}

func compareIPs(a, b net.IP) int {
	a4, b4 := a.To16(), b.To16()
	for i := range a4 {
		if a4[i] != b4[i] {
			if a4[i] < b4[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// isNetworkOrBroadcast skips the network and broadcast addresses of an
// IPv4 range; IPv6 has no broadcast concept so every address in range is
// a candidate.
func isNetworkOrBroadcast(ip net.IP, network *net.IPNet) bool {
	v4 := ip.To4()
	if v4 == nil {
		return false
	}
	first, last := cidr.AddressRange(network)
	return ip.Equal(first) || ip.Equal(last)
}
