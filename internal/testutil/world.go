package testutil

import (
	"fmt"
	"math"
	"sync"

	"github.com/quelaag/evsc/internal/ir"
	"github.com/quelaag/evsc/internal/registry"
)

// World is a scripted game state implementing engine.TestEvaluator.
//
// Tests mutate the world between ticks (SetFlag, Kill, Enter, ...) and
// the engine observes those mutations through the test vocabulary. Every
// query has a boring default: flags are off, characters are alive, bags
// are empty, nobody is anywhere.
type World struct {
	mu sync.Mutex

	flags     map[int64]bool
	regions   map[int64]int64 // entity -> region
	distances map[pair]float64

	possessed map[int64]bool
	owned     map[int64]bool

	dead     map[int64]bool
	hollow   map[int64]bool
	aiStatus map[int64]int64
	team     map[int64]int64
	covenant int64
	class    int64

	destroyed map[int64]bool
	activated map[int64]bool
	standing  map[int64]bool

	host    bool
	online  bool
	players int64

	tendency map[int64]int64 // side -> value
}

type pair struct{ a, b int64 }

func orderedPair(a, b int64) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

// NewWorld creates an empty world with a single offline player.
func NewWorld() *World {
	return &World{
		flags:     map[int64]bool{},
		regions:   map[int64]int64{},
		distances: map[pair]float64{},
		possessed: map[int64]bool{},
		owned:     map[int64]bool{},
		dead:      map[int64]bool{},
		hollow:    map[int64]bool{},
		aiStatus:  map[int64]int64{},
		team:      map[int64]int64{},
		destroyed: map[int64]bool{},
		activated: map[int64]bool{},
		standing:  map[int64]bool{},
		tendency:  map[int64]int64{},
		players:   1,
	}
}

// SetFlag sets or clears a flag.
func (w *World) SetFlag(id int64, on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flags[id] = on
}

// Kill marks a character dead.
func (w *World) Kill(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dead[id] = true
}

// Revive marks a character alive again.
func (w *World) Revive(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.dead, id)
}

// Hollow marks a character hollow; by default everyone is human.
func (w *World) Hollow(id int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.hollow[id] = true
}

// SetAIStatus scripts a character's AI status.
func (w *World) SetAIStatus(id, status int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.aiStatus[id] = status
}

// SetTeam scripts a character's team type.
func (w *World) SetTeam(id, team int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.team[id] = team
}

// SetCovenant scripts the player covenant.
func (w *World) SetCovenant(c int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.covenant = c
}

// SetClass scripts the player class.
func (w *World) SetClass(c int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.class = c
}

// Give puts an item into the player's possession. Owned is a superset of
// possessed: it survives Drop.
func (w *World) Give(item int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.possessed[item] = true
	w.owned[item] = true
}

// Drop removes an item from possession but not ownership.
func (w *World) Drop(item int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.possessed, item)
}

// Enter places an entity inside a region. An entity is in at most one
// region at a time.
func (w *World) Enter(entity, region int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.regions[entity] = region
}

// Leave removes an entity from whatever region it occupies.
func (w *World) Leave(entity int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.regions, entity)
}

// SetDistance scripts the distance between two entities. Unscripted pairs
// are infinitely far apart.
func (w *World) SetDistance(a, b int64, d float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.distances[orderedPair(a, b)] = d
}

// Destroy marks an object destroyed.
func (w *World) Destroy(obj int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.destroyed[obj] = true
}

// Activate marks an object activated.
func (w *World) Activate(obj int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activated[obj] = true
}

// StandOn marks a collision surface as stood on.
func (w *World) StandOn(collision int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.standing[collision] = true
}

// SetSession scripts the multiplayer session shape.
func (w *World) SetSession(host, online bool, players int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.host = host
	w.online = online
	w.players = players
}

// SetTendency scripts a world tendency value for one side.
func (w *World) SetTendency(side, value int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tendency[side] = value
}

// Eval answers one test query. Implements engine.TestEvaluator.
func (w *World) Eval(op ir.Opcode, args []ir.Value) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch op {
	case registry.OpFlagEnabled:
		return w.flags[intArg(args, 0)], nil
	case registry.OpFlagDisabled:
		return !w.flags[intArg(args, 0)], nil

	case registry.OpInsideRegion:
		r, ok := w.regions[intArg(args, 0)]
		return ok && r == intArg(args, 1), nil
	case registry.OpOutsideRegion:
		r, ok := w.regions[intArg(args, 0)]
		return !ok || r != intArg(args, 1), nil
	case registry.OpWithinDistance:
		return w.distance(args) <= floatArg(args, 2), nil
	case registry.OpBeyondDistance:
		return w.distance(args) >= floatArg(args, 2), nil

	case registry.OpHasWeapon, registry.OpHasArmor, registry.OpHasRing, registry.OpHasGood:
		return w.possessed[intArg(args, 0)], nil
	case registry.OpOwnsWeapon, registry.OpOwnsArmor, registry.OpOwnsRing, registry.OpOwnsGood:
		return w.owned[intArg(args, 0)], nil

	case registry.OpIsAlive:
		return !w.dead[intArg(args, 0)], nil
	case registry.OpIsDead:
		return w.dead[intArg(args, 0)], nil
	case registry.OpIsHuman:
		return !w.hollow[intArg(args, 0)], nil
	case registry.OpIsHollow:
		return w.hollow[intArg(args, 0)], nil
	case registry.OpHasAIStatus:
		return w.aiStatus[intArg(args, 0)] == intArg(args, 1), nil
	case registry.OpIsTeamType:
		return w.team[intArg(args, 0)] == intArg(args, 1), nil
	case registry.OpHasCovenant:
		return w.covenant == intArg(args, 0), nil
	case registry.OpIsClassType:
		return w.class == intArg(args, 0), nil

	case registry.OpObjectDestroyed:
		return w.destroyed[intArg(args, 0)], nil
	case registry.OpObjectActivated:
		return w.activated[intArg(args, 0)], nil
	case registry.OpStandingOnCollision:
		return w.standing[intArg(args, 0)], nil

	case registry.OpIsHost:
		return w.host, nil
	case registry.OpIsClient:
		return w.online && !w.host, nil
	case registry.OpIsSingleplayer:
		return w.players <= 1, nil
	case registry.OpIsMultiplayer:
		return w.players > 1, nil
	case registry.OpIsOnline:
		return w.online, nil

	case registry.OpWorldTendency:
		return compare(w.tendency[intArg(args, 0)], intArg(args, 1), intArg(args, 2))
	}

	return false, fmt.Errorf("world has no answer for opcode 0x%04x", uint16(op))
}

func (w *World) distance(args []ir.Value) float64 {
	d, ok := w.distances[orderedPair(intArg(args, 0), intArg(args, 1))]
	if !ok {
		return math.Inf(1)
	}
	return d
}

// compare applies one of the six tendency comparison operators, in enum
// order: ==, !=, >, <, >=, <=.
func compare(have, op, want int64) (bool, error) {
	switch op {
	case 0:
		return have == want, nil
	case 1:
		return have != want, nil
	case 2:
		return have > want, nil
	case 3:
		return have < want, nil
	case 4:
		return have >= want, nil
	case 5:
		return have <= want, nil
	}
	return false, fmt.Errorf("unknown comparison operator %d", op)
}

func intArg(args []ir.Value, i int) int64 {
	if i >= len(args) {
		return 0
	}
	if n, ok := args[i].(ir.Int); ok {
		return int64(n)
	}
	return 0
}

func floatArg(args []ir.Value, i int) float64 {
	if i >= len(args) {
		return 0
	}
	switch v := args[i].(type) {
	case ir.Float:
		return float64(v)
	case ir.Int:
		return float64(v)
	}
	return 0
}
