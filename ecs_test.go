package raikou_test

import (
	"errors"
	"sort"
	"sync/atomic"
	"testing"

	"github.com/edwinsyarief/raikou"
)

// --- Test Components ---
type Position struct{ X, Y float32 }
type Velocity struct{ VX, VY float32 }
type Health struct{ Current, Max int }
type Tag struct{}

// go test -run ^TestCreateEntity$ . -count 1
func TestCreateEntity(t *testing.T) {
	world := raikou.NewWorld(16)
	e1 := world.CreateEntity()
	e2 := world.CreateEntity()

	if e1.ID != 0 {
		t.Errorf("Expected first entity ID to be 0, got %d", e1.ID)
	}
	if e1.Version != 1 {
		t.Errorf("Expected first entity version to be 1, got %d", e1.Version)
	}
	if e2.ID != 1 {
		t.Errorf("Expected second entity ID to be 1, got %d", e2.ID)
	}
	if world.Len() != 2 {
		t.Errorf("Expected 2 live entities, got %d", world.Len())
	}
	if (raikou.Entity{}).IsZero() != true || e1.IsZero() {
		t.Error("Null handle detection is wrong")
	}
}

// go test -run ^TestAutoExpand$ . -count 1
func TestAutoExpand(t *testing.T) {
	world := raikou.NewWorld(2)
	ents := world.CreateEntities(5000)
	if len(ents) != 5000 {
		t.Fatalf("Expected 5000 entities, got %d", len(ents))
	}
	seen := make(map[uint32]bool, len(ents))
	for _, e := range ents {
		if seen[e.ID] {
			t.Fatalf("Duplicate entity ID %d", e.ID)
		}
		seen[e.ID] = true
		if !world.IsValid(e) {
			t.Fatalf("Entity %v should be valid", e)
		}
	}
}

// go test -run ^TestRemoveEntity$ . -count 1
func TestRemoveEntity(t *testing.T) {
	world := raikou.NewWorld(4)
	e := world.CreateEntity()
	raikou.SetComponent(world, e, Position{X: 1})
	world.RemoveEntity(e)
	if world.IsValid(e) {
		t.Fatal("Entity should be invalid after removal")
	}
	if raikou.GetComponent[Position](world, e) != nil {
		t.Error("Stale handle must not resolve components")
	}
	// Recycled ID gets a new version.
	e2 := world.CreateEntity()
	if e2.ID != e.ID {
		t.Errorf("Expected recycled ID %d, got %d", e.ID, e2.ID)
	}
	if e2.Version == e.Version {
		t.Error("Recycled entity must get a new version")
	}
	// Removing twice is a no-op.
	world.RemoveEntity(e)
	if !world.IsValid(e2) {
		t.Error("Removing a stale handle must not affect the recycled entity")
	}
}

// go test -run ^TestSetComponent$ . -count 1
func TestSetComponent(t *testing.T) {
	world := raikou.NewWorld(4)
	e := world.CreateEntity()

	t.Run("AddNewComponent", func(t *testing.T) {
		raikou.SetComponent(world, e, Position{X: 100, Y: 200})
		p := raikou.GetComponent[Position](world, e)
		if p == nil {
			t.Fatal("GetComponent failed after SetComponent added a component")
		}
		if p.X != 100 || p.Y != 200 {
			t.Errorf("Component data incorrect after SetComponent add. Expected {100, 200}, got %+v", p)
		}
	})

	t.Run("UpdateExistingComponent", func(t *testing.T) {
		raikou.SetComponent(world, e, Velocity{VX: 1, VY: 2})
		raikou.SetComponent(world, e, Position{X: 555, Y: 777})

		p := raikou.GetComponent[Position](world, e)
		if p.X != 555 || p.Y != 777 {
			t.Errorf("Component data incorrect after SetComponent update. Expected {555, 777}, got %+v", p)
		}
		v := raikou.GetComponent[Velocity](world, e)
		if v == nil || v.VX != 1 || v.VY != 2 {
			t.Errorf("Velocity component data was corrupted. Got %+v", v)
		}
	})

	t.Run("InvalidEntity", func(t *testing.T) {
		raikou.SetComponent(world, raikou.Entity{ID: 99, Version: 3}, Health{})
		if raikou.HasComponent[Health](world, raikou.Entity{ID: 99, Version: 3}) {
			t.Error("Invalid entity must not gain components")
		}
	})
}

// go test -run ^TestRemoveComponent$ . -count 1
func TestRemoveComponent(t *testing.T) {
	world := raikou.NewWorld(4)
	e := world.CreateEntity()
	raikou.SetComponent(world, e, Position{X: 3})
	raikou.SetComponent(world, e, Health{Current: 7, Max: 9})
	raikou.RemoveComponent[Position](world, e)

	if raikou.HasComponent[Position](world, e) {
		t.Error("Position should have been removed")
	}
	h := raikou.GetComponent[Health](world, e)
	if h == nil || h.Current != 7 || h.Max != 9 {
		t.Errorf("Health should survive the archetype move, got %+v", h)
	}
	// Removing a missing component is a no-op.
	raikou.RemoveComponent[Velocity](world, e)
}

// go test -run ^TestSwapRemoveKeepsData$ . -count 1
func TestSwapRemoveKeepsData(t *testing.T) {
	world := raikou.NewWorld(8)
	b := raikou.NewBuilder[Position](world)
	ents := make([]raikou.Entity, 0, 3000)
	for i := range 3000 {
		ents = append(ents, b.NewEntityWith(Position{X: float32(i)}))
	}
	// Remove every third entity, spanning several chunks.
	for i := 0; i < len(ents); i += 3 {
		world.RemoveEntity(ents[i])
	}
	for i, e := range ents {
		p := raikou.GetComponent[Position](world, e)
		if i%3 == 0 {
			if p != nil {
				t.Fatalf("Removed entity %d still resolves", i)
			}
			continue
		}
		if p == nil || p.X != float32(i) {
			t.Fatalf("Entity %d lost its data: %+v", i, p)
		}
	}
}

// go test -run ^TestFilterWithout$ . -count 1
func TestFilterWithout(t *testing.T) {
	world := raikou.NewWorld(8)
	a := world.CreateEntity()
	raikou.SetComponent(world, a, Position{})
	b := world.CreateEntity()
	raikou.SetComponent(world, b, Position{})
	raikou.SetComponent(world, b, Velocity{})

	f := raikou.NewFilter[Position](world).Without(raikou.ComponentIDFor[Velocity](world))
	var got []raikou.Entity
	for f.Next() {
		got = append(got, f.Entity())
	}
	if len(got) != 1 || got[0] != a {
		t.Errorf("Expected only %v, got %v", a, got)
	}

	// A new archetype created later is picked up on Reset.
	c := world.CreateEntity()
	raikou.SetComponent(world, c, Health{})
	raikou.SetComponent(world, c, Position{})
	f.Reset()
	n := 0
	for f.Next() {
		n++
	}
	if n != 2 {
		t.Errorf("Expected 2 entities after new archetype, got %d", n)
	}
	if f.Len() != 2 {
		t.Errorf("Expected Len 2, got %d", f.Len())
	}
}

// go test -run ^TestFilter3Get$ . -count 1
func TestFilter3Get(t *testing.T) {
	world := raikou.NewWorld(8)
	for i := range 10 {
		e := world.CreateEntity()
		raikou.SetComponent(world, e, Position{X: float32(i)})
		raikou.SetComponent(world, e, Velocity{VX: 1})
		raikou.SetComponent(world, e, Health{Current: i})
	}
	f := raikou.NewFilter3[Position, Velocity, Health](world)
	for f.Next() {
		p, v, h := f.Get()
		p.X += v.VX
		if int(p.X) != h.Current+1 {
			t.Fatalf("Mismatched components for %v", f.Entity())
		}
	}
}

// go test -run ^TestDuplicateFilterTypesPanics$ . -count 1
func TestDuplicateFilterTypesPanics(t *testing.T) {
	world := raikou.NewWorld(1)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	raikou.NewFilter2[Position, Position](world)
}

// go test -run ^TestEntitiesCache$ . -count 1
func TestEntitiesCache(t *testing.T) {
	world := raikou.NewWorld(8)
	b := raikou.NewBuilder[Position](world)
	ents := b.NewEntities(5)
	f := raikou.NewFilter[Position](world)
	if len(f.Entities()) != 5 {
		t.Fatalf("Expected 5 entities, got %d", len(f.Entities()))
	}
	world.RemoveEntity(ents[0])
	got := append([]raikou.Entity(nil), f.Entities()...)
	if len(got) != 4 {
		t.Fatalf("Expected 4 entities after removal, got %d", len(got))
	}
	sort.Slice(got, func(i, j int) bool { return got[i].ID < got[j].ID })
	if got[0] != ents[1] {
		t.Errorf("Expected %v first, got %v", ents[1], got[0])
	}
}

// go test -run ^TestParallelEach$ . -race -count 1
func TestParallelEach(t *testing.T) {
	world := raikou.NewWorld(1024)
	b := raikou.NewBuilder[Position](world)
	ents := b.NewEntities(5 * raikou.ChunkSize)
	for _, e := range ents {
		raikou.SetComponent(world, e, Velocity{VX: 2, VY: 3})
	}
	f := raikou.NewFilter2[Position, Velocity](world)
	var visited atomic.Int64
	f.ParallelEach(4, func(e raikou.Entity, p *Position, v *Velocity) {
		if !world.Locked() {
			t.Error("world must be locked during ParallelEach")
		}
		p.X += v.VX
		p.Y += v.VY
		visited.Add(1)
	})
	if visited.Load() != int64(len(ents)) {
		t.Fatalf("Expected %d visits, got %d", len(ents), visited.Load())
	}
	if world.Locked() {
		t.Error("world must be unlocked after ParallelEach")
	}
	for _, e := range ents {
		p := raikou.GetComponent[Position](world, e)
		if p.X != 2 || p.Y != 3 {
			t.Fatalf("Entity %v written %+v, want {2 3}", e, p)
		}
	}
}

// go test -run ^TestStructuralChangeWhileLockedPanics$ . -count 1
func TestStructuralChangeWhileLockedPanics(t *testing.T) {
	world := raikou.NewWorld(4)
	e := world.CreateEntity()
	world.Lock()
	defer world.Unlock()
	defer func() {
		r := recover()
		err, ok := r.(error)
		if !ok || !errors.Is(err, raikou.ErrWorldLocked) {
			t.Errorf("expected ErrWorldLocked panic, got %v", r)
		}
	}()
	raikou.SetComponent(world, e, Position{})
}

// go test -run ^TestAccessor$ . -count 1
func TestAccessor(t *testing.T) {
	world := raikou.NewWorld(4)
	pos := raikou.NewAccessor[Position](world)
	e := world.CreateEntity()
	if pos.Has(e) || pos.Get(e) != nil {
		t.Fatal("fresh entity must not have Position")
	}
	pos.Set(e, Position{X: 4})
	if !pos.Has(e) || pos.Get(e).X != 4 {
		t.Fatalf("accessor Set failed: %+v", pos.Get(e))
	}
	if pos.ID() != raikou.ComponentIDFor[Position](world) {
		t.Error("accessor ID must match the registry")
	}
	// Value writes on an existing slot are allowed while locked.
	world.Lock()
	pos.Set(e, Position{X: 5})
	world.Unlock()
	if pos.Get(e).X != 5 {
		t.Error("locked value write lost")
	}
}

// go test -run ^TestClearEntities$ . -count 1
func TestClearEntities(t *testing.T) {
	world := raikou.NewWorld(4)
	b := raikou.NewBuilder[Health](world)
	ents := b.NewEntities(10)
	world.ClearEntities()
	if world.Len() != 0 {
		t.Errorf("Expected empty world, got %d", world.Len())
	}
	for _, e := range ents {
		if world.IsValid(e) {
			t.Fatalf("Entity %v survived ClearEntities", e)
		}
	}
	if raikou.NewFilter[Health](world).Next() {
		t.Error("Filter must be empty after ClearEntities")
	}
}
