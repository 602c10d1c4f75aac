package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"boardcafe/backend/internal/hub"
	"boardcafe/backend/internal/models"
	"boardcafe/backend/internal/testutil"

	"gorm.io/gorm"
)

var base = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu   sync.Mutex
	keys []string
}

func (r *recorder) Publish(_ context.Context, key string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return nil
}

func (r *recorder) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.keys {
		if k == key {
			return true
		}
	}
	return false
}

type env struct {
	db    *gorm.DB
	svc   *Service
	clock *testutil.Clock
	pub   *recorder
	fx    testutil.Fixture
}

func setup(t *testing.T, stock int) *env {
	t.Helper()
	db := testutil.NewDB(t)
	clock := &testutil.Clock{T: base}
	pub := &recorder{}
	return &env{
		db:    db,
		svc:   New(db, pub, WithClock(clock.Now), WithHub(hub.NewHub())),
		clock: clock,
		pub:   pub,
		fx:    testutil.Seed(t, db, stock),
	}
}

func (e *env) stock(t *testing.T) int {
	t.Helper()
	var g models.Game
	if err := e.db.First(&g, e.fx.Game.ID).Error; err != nil {
		t.Fatal(err)
	}
	return g.Stock
}

func (e *env) book(t *testing.T, from, to time.Duration, withGame bool) *models.Reservation {
	t.Helper()
	in := CreateReservationInput{
		UserID:    e.fx.Owner.ID,
		CafeID:    e.fx.Cafe.ID,
		TableID:   e.fx.Table.ID,
		StartTime: base.Add(from),
		EndTime:   base.Add(to),
	}
	if withGame {
		id := e.fx.Game.ID
		in.GameID = &id
	}
	res, err := e.svc.CreateReservation(context.Background(), in)
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return res
}

func fieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	return ""
}

func TestCreateReservationTakesStockAndRejectsOverlap(t *testing.T) {
	e := setup(t, 2)
	res := e.book(t, time.Hour, 3*time.Hour, true)

	if res.GameID == nil || *res.GameID != e.fx.Game.ID {
		t.Fatalf("game not linked: %+v", res.GameID)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("expected stock 1 after booking, got %d", got)
	}
	if !e.pub.has("reservation.created") {
		t.Fatal("reservation.created not published")
	}

	_, err := e.svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: e.fx.Other.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID,
		StartTime: base.Add(2 * time.Hour), EndTime: base.Add(4 * time.Hour),
	})
	if !errors.Is(err, ErrTableTaken) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected table conflict, got %v", err)
	}

	// back-to-back is not an overlap
	if _, err := e.svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: e.fx.Other.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID,
		StartTime: base.Add(3 * time.Hour), EndTime: base.Add(4 * time.Hour),
	}); err != nil {
		t.Fatalf("adjacent booking rejected: %v", err)
	}
}

func TestCreateReservationValidationNamesField(t *testing.T) {
	e := setup(t, 1)
	other := models.Cafe{Name: "Elsewhere"}
	if err := e.db.Create(&other).Error; err != nil {
		t.Fatal(err)
	}
	foreign := models.Table{CafeID: other.ID, Label: "X", Capacity: 2}
	if err := e.db.Create(&foreign).Error; err != nil {
		t.Fatal(err)
	}

	valid := CreateReservationInput{
		UserID: e.fx.Owner.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
	}
	cases := []struct {
		name  string
		edit  func(in *CreateReservationInput)
		field string
	}{
		{"end before start", func(in *CreateReservationInput) { in.EndTime = in.StartTime.Add(-time.Minute) }, "end_time"},
		{"start in past", func(in *CreateReservationInput) {
			in.StartTime = base.Add(-time.Hour)
			in.EndTime = base.Add(time.Hour)
		}, "start_time"},
		{"missing table", func(in *CreateReservationInput) { in.TableID = 0 }, "table_id"},
		{"table of another cafe", func(in *CreateReservationInput) { in.TableID = foreign.ID }, "table_id"},
		{"unknown cafe", func(in *CreateReservationInput) { in.CafeID = 999 }, "cafe_id"},
		{"unknown game", func(in *CreateReservationInput) { g := uint(999); in.GameID = &g }, "game_id"},
		{"group without seats", func(in *CreateReservationInput) { in.GroupName = "friends" }, "group_seats"},
		{"seats without name", func(in *CreateReservationInput) { in.GroupSeats = 2 }, "group_name"},
		{"seats over capacity", func(in *CreateReservationInput) {
			in.GroupName = "friends"
			in.GroupSeats = 4
		}, "group_seats"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.edit(&in)
			_, err := e.svc.CreateReservation(context.Background(), in)
			if got := fieldOf(err); got != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestCreateReservationOutOfStockRollsBack(t *testing.T) {
	e := setup(t, 0)
	id := e.fx.Game.ID
	_, err := e.svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: e.fx.Owner.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID, GameID: &id,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
	})
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	var count int64
	e.db.Model(&models.Reservation{}).Count(&count)
	if count != 0 {
		t.Fatalf("reservation should not be persisted, found %d", count)
	}
	if got := e.stock(t); got != 0 {
		t.Fatalf("stock must stay at 0, got %d", got)
	}
}

func TestUpdateReservationOwnershipAndPartialFields(t *testing.T) {
	e := setup(t, 1)
	res := e.book(t, time.Hour, 2*time.Hour, false)

	newEnd := base.Add(3 * time.Hour)
	_, err := e.svc.UpdateReservation(context.Background(), e.fx.Other.ID, res.ID, UpdateReservationInput{EndTime: &newEnd})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	gameID := e.fx.Game.ID
	updated, err := e.svc.UpdateReservation(context.Background(), e.fx.Owner.ID, res.ID, UpdateReservationInput{EndTime: &newEnd, GameID: &gameID})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if !updated.EndTime.Equal(newEnd) {
		t.Fatalf("end not updated: %s", updated.EndTime)
	}
	if !updated.StartTime.Equal(base.Add(time.Hour)) || updated.TableID != e.fx.Table.ID {
		t.Fatalf("omitted fields should keep stored values: %+v", updated)
	}
	if got := e.stock(t); got != 0 {
		t.Fatalf("adding a game should take stock, got %d", got)
	}

	zero := uint(0)
	if _, err := e.svc.UpdateReservation(context.Background(), e.fx.Owner.ID, res.ID, UpdateReservationInput{GameID: &zero}); err != nil {
		t.Fatalf("release game: %v", err)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("releasing the game should restore stock, got %d", got)
	}

	badEnd := base.Add(30 * time.Minute)
	if _, err := e.svc.UpdateReservation(context.Background(), e.fx.Owner.ID, res.ID, UpdateReservationInput{EndTime: &badEnd}); fieldOf(err) != "end_time" {
		t.Fatalf("expected end_time validation error, got %v", err)
	}
}

func (e *env) gameStock(t *testing.T, id uint) int {
	t.Helper()
	var g models.Game
	if err := e.db.First(&g, id).Error; err != nil {
		t.Fatal(err)
	}
	return g.Stock
}

func TestUpdateReservationSwapsGameStock(t *testing.T) {
	e := setup(t, 2)
	azul := models.Game{CafeID: e.fx.Cafe.ID, Name: "Azul", Stock: 1}
	if err := e.db.Create(&azul).Error; err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	res := e.book(t, time.Hour, 2*time.Hour, true)
	if got := e.stock(t); got != 1 {
		t.Fatalf("booking should take catan, stock %d", got)
	}

	updated, err := e.svc.UpdateReservation(ctx, e.fx.Owner.ID, res.ID, UpdateReservationInput{GameID: &azul.ID})
	if err != nil {
		t.Fatalf("swap game: %v", err)
	}
	if updated.GameID == nil || *updated.GameID != azul.ID {
		t.Fatalf("game not swapped: %v", updated.GameID)
	}
	if catan, az := e.stock(t), e.gameStock(t, azul.ID); catan != 2 || az != 0 {
		t.Fatalf("after swap expected catan 2 azul 0, got %d and %d", catan, az)
	}

	other := e.book(t, 3*time.Hour, 4*time.Hour, true)
	_, err = e.svc.UpdateReservation(ctx, e.fx.Owner.ID, other.ID, UpdateReservationInput{GameID: &azul.ID})
	if !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("swap to sold out game: expected out of stock, got %v", err)
	}
	if catan := e.stock(t); catan != 1 {
		t.Fatalf("failed swap must not return catan, stock %d", catan)
	}
	kept, err := e.svc.GetReservation(ctx, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kept.GameID == nil || *kept.GameID != e.fx.Game.ID {
		t.Fatalf("failed swap changed the game: %v", kept.GameID)
	}

	zero := uint(0)
	if _, err := e.svc.UpdateReservation(ctx, e.fx.Owner.ID, res.ID, UpdateReservationInput{GameID: &zero}); err != nil {
		t.Fatalf("release game: %v", err)
	}
	if az := e.gameStock(t, azul.ID); az != 1 {
		t.Fatalf("released azul should be back in stock, got %d", az)
	}
}

func TestUpdateReservationTableSwapChecksGroupCapacity(t *testing.T) {
	e := setup(t, 1)
	ctx := context.Background()
	res, err := e.svc.CreateReservation(ctx, CreateReservationInput{
		UserID: e.fx.Owner.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
		GroupName: "Full table", GroupSeats: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	small := models.Table{CafeID: e.fx.Cafe.ID, Label: "T2", Capacity: 2}
	if err := e.db.Create(&small).Error; err != nil {
		t.Fatal(err)
	}

	_, err = e.svc.UpdateReservation(ctx, e.fx.Owner.ID, res.ID, UpdateReservationInput{TableID: &small.ID})
	if fieldOf(err) != "group_seats" {
		t.Fatalf("moving three open seats to a two seat table: expected group_seats error, got %v", err)
	}
	kept, err := e.svc.GetReservation(ctx, res.ID)
	if err != nil {
		t.Fatal(err)
	}
	if kept.TableID != e.fx.Table.ID {
		t.Fatalf("rejected move changed the table to %d", kept.TableID)
	}

	one := 1
	moved, err := e.svc.UpdateReservation(ctx, e.fx.Owner.ID, res.ID, UpdateReservationInput{TableID: &small.ID, GroupSeats: &one})
	if err != nil {
		t.Fatalf("move with fewer seats: %v", err)
	}
	if moved.TableID != small.ID || moved.Group == nil || moved.Group.OpenSeats != 1 {
		t.Fatalf("unexpected reservation after move: %+v", moved)
	}
}

func TestUpdateReservationDetectsOverlapExcludingItself(t *testing.T) {
	e := setup(t, 1)
	first := e.book(t, time.Hour, 2*time.Hour, false)
	second := e.book(t, 3*time.Hour, 4*time.Hour, false)

	// moving within its own slot is fine
	later := base.Add(90 * time.Minute)
	if _, err := e.svc.UpdateReservation(context.Background(), e.fx.Owner.ID, first.ID, UpdateReservationInput{StartTime: &later}); err != nil {
		t.Fatalf("self overlap must be ignored: %v", err)
	}

	overlapStart := base.Add(150 * time.Minute)
	_, err := e.svc.UpdateReservation(context.Background(), e.fx.Owner.ID, second.ID, UpdateReservationInput{StartTime: &overlapStart})
	if err != nil {
		t.Fatalf("no overlap expected yet: %v", err)
	}
	earlier := base.Add(100 * time.Minute)
	_, err = e.svc.UpdateReservation(context.Background(), e.fx.Owner.ID, second.ID, UpdateReservationInput{StartTime: &earlier})
	if !errors.Is(err, ErrTableTaken) {
		t.Fatalf("expected overlap with first reservation, got %v", err)
	}
}

func TestCancelReservationRestoresStock(t *testing.T) {
	e := setup(t, 1)
	res := e.book(t, time.Hour, 2*time.Hour, true)

	if err := e.svc.CancelReservation(context.Background(), e.fx.Other.ID, res.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := e.svc.CancelReservation(context.Background(), e.fx.Owner.ID, res.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("expected stock restored to 1, got %d", got)
	}
	if err := e.svc.CancelReservation(context.Background(), e.fx.Owner.ID, res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second cancel should be not found, got %v", err)
	}
	if !e.pub.has("reservation.cancelled") {
		t.Fatal("reservation.cancelled not published")
	}
}

func TestPurchaseGameNeverGoesNegative(t *testing.T) {
	e := setup(t, 1)

	game, err := e.svc.PurchaseGame(context.Background(), e.fx.Owner.ID, e.fx.Game.ID)
	if err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	if game.Stock != 0 {
		t.Fatalf("expected stock 0, got %d", game.Stock)
	}
	if _, err := e.svc.PurchaseGame(context.Background(), e.fx.Other.ID, e.fx.Game.ID); !errors.Is(err, ErrOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if _, err := e.svc.PurchaseGame(context.Background(), e.fx.Other.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentPurchasesSellExactlyTheStock(t *testing.T) {
	e := setup(t, 3)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold, rejected := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.svc.PurchaseGame(context.Background(), e.fx.Owner.ID, e.fx.Game.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				sold++
			case errors.Is(err, ErrOutOfStock):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if sold != 3 || rejected != 7 {
		t.Fatalf("expected 3 sold / 7 rejected, got %d / %d", sold, rejected)
	}
	if got := e.stock(t); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
}

func TestJoinAndLeaveGroup(t *testing.T) {
	e := setup(t, 1)
	res, err := e.svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: e.fx.Owner.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
		GroupName: "Friday Catan", GroupSeats: 1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Group == nil || res.Group.OpenSeats != 1 {
		t.Fatalf("group not created: %+v", res.Group)
	}
	groupID := res.Group.ID
	third := testutil.CreateUser(t, e.db, "third", models.RoleUser)

	if _, err := e.svc.JoinGroup(context.Background(), e.fx.Owner.ID, groupID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("owner joining own group: expected conflict, got %v", err)
	}

	g, err := e.svc.JoinGroup(context.Background(), e.fx.Other.ID, groupID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if g.OpenSeats != 0 || len(g.Members) != 1 {
		t.Fatalf("expected 0 seats and 1 member, got %d / %d", g.OpenSeats, len(g.Members))
	}

	if _, err := e.svc.JoinGroup(context.Background(), e.fx.Other.ID, groupID); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("duplicate join: expected conflict, got %v", err)
	}
	if _, err := e.svc.JoinGroup(context.Background(), third.ID, groupID); !errors.Is(err, ErrGroupFull) {
		t.Fatalf("full group: expected ErrGroupFull, got %v", err)
	}

	g, err = e.svc.LeaveGroup(context.Background(), e.fx.Other.ID, groupID)
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if g.OpenSeats != 1 || len(g.Members) != 0 {
		t.Fatalf("leave should free the seat, got %d seats / %d members", g.OpenSeats, len(g.Members))
	}
	if _, err := e.svc.LeaveGroup(context.Background(), e.fx.Other.ID, groupID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("leaving twice: expected not found, got %v", err)
	}
	if _, err := e.svc.JoinGroup(context.Background(), third.ID, groupID); err != nil {
		t.Fatalf("freed seat should be joinable: %v", err)
	}
}

func TestJoinGroupBroadcastsToSubscribers(t *testing.T) {
	e := setup(t, 1)
	h := hub.NewHub()
	e.svc.hub = h
	res, err := e.svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: e.fx.Owner.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
		GroupName: "Sunday", GroupSeats: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	client := h.Subscribe(res.Group.ID)

	if _, err := e.svc.JoinGroup(context.Background(), e.fx.Other.ID, res.Group.ID); err != nil {
		t.Fatal(err)
	}
	select {
	case <-client:
	default:
		t.Fatal("subscriber did not receive the join event")
	}
}

func TestSweeperRemovesExpiredAndRestoresStockOnce(t *testing.T) {
	e := setup(t, 1)
	res, err := e.svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: e.fx.Owner.ID, CafeID: e.fx.Cafe.ID, TableID: e.fx.Table.ID, GameID: &e.fx.Game.ID,
		StartTime: base.Add(time.Hour), EndTime: base.Add(2 * time.Hour),
		GroupName: "Late night", GroupSeats: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.svc.JoinGroup(context.Background(), e.fx.Other.ID, res.Group.ID); err != nil {
		t.Fatal(err)
	}
	future := e.book(t, 5*time.Hour, 6*time.Hour, false)
	sweeper := NewSweeper(e.svc, time.Minute, nil)

	if n, err := sweeper.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("nothing should expire yet, got %d, %v", n, err)
	}
	if got := e.stock(t); got != 0 {
		t.Fatalf("stock should be taken while active, got %d", got)
	}

	e.clock.T = base.Add(2 * time.Hour) // end time reached
	n, err := sweeper.RunOnce(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one expired reservation, got %d, %v", n, err)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("expected stock restored by exactly one, got %d", got)
	}
	if !e.pub.has("reservation.expired") {
		t.Fatal("reservation.expired not published")
	}

	var count int64
	e.db.Model(&models.Reservation{}).Where("id = ?", res.ID).Count(&count)
	if count != 0 {
		t.Fatal("expired reservation still present")
	}
	e.db.Model(&models.Group{}).Unscoped().Where("reservation_id = ?", res.ID).Count(&count)
	if count != 0 {
		t.Fatal("group of expired reservation still present")
	}
	e.db.Model(&models.GroupMember{}).Count(&count)
	if count != 0 {
		t.Fatal("group members of expired reservation still present")
	}
	if _, err := e.svc.GetReservation(context.Background(), future.ID); err != nil {
		t.Fatalf("future reservation must survive: %v", err)
	}

	if n, err := sweeper.RunOnce(context.Background()); err != nil || n != 0 {
		t.Fatalf("second sweep should be a no-op, got %d, %v", n, err)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("stock must not be restored twice, got %d", got)
	}
}

func TestCancelAfterSweepRestoresOnce(t *testing.T) {
	e := setup(t, 1)
	ctx := context.Background()
	res := e.book(t, time.Hour, 2*time.Hour, true)

	e.clock.T = base.Add(2 * time.Hour)
	if n, err := NewSweeper(e.svc, time.Minute, nil).RunOnce(ctx); err != nil || n != 1 {
		t.Fatalf("expected one expired reservation, got %d, %v", n, err)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("sweep should restore stock to 1, got %d", got)
	}

	if err := e.svc.CancelReservation(ctx, e.fx.Owner.ID, res.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancel after sweep: expected not found, got %v", err)
	}
	if got := e.stock(t); got != 1 {
		t.Fatalf("late cancel must not restore stock again, got %d", got)
	}
	if e.pub.has("reservation.cancelled") {
		t.Fatal("late cancel must not publish reservation.cancelled")
	}
}

type fakeLocker struct {
	granted bool
	calls   int
}

func (f *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	f.calls++
	return f.granted, nil
}

func TestSweeperSkipsTickWithoutLease(t *testing.T) {
	e := setup(t, 1)
	e.book(t, time.Hour, 2*time.Hour, true)
	e.clock.T = base.Add(3 * time.Hour)

	locker := &fakeLocker{granted: false}
	sweeper := NewSweeper(e.svc, time.Minute, locker)
	sweeper.tick(context.Background())
	if got := e.stock(t); got != 0 {
		t.Fatalf("sweep without lease must not run, stock %d", got)
	}

	locker.granted = true
	sweeper.tick(context.Background())
	if got := e.stock(t); got != 1 {
		t.Fatalf("sweep with lease should restore stock, got %d", got)
	}
	if locker.calls != 2 {
		t.Fatalf("expected two lock attempts, got %d", locker.calls)
	}
}

func TestAssignAndRemoveManager(t *testing.T) {
	e := setup(t, 1)
	ctx := context.Background()

	m, err := e.svc.AssignManager(ctx, e.fx.Other.ID, e.fx.Cafe.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	var u models.User
	e.db.First(&u, e.fx.Other.ID)
	if u.Role != models.RoleManager {
		t.Fatalf("expected role manager, got %s", u.Role)
	}
	ok, err := e.svc.CanManageCafe(ctx, e.fx.Other.ID, models.RoleManager, e.fx.Cafe.ID)
	if err != nil || !ok {
		t.Fatalf("manager should manage their cafe: %v %v", ok, err)
	}
	ok, _ = e.svc.CanManageCafe(ctx, e.fx.Owner.ID, models.RoleManager, e.fx.Cafe.ID)
	if ok {
		t.Fatal("unassigned manager must not manage the cafe")
	}

	if _, err := e.svc.AssignManager(ctx, e.fx.Owner.ID, e.fx.Cafe.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("second manager for the same cafe: expected conflict, got %v", err)
	}

	if err := e.svc.RemoveManager(ctx, m.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	e.db.First(&u, e.fx.Other.ID)
	if u.Role != models.RoleUser {
		t.Fatalf("expected role demoted to user, got %s", u.Role)
	}
}
