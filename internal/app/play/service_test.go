package play

import (
	"context"
	"sync"
	"testing"
	"time"

	"ludo-server/internal/board"
	"ludo-server/internal/clients"
	"ludo-server/internal/config"
	"ludo-server/internal/game"
	"ludo-server/internal/lock"
	"ludo-server/internal/push"
	"ludo-server/internal/state"
	"ludo-server/internal/store"
)

type manualDelay struct {
	mu   sync.Mutex
	jobs []func(ctx context.Context)
}

func (d *manualDelay) Schedule(_ string, _ time.Duration, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, fn)
}

// fire runs the i-th scheduled job synchronously.
func (d *manualDelay) fire(t *testing.T, i int) {
	t.Helper()
	d.mu.Lock()
	if i >= len(d.jobs) {
		d.mu.Unlock()
		t.Fatalf("no job %d, have %d", i, len(d.jobs))
	}
	fn := d.jobs[i]
	d.mu.Unlock()
	fn(context.Background())
}

func (d *manualDelay) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

type stubRecords struct {
	mu      sync.Mutex
	status  string
	winners []string
}

func (r *stubRecords) FinishTableRecord(_ context.Context, _ string, status string, winners []string, _ map[string]int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.winners = winners
	return nil
}

type stubWallet struct {
	mu      sync.Mutex
	credits map[string]int64
}

func (w *stubWallet) Balance(context.Context, string) (int64, error) { return 1_000_000, nil }
func (w *stubWallet) DebitJoinFee(context.Context, string, []string, int64) error {
	return nil
}
func (w *stubWallet) CreditWinnings(_ context.Context, _ string, userID string, amount int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.credits == nil {
		w.credits = make(map[string]int64)
	}
	w.credits[userID] += amount
	return nil
}

type stubUsers struct {
	mu       sync.Mutex
	consumed []string
}

func (u *stubUsers) Profiles(context.Context, []string) ([]clients.Profile, error) { return nil, nil }
func (u *stubUsers) ConsumeFreeGame(_ context.Context, userID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.consumed = append(u.consumed, userID)
	return nil
}

type stubMeta struct {
	mu     sync.Mutex
	losers []string
}

func (m *stubMeta) Tournament(context.Context, string) (clients.Tournament, error) {
	return clients.Tournament{}, nil
}
func (m *stubMeta) ReportLoser(_ context.Context, _ string, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.losers = append(m.losers, userID)
	return nil
}

type sinkCapture struct {
	mu     sync.Mutex
	rounds []game.RoundFinishedEvent
}

func (s *sinkCapture) RoundFinished(_ context.Context, ev game.RoundFinishedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, ev)
}

type playFixture struct {
	svc     *Service
	tables  *state.MemoryStore
	pub     *push.Capture
	delay   *manualDelay
	records *stubRecords
	wallet  *stubWallet
	users   *stubUsers
	meta    *stubMeta
}

func newFixture(t *testing.T) *playFixture {
	t.Helper()
	f := &playFixture{
		tables:  state.NewMemoryStore(),
		pub:     push.NewCapture(),
		delay:   &manualDelay{},
		records: &stubRecords{},
		wallet:  &stubWallet{},
		users:   &stubUsers{},
		meta:    &stubMeta{},
	}
	cfg := config.GameConfig{
		TurnTimeout:       30 * time.Second,
		RollAnnounceDelay: 2 * time.Second,
		ReadyTimeout:      20 * time.Second,
		SixRule:           true,
		LockTTL:           5 * time.Second,
		DefaultLives:      2,
	}
	locks := lock.NewWithBackend(lock.NewMemoryBackend(), cfg.LockTTL)
	f.svc = New(cfg, locks, f.tables, f.records, f.wallet, f.users, f.meta, f.pub, f.delay)
	return f
}

func (f *playFixture) seed(t *testing.T, tbl *game.Table) {
	t.Helper()
	ctx := context.Background()
	if err := f.tables.SaveTable(ctx, tbl); err != nil {
		t.Fatalf("seed table: %v", err)
	}
	for _, p := range tbl.Info.Players {
		if err := f.tables.SetActiveTable(ctx, p.UserID, tbl.Info.ID); err != nil {
			t.Fatalf("seed pointer: %v", err)
		}
	}
}

func kinds(evs []game.Event) []string {
	out := make([]string, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind()
	}
	return out
}

func countKind(evs []game.Event, kind string) int {
	n := 0
	for _, ev := range evs {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

func TestReadyHandshakeStartsGame(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 100, []string{"u1", "u2"}, 2)
	f.seed(t, tbl)

	if err := f.svc.Ready(ctx, "u1", "t1"); err != nil {
		t.Fatalf("ready u1: %v", err)
	}
	live, _ := f.tables.LoadTable(ctx, "t1")
	if live.Started() {
		t.Fatal("game started before all players readied")
	}
	if err := f.svc.Ready(ctx, "u2", "t1"); err != nil {
		t.Fatalf("ready u2: %v", err)
	}
	live, _ = f.tables.LoadTable(ctx, "t1")
	if !live.Started() {
		t.Fatal("game not started after all players readied")
	}
	if live.State.Deadline.IsZero() {
		t.Fatal("no action deadline set on start")
	}
	if n := countKind(f.pub.Events("t1"), "next"); n != 1 {
		t.Fatalf("expected one next announcement, got %d in %v", n, kinds(f.pub.Events("t1")))
	}
}

func TestReadyTimeoutDiscardsUnstartedTable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 100, []string{"u1", "u2"}, 2)
	f.seed(t, tbl)

	if err := f.svc.Ready(ctx, "u1", "t1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	f.delay.fire(t, 0) // ready deadline passes with u2 silent

	if _, err := f.tables.LoadTable(ctx, "t1"); err == nil {
		t.Fatal("discarded table still in ephemeral store")
	}
	if f.records.status != store.StatusDiscarded {
		t.Fatalf("record status = %q, want %q", f.records.status, store.StatusDiscarded)
	}
	if countKind(f.pub.Events("t1"), "tableDiscarded") != 1 {
		t.Fatalf("no discard event published: %v", kinds(f.pub.Events("t1")))
	}
	if _, err := f.tables.ActiveTable(ctx, "u1"); err == nil {
		t.Fatal("active-table pointer survived discard")
	}
}

func TestIntermediateReadyKeepsArmedDeadline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 100, []string{"u1", "u2"}, 2)
	f.seed(t, tbl)

	if err := f.svc.ArmReadyTimeout(ctx, "t1"); err != nil {
		t.Fatalf("arm: %v", err)
	}
	armed, _ := f.tables.LoadTable(ctx, "t1")
	if armed.State.Deadline.IsZero() {
		t.Fatal("arming set no ready deadline")
	}

	if err := f.svc.Ready(ctx, "u1", "t1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	live, _ := f.tables.LoadTable(ctx, "t1")
	if !live.State.Deadline.Equal(armed.State.Deadline) {
		t.Fatalf("intermediate ready moved the deadline: %v -> %v", armed.State.Deadline, live.State.Deadline)
	}
	if f.delay.count() != 1 {
		t.Fatalf("intermediate ready armed %d timers, want the arm-time one only", f.delay.count())
	}

	// u2 stays silent past the advertised deadline
	f.delay.fire(t, 0)
	if _, err := f.tables.LoadTable(ctx, "t1"); err == nil {
		t.Fatal("half-readied table survived its ready deadline")
	}
	if f.records.status != store.StatusDiscarded {
		t.Fatalf("record status = %q, want %q", f.records.status, store.StatusDiscarded)
	}
}

func TestArmedReadyTimerInertAfterStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 100, []string{"u1", "u2"}, 2)
	f.seed(t, tbl)

	if err := f.svc.ArmReadyTimeout(ctx, "t1"); err != nil {
		t.Fatalf("arm: %v", err)
	}
	for _, u := range []string{"u1", "u2"} {
		if err := f.svc.Ready(ctx, u, "t1"); err != nil {
			t.Fatalf("ready %s: %v", u, err)
		}
	}

	f.delay.fire(t, 0) // the arm-time job fires against a started table

	live, err := f.tables.LoadTable(ctx, "t1")
	if err != nil {
		t.Fatalf("started table gone after stale ready timer: %v", err)
	}
	if !live.Started() {
		t.Fatal("table no longer started")
	}
	if countKind(f.pub.Events("t1"), "tableDiscarded") != 0 {
		t.Fatal("stale ready timer discarded a started table")
	}
}

func startedTable(t *testing.T, f *playFixture, id string, users []string) {
	t.Helper()
	ctx := context.Background()
	tbl := game.NewTable(id, "tt1", board.VariantClassic, 100, users, 2)
	f.seed(t, tbl)
	for _, u := range users {
		if err := f.svc.Ready(ctx, u, id); err != nil {
			t.Fatalf("ready %s: %v", u, err)
		}
	}
}

func TestTurnTimeoutSkipsWhenTurnUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	startedTable(t, f, "t1", []string{"u1", "u2"})

	// last scheduled job is the first turn's deadline
	f.delay.fire(t, f.delay.count()-1)

	live, err := f.tables.LoadTable(ctx, "t1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if live.State.CurrentTurn != 2 {
		t.Fatalf("turn did not pass to seat 2, at %d", live.State.CurrentTurn)
	}
	if p := live.Player("u1"); p.Lives != 1 {
		t.Fatalf("u1 lives = %d, want 1", p.Lives)
	}
	if countKind(f.pub.Events("t1"), "skippedTurn") != 1 {
		t.Fatalf("expected one skip event: %v", kinds(f.pub.Events("t1")))
	}
}

func TestStaleTimerIsInert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	startedTable(t, f, "t1", []string{"u1", "u2"})
	turnDeadline := f.delay.count() - 1

	// the player acts before the deadline
	f.svc.SetRollFunc(func(int) int { return 2 })
	if err := f.svc.RollDice(ctx, "u1", "t1"); err != nil {
		t.Fatalf("roll: %v", err)
	}
	before, _ := f.tables.LoadTable(ctx, "t1")

	f.delay.fire(t, turnDeadline)

	after, _ := f.tables.LoadTable(ctx, "t1")
	if after.State.TurnNo != before.State.TurnNo {
		t.Fatalf("stale timer mutated the table: turn %d -> %d", before.State.TurnNo, after.State.TurnNo)
	}
	if countKind(f.pub.Events("t1"), "skippedTurn") != 0 {
		t.Fatal("stale timer skipped a turn")
	}
}

func TestRollAnnouncementIsDelayed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	startedTable(t, f, "t1", []string{"u1", "u2"})

	f.svc.SetRollFunc(func(int) int { return 2 }) // no pawn can leave base on 2
	if err := f.svc.RollDice(ctx, "u1", "t1"); err != nil {
		t.Fatalf("roll: %v", err)
	}
	if n := countKind(f.pub.Events("t1"), "next"); n != 1 {
		t.Fatalf("turn announcement published before the dice delay, %d next events", n)
	}
	// jobs scheduled by the roll commit: announce first, then turn deadline
	f.delay.fire(t, f.delay.count()-2)
	if n := countKind(f.pub.Events("t1"), "next"); n != 2 {
		t.Fatalf("delayed announcement missing, %d next events", n)
	}
	if countKind(f.pub.Events("t1"), "rolledDice") != 1 {
		t.Fatalf("dice event missing: %v", kinds(f.pub.Events("t1")))
	}
}

func TestEndTableSettlesPot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	startedTable(t, f, "t1", []string{"u1", "u2"})

	// give seat 1 board progress so the winner is determined
	live, _ := f.tables.LoadTable(ctx, "t1")
	live.State.Positions[board.PawnID(1, 1)] = board.StartCell(1)
	if err := f.tables.SaveTable(ctx, live); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := f.svc.EndTable(ctx, "t1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if f.records.status != store.StatusFinished {
		t.Fatalf("record status = %q", f.records.status)
	}
	if len(f.records.winners) != 1 || f.records.winners[0] != "u1" {
		t.Fatalf("winners = %v, want [u1]", f.records.winners)
	}
	// pot = 2 x 100, single winner takes it all
	if got := f.wallet.credits["u1"]; got != 200 {
		t.Fatalf("u1 credited %d, want 200", got)
	}
	if _, err := f.tables.LoadTable(ctx, "t1"); err == nil {
		t.Fatal("finished table still in ephemeral store")
	}
	if _, err := f.tables.ActiveTable(ctx, "u2"); err == nil {
		t.Fatal("active-table pointer survived finish")
	}
}

func TestTournamentFinishRoutesToRoundSink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sink := &sinkCapture{}
	f.svc.SetRoundSink(sink)

	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 0, []string{"u1", "u2"}, 2)
	tbl.Info.TournamentID = "tour1"
	tbl.Info.RoundNo = 1
	f.seed(t, tbl)
	if err := f.svc.BeginTable(ctx, "t1"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := f.svc.EndTable(ctx, "t1"); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sink.rounds) != 1 {
		t.Fatalf("round sink got %d results, want 1", len(sink.rounds))
	}
	if sink.rounds[0].TournamentID != "tour1" || sink.rounds[0].RoundNo != 1 {
		t.Fatalf("round result misrouted: %+v", sink.rounds[0])
	}
	if len(f.wallet.credits) != 0 {
		t.Fatalf("tournament sub-table paid a pot: %v", f.wallet.credits)
	}
}

func TestLeaveReportsTournamentLoser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 0, []string{"u1", "u2", "u3"}, 2)
	tbl.Info.TournamentID = "tour1"
	f.seed(t, tbl)
	if err := f.svc.BeginTable(ctx, "t1"); err != nil {
		t.Fatalf("begin: %v", err)
	}

	if err := f.svc.Leave(ctx, "u2", "t1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(f.meta.losers) != 1 || f.meta.losers[0] != "u2" {
		t.Fatalf("losers = %v, want [u2]", f.meta.losers)
	}
	if _, err := f.tables.ActiveTable(ctx, "u2"); err == nil {
		t.Fatal("leaver still points at the table")
	}
	live, _ := f.tables.LoadTable(ctx, "t1")
	if !live.Player("u2").DidLeave {
		t.Fatal("leaver still seated as active")
	}
}

func TestVoluntarySkipRequiresTurn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	startedTable(t, f, "t1", []string{"u1", "u2"})

	if err := f.svc.SkipTurn(ctx, "u2", "t1"); err != game.ErrOutOfTurn {
		t.Fatalf("out-of-turn skip returned %v", err)
	}
	if err := f.svc.SkipTurn(ctx, "u1", "t1"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	live, _ := f.tables.LoadTable(ctx, "t1")
	if live.State.CurrentTurn != 2 {
		t.Fatalf("turn at seat %d after skip", live.State.CurrentTurn)
	}
}

func TestFreeTableConsumesFreeGames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tbl := game.NewTable("t1", "tt1", board.VariantClassic, 0, []string{"u1", "u2"}, 2)
	f.seed(t, tbl)

	if err := f.svc.Ready(ctx, "u1", "t1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if len(f.users.consumed) != 0 {
		t.Fatal("free game consumed before start")
	}
	if err := f.svc.Ready(ctx, "u2", "t1"); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if len(f.users.consumed) != 2 {
		t.Fatalf("consumed = %v, want both players", f.users.consumed)
	}
}

func TestActionOnMissingTable(t *testing.T) {
	f := newFixture(t)
	if err := f.svc.RollDice(context.Background(), "u1", "nope"); err != ErrTableNotFound {
		t.Fatalf("missing table returned %v", err)
	}
}
