package cases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/esteira-backend/internal/data/repos/testutil"
	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/dbctx"
)

func TestCaseRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCaseRepo(db, testutil.Logger(t))

	now := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	user := uuid.New()

	expired := testutil.SeedAssignedCase(t, ctx, tx, types.StatusAtribuido, user, now.Add(-80*time.Hour), now.Add(-time.Hour))
	soon := testutil.SeedAssignedCase(t, ctx, tx, types.StatusEmAtendimento, user, now.Add(-70*time.Hour), now.Add(2*time.Hour))
	later := testutil.SeedAssignedCase(t, ctx, tx, types.StatusEmAtendimento, user, now, now.Add(30*time.Hour))

	got, err := repo.GetByID(dbc, expired.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got.Version != 1 || len(got.AssignmentHistory) != 1 || !got.HeldBy(user) {
		t.Fatalf("GetByID: unexpected row %+v", got)
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): want=nil got=%v err=%v", missing, err)
	}

	rows, err := repo.ListExpired(dbc, now, 0)
	if err != nil {
		t.Fatalf("ListExpired: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != expired.ID {
		t.Fatalf("ListExpired: want=[%s] got=%d rows", expired.ID, len(rows))
	}

	rows, err = repo.ListExpiringBetween(dbc, now, now.Add(4*time.Hour))
	if err != nil {
		t.Fatalf("ListExpiringBetween: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != soon.ID {
		t.Fatalf("ListExpiringBetween: want=[%s] got=%d rows", soon.ID, len(rows))
	}
	_ = later

	// CAS: a stale version must not write.
	ok, err := repo.UpdateFieldsCAS(dbc, soon.ID, soon.Version+5, map[string]interface{}{"status": string(types.StatusCalculoPendente)})
	if err != nil || ok {
		t.Fatalf("UpdateFieldsCAS(stale): want=false got=%v err=%v", ok, err)
	}
	ok, err = repo.UpdateFieldsCAS(dbc, soon.ID, soon.Version, map[string]interface{}{"status": string(types.StatusCalculoPendente)})
	if err != nil || !ok {
		t.Fatalf("UpdateFieldsCAS: want=true got=%v err=%v", ok, err)
	}
	locked, err := repo.LockByID(dbc, soon.ID)
	if err != nil || locked == nil {
		t.Fatalf("LockByID: got=%v err=%v", locked, err)
	}
	if locked.Status != types.StatusCalculoPendente || locked.Version != soon.Version+1 {
		t.Fatalf("after CAS: want=%s/v%d got=%s/v%d", types.StatusCalculoPendente, soon.Version+1, locked.Status, locked.Version)
	}
}

func TestCaseRepo_FindOpenByClient(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCaseRepo(db, testutil.Logger(t))

	client := testutil.SeedClient(t, ctx, tx, "")
	testutil.SeedCase(t, ctx, tx, client.ID, types.StatusContratoEfetivado)

	open, err := repo.FindOpenByClient(dbc, client.ID)
	if err != nil || open != nil {
		t.Fatalf("FindOpenByClient(only terminal): want=nil got=%v err=%v", open, err)
	}

	c := testutil.SeedCase(t, ctx, tx, client.ID, types.StatusNovo)
	open, err = repo.FindOpenByClient(dbc, client.ID)
	if err != nil || open == nil || open.ID != c.ID {
		t.Fatalf("FindOpenByClient: want=%s got=%v err=%v", c.ID, open, err)
	}
}

func TestCaseRepo_OpenCaseIndex(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewCaseRepo(db, testutil.Logger(t))

	client := testutil.SeedClient(t, ctx, db, "")
	testutil.SeedCase(t, ctx, db, client.ID, types.StatusNovo)

	err := repo.Create(dbctx.Context{Ctx: ctx}, &types.Case{ClientID: client.ID, Status: types.StatusNovo, Source: types.SourceImport})
	if !IsUniqueViolation(err, "idx_case_record_open_client") {
		t.Fatalf("second open case: want unique violation got %v", err)
	}

	// A closed case does not count against the index.
	if err := repo.Create(dbctx.Context{Ctx: ctx}, &types.Case{ClientID: client.ID, Status: types.StatusCasoCancelado, Source: types.SourceImport}); err != nil {
		t.Fatalf("terminal case: %v", err)
	}
}

func TestClientRepo_CreateIfAbsent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewClientRepo(db, testutil.Logger(t))
	enrollments := NewEnrollmentRepo(db, testutil.Logger(t))

	first := &types.Client{CPF: "00012345678", Name: "Ana"}
	created, err := repo.CreateIfAbsent(dbc, first)
	if err != nil || !created {
		t.Fatalf("CreateIfAbsent: want=true got=%v err=%v", created, err)
	}
	created, err = repo.CreateIfAbsent(dbc, &types.Client{CPF: "00012345678", Name: "Ana B"})
	if err != nil || created {
		t.Fatalf("CreateIfAbsent(dup): want=false got=%v err=%v", created, err)
	}
	got, err := repo.GetByCPF(dbc, "00012345678")
	if err != nil || got == nil || got.ID != first.ID || got.Name != "Ana" {
		t.Fatalf("GetByCPF: want=%s got=%+v err=%v", first.ID, got, err)
	}

	e := &types.ClientEnrollment{ClientID: first.ID, Matricula: "998877", Orgao: "SEDUC"}
	if created, err := enrollments.CreateIfAbsent(dbc, e); err != nil || !created {
		t.Fatalf("enrollment CreateIfAbsent: want=true got=%v err=%v", created, err)
	}
	if created, err := enrollments.CreateIfAbsent(dbc, &types.ClientEnrollment{ClientID: first.ID, Matricula: "998877"}); err != nil || created {
		t.Fatalf("enrollment CreateIfAbsent(dup): want=false got=%v err=%v", created, err)
	}
	list, err := enrollments.ListByClient(dbc, first.ID)
	if err != nil || len(list) != 1 || list[0].Orgao != "SEDUC" {
		t.Fatalf("ListByClient: got=%v err=%v", list, err)
	}
}

func TestCaseEventRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCaseEventRepo(db, testutil.Logger(t))

	client := testutil.SeedClient(t, ctx, tx, "")
	c := testutil.SeedCase(t, ctx, tx, client.ID, types.StatusNovo)
	user := uuid.New()
	now := time.Now().UTC()

	var events []*types.CaseEvent
	for i, typ := range []string{types.EventAssignmentClaimed, types.EventAssignmentClaimed, types.EventAssignmentExpired} {
		ev, err := types.NewCaseEvent(c.ID, typ, types.AssignmentPayload{UserID: user}, &user, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("NewCaseEvent: %v", err)
		}
		events = append(events, ev)
	}
	old, _ := types.NewCaseEvent(c.ID, types.EventAssignmentReleased, types.AssignmentPayload{UserID: user}, nil, now.Add(-10*24*time.Hour))
	events = append(events, old)
	if err := repo.Append(dbc, events...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	list, err := repo.ListByCase(dbc, c.ID)
	if err != nil || len(list) != 4 {
		t.Fatalf("ListByCase: want=4 got=%d err=%v", len(list), err)
	}
	if list[0].Type != types.EventAssignmentReleased {
		t.Fatalf("ListByCase order: want=%s first got=%s", types.EventAssignmentReleased, list[0].Type)
	}

	since, err := repo.ListByTypesSince(dbc, []string{types.EventAssignmentClaimed, types.EventAssignmentExpired}, now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("ListByTypesSince: %v", err)
	}
	if len(since) != 3 {
		t.Fatalf("ListByTypesSince: want=3 got=%d", len(since))
	}
}
