package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/project-mc/server/internal/domain/appointment"
	"github.com/project-mc/server/internal/drive"
	"github.com/project-mc/server/internal/realtime"
)

func newAppointmentFixture() (*AppointmentService, *memAppointmentRepo, *drive.MemoryStore) {
	repo := newMemAppointmentRepo()
	store := drive.NewMemoryStore()
	svc := NewAppointmentService(repo, store, newTestAudit(), realtime.NopNotifier{}, testCollector, zap.NewNop())
	return svc, repo, store
}

func TestCreateAppointmentValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newAppointmentFixture()
	owner := uuid.New()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		cmd     appointment.CreateAppointmentCommand
		wantErr error
	}{
		{
			name:    "empty title",
			cmd:     appointment.CreateAppointmentCommand{OwnerID: owner, Title: "  ", StartAt: base, EndAt: base.Add(time.Hour)},
			wantErr: appointment.ErrTitleRequired,
		},
		{
			name:    "end before start",
			cmd:     appointment.CreateAppointmentCommand{OwnerID: owner, Title: "X", StartAt: base, EndAt: base.Add(-time.Hour)},
			wantErr: appointment.ErrInvalidTimeRange,
		},
		{
			name:    "zero duration",
			cmd:     appointment.CreateAppointmentCommand{OwnerID: owner, Title: "X", StartAt: base, EndAt: base},
			wantErr: appointment.ErrInvalidTimeRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAppointment(ctx, &tt.cmd, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetDayView(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newAppointmentFixture()
	owner := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mk := func(title string, startHour, endHour int, allDay bool) *appointment.Appointment {
		t.Helper()
		a, err := svc.CreateAppointment(ctx, &appointment.CreateAppointmentCommand{
			OwnerID: owner,
			Title:   title,
			StartAt: day.Add(time.Duration(startHour) * time.Hour),
			EndAt:   day.Add(time.Duration(endHour) * time.Hour),
			AllDay:  allDay,
		}, "")
		if err != nil {
			t.Fatalf("CreateAppointment %s: %v", title, err)
		}
		return a
	}

	// Three mutually overlapping, one detached, one all-day.
	a := mk("a", 9, 12, false)
	b := mk("b", 10, 13, false)
	c := mk("c", 11, 14, false)
	d := mk("d", 16, 17, false)
	allDay := mk("all-day", 0, 24, true)

	view, err := svc.GetDayView(ctx, owner, nil, day)
	if err != nil {
		t.Fatalf("GetDayView: %v", err)
	}

	if len(view.Appointments) != 5 {
		t.Fatalf("Appointments = %d, want 5", len(view.Appointments))
	}
	if _, ok := view.Layout[allDay.ID.String()]; ok {
		t.Error("all-day entry should not receive a column assignment")
	}

	for _, id := range []uuid.UUID{a.ID, b.ID, c.ID} {
		asn, ok := view.Layout[id.String()]
		if !ok {
			t.Fatalf("no layout for %s", id)
		}
		if asn.ClusterColumns != 3 {
			t.Errorf("ClusterColumns for %s = %d, want 3", id, asn.ClusterColumns)
		}
	}

	asn := view.Layout[d.ID.String()]
	if asn.Column != 0 || asn.ClusterColumns != 1 {
		t.Errorf("detached event layout = %+v, want column 0 width 1", asn)
	}
}

func TestGetDayViewExcludesOtherScopes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newAppointmentFixture()
	owner := uuid.New()
	patient := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	if _, err := svc.CreateAppointment(ctx, &appointment.CreateAppointmentCommand{
		OwnerID: owner, Title: "general", StartAt: day.Add(9 * time.Hour), EndAt: day.Add(10 * time.Hour),
	}, ""); err != nil {
		t.Fatalf("create general: %v", err)
	}
	if _, err := svc.CreateAppointment(ctx, &appointment.CreateAppointmentCommand{
		OwnerID: owner, PatientID: &patient, Title: "scoped", StartAt: day.Add(9 * time.Hour), EndAt: day.Add(10 * time.Hour),
	}, ""); err != nil {
		t.Fatalf("create scoped: %v", err)
	}

	general, err := svc.GetDayView(ctx, owner, nil, day)
	if err != nil {
		t.Fatalf("GetDayView general: %v", err)
	}
	if len(general.Appointments) != 1 || general.Appointments[0].Title != "general" {
		t.Errorf("general view = %+v, want only the general entry", general.Appointments)
	}

	scoped, err := svc.GetDayView(ctx, owner, &patient, day)
	if err != nil {
		t.Fatalf("GetDayView scoped: %v", err)
	}
	if len(scoped.Appointments) != 1 || scoped.Appointments[0].Title != "scoped" {
		t.Errorf("scoped view = %+v, want only the scoped entry", scoped.Appointments)
	}
}

func TestAppointmentAttachments(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, store := newAppointmentFixture()
	owner := uuid.New()
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	a, err := svc.CreateAppointment(ctx, &appointment.CreateAppointmentCommand{
		OwnerID: owner, Title: "checkup", StartAt: day, EndAt: day.Add(time.Hour),
	}, "")
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	f, err := svc.AttachFile(ctx, owner, a.ID, "referral.pdf", strings.NewReader("pdf"), "application/pdf", "")
	if err != nil {
		t.Fatalf("AttachFile: %v", err)
	}
	wantKey := owner.String() + "/appointments/" + a.ID.String() + "/referral.pdf"
	if f.StorageKey != wantKey {
		t.Errorf("StorageKey = %q, want %q", f.StorageKey, wantKey)
	}
	if _, err := store.Fetch(ctx, wantKey); err != nil {
		t.Errorf("blob not stored: %v", err)
	}

	url, err := svc.FileDownloadURL(ctx, owner, a.ID, f.ID)
	if err != nil {
		t.Fatalf("FileDownloadURL: %v", err)
	}
	if url == "" {
		t.Error("empty download url")
	}

	if err := svc.DeleteAppointment(ctx, owner, a.ID, ""); err != nil {
		t.Fatalf("DeleteAppointment: %v", err)
	}
	if _, err := store.Fetch(ctx, wantKey); !errors.Is(err, drive.ErrObjectNotFound) {
		t.Errorf("attachment blob survived appointment delete, err = %v", err)
	}
}

func TestAppointmentOwnerIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc, _, _ := newAppointmentFixture()
	owner := uuid.New()
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	a, err := svc.CreateAppointment(ctx, &appointment.CreateAppointmentCommand{
		OwnerID: owner, Title: "private", StartAt: day, EndAt: day.Add(time.Hour),
	}, "")
	if err != nil {
		t.Fatalf("CreateAppointment: %v", err)
	}

	if _, err := svc.GetAppointment(ctx, uuid.New(), a.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Errorf("cross-owner read err = %v, want ErrAppointmentNotFound", err)
	}
}
