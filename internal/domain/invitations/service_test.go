package invitations

import (
	"context"
	"errors"
	"testing"
	"time"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/domain/scope"
)

type fakeRedeemer struct {
	res accesstokens.RedemptionResult
	err error
}

func (f fakeRedeemer) Redeem(context.Context, string, string) (accesstokens.RedemptionResult, error) {
	return f.res, f.err
}

type fakeGranter struct {
	calls []accessgrants.GrantInput
	err   error
}

func (f *fakeGranter) Grant(_ context.Context, in accessgrants.GrantInput) (accessgrants.Grant, error) {
	f.calls = append(f.calls, in)
	if f.err != nil {
		return accessgrants.Grant{}, f.err
	}
	return accessgrants.Grant{ID: "g-1", PatientID: in.PatientID, GrantedToID: in.GrantedToID}, nil
}

func doctorRedemption() accesstokens.RedemptionResult {
	return accesstokens.RedemptionResult{
		TokenID:  "t-1",
		IssuerID: "patient-1",
		Kind:     scope.KindDoctorInvite,
		Scope:    scope.NewSet(scope.MedicalRecords, scope.Documents),
		UsedAt:   time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC),
	}
}

func TestAccept_DecoupledByDefault(t *testing.T) {
	g := &fakeGranter{}
	svc := NewService(fakeRedeemer{res: doctorRedemption()}, g, Options{})

	out, err := svc.Accept(context.Background(), "ABCDEFGH", "doctor-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if out.Grant != nil || len(g.calls) != 0 {
		t.Fatalf("no grant expected without auto-grant")
	}
	if out.Redemption.IssuerID != "patient-1" {
		t.Fatalf("unexpected redemption: %#v", out.Redemption)
	}
}

func TestAccept_AutoGrantDoctorInvite(t *testing.T) {
	g := &fakeGranter{}
	svc := NewService(fakeRedeemer{res: doctorRedemption()}, g, Options{AutoGrant: true})

	out, err := svc.Accept(context.Background(), "ABCDEFGH", "doctor-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if out.Grant == nil || len(g.calls) != 1 {
		t.Fatalf("expected one follow-up grant")
	}
	in := g.calls[0]
	if in.PatientID != "patient-1" || in.GrantedToID != "doctor-1" || in.Role != accessgrants.RoleDoctor {
		t.Fatalf("unexpected grant input: %#v", in)
	}
	if in.Permission != accessgrants.PermissionRead || in.DataTypes != doctorRedemption().Scope {
		t.Fatalf("grant must carry token scope with default permission: %#v", in)
	}
}

func TestAccept_FamilyInviteNeverAutoGrants(t *testing.T) {
	res := doctorRedemption()
	res.Kind = scope.KindFamilyInvite
	g := &fakeGranter{}
	svc := NewService(fakeRedeemer{res: res}, g, Options{AutoGrant: true})

	out, err := svc.Accept(context.Background(), "ABCDEFGH", "relative-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if out.Grant != nil || len(g.calls) != 0 {
		t.Fatalf("family invites must not auto-grant")
	}
}

func TestAccept_PropagatesRedeemErrors(t *testing.T) {
	g := &fakeGranter{}
	svc := NewService(fakeRedeemer{err: accesserr.ErrAlreadyUsed}, g, Options{AutoGrant: true})

	_, err := svc.Accept(context.Background(), "ABCDEFGH", "doctor-1")
	if !errors.Is(err, accesserr.ErrAlreadyUsed) {
		t.Fatalf("expected ErrAlreadyUsed, got %v", err)
	}
	if len(g.calls) != 0 {
		t.Fatalf("no grant on failed redemption")
	}
}

func TestAccept_GrantFailureKeepsRedemption(t *testing.T) {
	g := &fakeGranter{err: errors.New("db down")}
	svc := NewService(fakeRedeemer{res: doctorRedemption()}, g, Options{AutoGrant: true})

	out, err := svc.Accept(context.Background(), "ABCDEFGH", "doctor-1")
	if err != nil {
		t.Fatalf("Accept error: %v", err)
	}
	if out.Grant != nil || out.Redemption.TokenID != "t-1" {
		t.Fatalf("unexpected acceptance: %#v", out)
	}
}
