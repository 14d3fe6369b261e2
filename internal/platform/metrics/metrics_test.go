package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/domain/accesserr"
	"patient-access/internal/domain/accesstokens"
	"patient-access/internal/domain/scope"
)

type stubRedeemer struct{ err error }

func (s stubRedeemer) Redeem(ctx context.Context, code, redeemerID string) (accesstokens.RedemptionResult, error) {
	return accesstokens.RedemptionResult{}, s.err
}

type stubChecker bool

func (s stubChecker) HasAccess(context.Context, string, string, scope.Label, accessgrants.Permission) bool {
	return bool(s)
}

func TestRedeemOutcome(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "success"},
		{accesserr.ErrNotFound, "not_found"},
		{accesserr.ErrAlreadyUsed, "already_used"},
		{accesserr.ErrExpired, "expired"},
		{accesserr.ErrRateLimited, "rate_limited"},
		{accesserr.Validation("empty code"), "invalid"},
		{fmt.Errorf("x: %w", accesserr.ErrPersistence), "error"},
	}
	for _, tc := range cases {
		if got := RedeemOutcome(tc.err); got != tc.want {
			t.Fatalf("%v: expected %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestInstrumentation_Exposed(t *testing.T) {
	m := New()

	r := m.InstrumentRedeemer(stubRedeemer{err: accesserr.ErrExpired})
	_, _ = r.Redeem(context.Background(), "ABCDEFGH", "doctor-1")
	_, _ = m.InstrumentRedeemer(stubRedeemer{}).Redeem(context.Background(), "ABCDEFGH", "doctor-1")

	c := m.InstrumentChecker(stubChecker(false))
	if c.HasAccess(context.Background(), "doctor-1", "patient-1", scope.Documents, accessgrants.PermissionRead) {
		t.Fatalf("decorator must not change the decision")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`patient_access_token_redemptions_total{outcome="expired"} 1`,
		`patient_access_token_redemptions_total{outcome="success"} 1`,
		`patient_access_checks_total{result="denied",scope="documents"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}
