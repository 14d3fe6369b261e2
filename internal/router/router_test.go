package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"patient-access/internal/adapters/ratelimit"
	"patient-access/internal/domain/accessgrants"
	"patient-access/internal/platform/metrics"
	"patient-access/internal/router"
)

func newServer(t *testing.T, opts router.Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(router.NewRouter(opts))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_InviteRedeemCheckRevoke(t *testing.T) {
	ts := newServer(t, router.Options{
		AutoGrant:         true,
		DefaultPermission: accessgrants.PermissionRead,
	})

	patientID := "patient-1"
	doctorID := "doctor-1"

	// 1) Paciente carga su perfil
	{
		st, body := doReq(t, ts.URL, "PUT", "/me/profile", patientID, map[string]any{
			"name":  "Ana Pérez",
			"email": "ana@example.com",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 put profile, got %d body=%s", st, body)
		}
	}

	// 2) Paciente emite invitación para su médico
	code, tokenID := createToken(t, ts.URL, patientID, map[string]any{
		"kind":           "doctor_invite",
		"recipient_hint": "Dr. House",
		"scope":          []string{"medical_records", "personal_info"},
	})
	if len(code) != 8 {
		t.Fatalf("expected 8-char code, got %q", code)
	}

	// 3) Antes de redimir el médico no tiene acceso
	if checkAccess(t, ts.URL, doctorID, patientID, "medical_records", "read") {
		t.Fatalf("expected no access before redeem")
	}

	// 4) Médico redime; auto-grant crea el grant de lectura
	{
		st, body := doReq(t, ts.URL, "POST", "/invitations/redeem", doctorID, map[string]any{"code": code})
		if st != http.StatusOK {
			t.Fatalf("expected 200 redeem, got %d body=%s", st, body)
		}
		var out struct {
			Redemption struct {
				TokenID  string   `json:"token_id"`
				IssuerID string   `json:"issuer_id"`
				Scope    []string `json:"scope"`
			} `json:"redemption"`
			Grant *struct {
				ID         string `json:"id"`
				Permission string `json:"permission"`
			} `json:"grant"`
		}
		mustDecode(t, body, &out)
		if out.Redemption.TokenID != tokenID || out.Redemption.IssuerID != patientID {
			t.Fatalf("unexpected redemption %+v", out.Redemption)
		}
		if out.Grant == nil || out.Grant.Permission != "read" {
			t.Fatalf("expected auto grant with read, got %+v", out.Grant)
		}
	}

	// 5) Segundo canje del mismo código
	{
		st, body := doReq(t, ts.URL, "POST", "/invitations/redeem", "doctor-2", map[string]any{"code": code})
		if st != http.StatusConflict {
			t.Fatalf("expected 409 on reuse, got %d body=%s", st, body)
		}
	}

	// 6) Acceso exacto: solo las categorías del token y solo lectura
	if !checkAccess(t, ts.URL, doctorID, patientID, "medical_records", "read") {
		t.Fatalf("expected read on medical_records")
	}
	if checkAccess(t, ts.URL, doctorID, patientID, "documents", "read") {
		t.Fatalf("documents must not be granted")
	}
	if checkAccess(t, ts.URL, doctorID, patientID, "medical_records", "write") {
		t.Fatalf("write must not be granted")
	}

	// 7) El médico ve al paciente con identidad (personal_info)
	{
		st, body := doReq(t, ts.URL, "GET", "/me/grants", doctorID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 /me/grants, got %d body=%s", st, body)
		}
		var out []struct {
			Patient struct {
				PatientID string `json:"patient_id"`
				Name      string `json:"name"`
			} `json:"patient"`
		}
		mustDecode(t, body, &out)
		if len(out) != 1 || out[0].Patient.Name != "Ana Pérez" {
			t.Fatalf("unexpected shared list %s", body)
		}
	}

	// 8) Lista de tokens del paciente
	{
		st, body := doReq(t, ts.URL, "GET", "/tokens", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 list tokens, got %d", st)
		}
		var out struct {
			Items  []map[string]any `json:"items"`
			Active int              `json:"active"`
			Used   int              `json:"used"`
		}
		mustDecode(t, body, &out)
		if len(out.Items) != 1 || out.Active != 0 || out.Used != 1 {
			t.Fatalf("unexpected token list %s", body)
		}
		if _, leaked := out.Items[0]["code_hash"]; leaked {
			t.Fatalf("code hash must not be exposed")
		}
	}

	// 9) Revocación: efecto inmediato
	grantID := firstGrantID(t, ts.URL, patientID)
	{
		st, body := doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", doctorID, nil)
		if st != http.StatusForbidden {
			t.Fatalf("expected 403 revoke by recipient, got %d body=%s", st, body)
		}
		st, body = doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 revoke, got %d body=%s", st, body)
		}
		st, _ = doReq(t, ts.URL, "POST", "/grants/"+grantID+"/revoke", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected idempotent revoke, got %d", st)
		}
	}
	if checkAccess(t, ts.URL, doctorID, patientID, "medical_records", "read") {
		t.Fatalf("expected no access after revoke")
	}

	// 10) La auditoría conserva el grant revocado
	{
		st, body := doReq(t, ts.URL, "GET", "/grants", patientID, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 audit, got %d", st)
		}
		var out []struct {
			Status string `json:"status"`
		}
		mustDecode(t, body, &out)
		if len(out) != 1 || out[0].Status != "revoked" {
			t.Fatalf("unexpected audit %s", body)
		}
	}
}

func TestHTTP_ExplicitGrant_WriteLevel(t *testing.T) {
	ts := newServer(t, router.Options{})

	st, body := doReq(t, ts.URL, "POST", "/grants", "patient-1", map[string]any{
		"granted_to_id": "lab-1",
		"role":          "laboratory",
		"permission":    "write",
		"data_types":    []string{"health_data"},
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 grant, got %d body=%s", st, body)
	}

	if !checkAccess(t, ts.URL, "lab-1", "patient-1", "health_data", "write") {
		t.Fatalf("expected write on health_data")
	}
	if !checkAccess(t, ts.URL, "lab-1", "patient-1", "health_data", "read") {
		t.Fatalf("write must satisfy read")
	}
	if !checkAccess(t, ts.URL, "lab-1", "patient-1", "HEALTH_DATA", "WRITE") {
		t.Fatalf("scope and level must be case-insensitive")
	}
	if checkAccess(t, ts.URL, "lab-1", "patient-1", "family_history", "read") {
		t.Fatalf("family_history must not be granted")
	}

	// sin personal_info no se expone identidad
	st, body = doReq(t, ts.URL, "GET", "/me/grants", "lab-1", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d", st)
	}
	var out []struct {
		Patient map[string]any `json:"patient"`
	}
	mustDecode(t, body, &out)
	if len(out) != 1 || out[0].Patient["name"] != nil {
		t.Fatalf("unexpected identity exposure %s", body)
	}
}

func TestHTTP_Validation(t *testing.T) {
	ts := newServer(t, router.Options{})

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		want   int
	}{
		{"no user", "GET", "/tokens", "", nil, http.StatusUnauthorized},
		{"unknown scope", "POST", "/tokens", "patient-1", map[string]any{"scope": []string{"xrays"}}, http.StatusBadRequest},
		{"empty scope", "POST", "/tokens", "patient-1", map[string]any{"scope": []string{}}, http.StatusBadRequest},
		{"preset violation", "POST", "/tokens", "patient-1", map[string]any{"kind": "family_invite", "scope": []string{"documents"}}, http.StatusBadRequest},
		{"ttl and expires", "POST", "/tokens", "patient-1", map[string]any{"scope": []string{"documents"}, "ttl_hours": 2, "expires_at": "2099-01-01T00:00:00Z"}, http.StatusBadRequest},
		{"ttl overflow", "POST", "/tokens", "patient-1", map[string]any{"scope": []string{"documents"}, "ttl_hours": 5124096}, http.StatusBadRequest},
		{"past expiry", "POST", "/tokens", "patient-1", map[string]any{"scope": []string{"documents"}, "expires_at": "2000-01-01T00:00:00Z"}, http.StatusBadRequest},
		{"unknown field", "POST", "/tokens", "patient-1", map[string]any{"scope": []string{"documents"}, "owner": "x"}, http.StatusBadRequest},
		{"unknown code", "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": "ZZZZZZZZ"}, http.StatusNotFound},
		{"malformed code", "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": "0O1I"}, http.StatusNotFound},
		{"bad role", "POST", "/grants", "patient-1", map[string]any{"granted_to_id": "x", "role": "nurse", "permission": "read", "data_types": []string{"documents"}}, http.StatusBadRequest},
		{"self grant", "POST", "/grants", "patient-1", map[string]any{"granted_to_id": "patient-1", "role": "doctor", "permission": "read", "data_types": []string{"documents"}}, http.StatusBadRequest},
		{"revoke missing", "POST", "/grants/nope/revoke", "patient-1", nil, http.StatusNotFound},
		{"check bad scope", "GET", "/access/check?patient_id=p&scope=xrays", "doctor-1", nil, http.StatusBadRequest},
		{"check unknown level", "GET", "/access/check?patient_id=p&scope=documents&level=admin", "doctor-1", nil, http.StatusBadRequest},
		{"check full level", "GET", "/access/check?patient_id=p&scope=documents&level=full", "doctor-1", nil, http.StatusBadRequest},
		{"profile without name", "PUT", "/me/profile", "patient-1", map[string]any{"name": ""}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		st, body := doReq(t, ts.URL, tc.method, tc.path, tc.user, tc.body)
		if st != tc.want {
			t.Fatalf("%s: expected %d, got %d body=%s", tc.name, tc.want, st, body)
		}
	}
}

func TestHTTP_DeleteToken(t *testing.T) {
	ts := newServer(t, router.Options{})

	code, tokenID := createToken(t, ts.URL, "patient-1", map[string]any{
		"scope":     []string{"documents"},
		"ttl_hours": 24,
	})

	if st, _ := doReq(t, ts.URL, "DELETE", "/tokens/"+tokenID, "doctor-1", nil); st != http.StatusForbidden {
		t.Fatalf("expected 403 delete by non issuer, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/tokens/"+tokenID, "patient-1", nil); st != http.StatusNoContent {
		t.Fatalf("expected 204 delete, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/tokens/"+tokenID, "patient-1", nil); st != http.StatusNoContent {
		t.Fatalf("expected idempotent delete, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": code}); st != http.StatusNotFound {
		t.Fatalf("expected 404 redeeming deleted token, got %d", st)
	}
}

func TestHTTP_IssuerCannotRedeemOwnToken(t *testing.T) {
	ts := newServer(t, router.Options{})

	code, _ := createToken(t, ts.URL, "patient-1", map[string]any{
		"scope":     []string{"documents"},
		"ttl_hours": 24,
	})

	st, body := doReq(t, ts.URL, "POST", "/invitations/redeem", "patient-1", map[string]any{"code": code})
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for issuer redeem, got %d body=%s", st, body)
	}

	// el intento del emisor no consume el token
	if st, body := doReq(t, ts.URL, "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": code}); st != http.StatusOK {
		t.Fatalf("expected 200 redeem by recipient, got %d body=%s", st, body)
	}
}

func TestHTTP_RedeemRateLimited(t *testing.T) {
	ts := newServer(t, router.Options{
		Limiter: ratelimit.NewMemoryLimiter(2, time.Minute),
	})

	for i := 0; i < 2; i++ {
		st, _ := doReq(t, ts.URL, "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": "ZZZZZZZZ"})
		if st != http.StatusNotFound {
			t.Fatalf("attempt %d: expected 404, got %d", i+1, st)
		}
	}
	st, _ := doReq(t, ts.URL, "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": "ZZZZZZZZ"})
	if st != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", st)
	}
}

func TestHTTP_HealthAndReady(t *testing.T) {
	ts := newServer(t, router.Options{})

	for _, p := range []string{"/health", "/readyz"} {
		if st, _ := doReq(t, ts.URL, "GET", p, "", nil); st != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", p, st)
		}
	}
}

func TestHTTP_Metrics(t *testing.T) {
	ts := newServer(t, router.Options{Metrics: metrics.New()})

	_, _ = doReq(t, ts.URL, "POST", "/invitations/redeem", "doctor-1", map[string]any{"code": "ZZZZZZZZ"})
	_ = checkAccess(t, ts.URL, "doctor-1", "patient-1", "documents", "read")

	st, body := doReq(t, ts.URL, "GET", "/metrics", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 /metrics, got %d", st)
	}
	for _, want := range []string{
		`patient_access_token_redemptions_total{outcome="not_found"} 1`,
		`patient_access_checks_total{result="denied",scope="documents"} 1`,
		`route="/invitations/redeem"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("missing %q in /metrics", want)
		}
	}
}

func createToken(t *testing.T, baseURL, userID string, payload map[string]any) (string, string) {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/tokens", userID, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create token, got %d body=%s", st, body)
	}
	var out struct {
		Code  string `json:"code"`
		Token struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"token"`
	}
	mustDecode(t, body, &out)
	if out.Code == "" || out.Token.ID == "" || out.Token.Status != "active" {
		t.Fatalf("unexpected create token response %s", body)
	}
	return out.Code, out.Token.ID
}

func checkAccess(t *testing.T, baseURL, userID, patientID, scope, level string) bool {
	t.Helper()

	q := url.Values{}
	q.Set("patient_id", patientID)
	q.Set("scope", scope)
	q.Set("level", level)

	st, body := doReq(t, baseURL, "GET", "/access/check?"+q.Encode(), userID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 access check, got %d body=%s", st, body)
	}
	var out struct {
		Allowed bool `json:"allowed"`
	}
	mustDecode(t, body, &out)
	return out.Allowed
}

func firstGrantID(t *testing.T, baseURL, patientID string) string {
	t.Helper()

	st, body := doReq(t, baseURL, "GET", "/grants", patientID, nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 list grants, got %d", st)
	}
	var out []struct {
		ID string `json:"id"`
	}
	mustDecode(t, body, &out)
	if len(out) == 0 {
		t.Fatalf("expected at least one grant")
	}
	return out[0].ID
}

func mustDecode(t *testing.T, body []byte, dst any) {
	t.Helper()
	if err := json.Unmarshal(body, dst); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
}

func doReq(t *testing.T, baseURL, method, path, debugUserID string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if debugUserID != "" {
		req.Header.Set("X-Debug-User-ID", debugUserID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
