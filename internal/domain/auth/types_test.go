package auth

import (
	"encoding/json"
	"testing"
)

func TestUserGroup_Institutional(t *testing.T) {
	if GroupVisitor.Institutional() {
		t.Fatalf("visitor must not be institutional")
	}
	for _, g := range []UserGroup{GroupFudanUndergraduate, GroupFudanPostgraduate, GroupFudanStaff} {
		if !g.Institutional() {
			t.Fatalf("expected %q to be institutional", g)
		}
	}
}

func TestParseInstitutionalGroup(t *testing.T) {
	if g, ok := ParseInstitutionalGroup(""); !ok || g != GroupFudanUndergraduate {
		t.Fatalf("empty input: got %q %v", g, ok)
	}
	if g, ok := ParseInstitutionalGroup(" Fudan_Staff "); !ok || g != GroupFudanStaff {
		t.Fatalf("mixed case input: got %q %v", g, ok)
	}
	if _, ok := ParseInstitutionalGroup("visitor"); ok {
		t.Fatalf("visitor must be rejected")
	}
}

func TestCookieJarArtifact(t *testing.T) {
	a := CookieJarArtifact([]string{" JSESSIONID=a ", "", "CASTGC=TGT-1"})
	if a.Kind != ArtifactCookieJar {
		t.Fatalf("unexpected kind %q", a.Kind)
	}
	if a.Value != "JSESSIONID=a; CASTGC=TGT-1" {
		t.Fatalf("unexpected value %q", a.Value)
	}
	if !CookieJarArtifact(nil).Empty() {
		t.Fatalf("expected empty artifact for no cookies")
	}
}

func TestUserRecord_JSONNames(t *testing.T) {
	b, err := json.Marshal(UserRecord{ID: "2023", Secret: "s", DisplayName: "n", Group: GroupVisitor})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"id":"2023","password":"s","name":"n","userGroup":"visitor"}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}

func TestOutcome_String(t *testing.T) {
	cases := map[Outcome]string{
		OutcomeGenericFailure:     "generic_failure",
		OutcomeWrongSecret:        "wrong_secret",
		OutcomeCaptchaRequired:    "captcha_required",
		OutcomeServiceUnavailable: "service_unavailable",
		OutcomeSuccess:            "success",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Fatalf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
