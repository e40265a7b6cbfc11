package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestNativeID(t *testing.T) {
	tests := []struct {
		source, job string
		want        string
		ok          bool
	}{
		{"acme", "acme-123", "123", true},
		{"acme-eu", "acme-eu-4567", "4567", true},
		{"acme", "acme-", "", false},
		{"acme", "other-123", "", false},
		{"acme", "acme-a-b", "a-b", true},
	}
	for _, tt := range tests {
		got, ok := NativeID(tt.source, tt.job)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NativeID(%q, %q) = %q, %v; want %q, %v", tt.source, tt.job, got, ok, tt.want, tt.ok)
		}
	}
	if got, _ := NativeID("acme-eu", JobID("acme-eu", "99")); got != "99" {
		t.Errorf("JobID/NativeID roundtrip = %q", got)
	}
}

func TestDecodeSources_ArrayAndWrapper(t *testing.T) {
	for _, in := range []string{
		`[{"id":"acme","name":"Acme","type":"greenhouse","baseUrl":"","companyId":"acme"}]`,
		`{"sources":[{"id":"acme","name":"Acme","type":"greenhouse","baseUrl":"","companyId":"acme"}]}`,
	} {
		got, err := DecodeSources([]byte(in))
		if err != nil {
			t.Fatalf("DecodeSources(%s): %v", in, err)
		}
		if len(got) != 1 || got[0].Type != SourceGreenhouse || got[0].CompanyID != "acme" {
			t.Errorf("DecodeSources(%s) = %+v", in, got)
		}
	}

	if _, err := DecodeSources([]byte(`"nope"`)); err == nil {
		t.Error("DecodeSources: expected error for a JSON string")
	}
}

func TestDecodeProfessions_ArrayAndWrapper(t *testing.T) {
	for _, in := range []string{
		`[{"id":"be","name":"Backend","keywords":["backend","golang"]}]`,
		`{"professions":[{"id":"be","name":"Backend","keywords":["backend","golang"]}]}`,
	} {
		got, err := DecodeProfessions([]byte(in))
		if err != nil {
			t.Fatalf("DecodeProfessions(%s): %v", in, err)
		}
		if len(got) != 1 || got[0].Name != "Backend" || len(got[0].Keywords) != 2 {
			t.Errorf("DecodeProfessions(%s) = %+v", in, got)
		}
	}
}

func TestJobSource_Validate(t *testing.T) {
	ok := JobSource{ID: "acme", Name: "Acme", Type: SourceLever, CompanyID: "acme"}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate(%+v): %v", ok, err)
	}
	missing := ok
	missing.CompanyID = ""
	if err := missing.Validate(); err == nil {
		t.Error("Validate: expected error when companyId is missing")
	}
}

func TestFailureKind(t *testing.T) {
	httpErr := &HTTPError{StatusCode: 503, Err: ErrSourceUnavailable}
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("fetch: %w", httpErr), "unavailable"},
		{fmt.Errorf("decode: %w", ErrSourceSchema), "schema"},
		{fmt.Errorf("%w: %w", ErrStoreUnavailable, errors.New("dial tcp")), "store"},
		{fmt.Errorf("send: %w", ErrDeliveryFailure), "delivery"},
		{errors.New("unsupported source type"), "config"},
	}
	for _, tt := range tests {
		if got := FailureKind(tt.err); got != tt.want {
			t.Errorf("FailureKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSubscriber_Wants(t *testing.T) {
	s := Subscriber{ChatID: 1, Professions: []string{"Backend", "Data"}}
	if !s.Wants("Data") || s.Wants("Design") {
		t.Errorf("Wants mismatch for %+v", s)
	}
}
