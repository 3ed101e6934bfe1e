package configbuild

import (
	"testing"

	"nebulafleet.dev/models"
)

func TestSupportsV2(t *testing.T) {
	cases := []struct {
		version string
		want    bool
	}{
		{"1.10.0", true},
		{"1.11.2", true},
		{"1.9.7", false},
		{"", false},
		{"garbage", false},
	}
	for _, tc := range cases {
		if got := supportsV2(tc.version); got != tc.want {
			t.Errorf("supportsV2(%q) = %v, want %v", tc.version, got, tc.want)
		}
	}
}

func TestNegotiateCertVersion_DowngradesForLegacyClient(t *testing.T) {
	got, err := negotiateCertVersion(models.CertVersionV2, models.IPVersionIPv4Only, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.CertVersionV1 {
		t.Errorf("got %q, want v1", got)
	}
}

func TestNegotiateCertVersion_HybridDowngradesForLegacyClient(t *testing.T) {
	got, err := negotiateCertVersion(models.CertVersionHybrid, models.IPVersionIPv4Only, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.CertVersionV1 {
		t.Errorf("got %q, want v1", got)
	}
}

func TestNegotiateCertVersion_RequiresV2Fails(t *testing.T) {
	_, err := negotiateCertVersion(models.CertVersionV1, models.IPVersionMultiIPv4, false)
	if err != models.ErrIncompatibleClient {
		t.Errorf("err = %v, want ErrIncompatibleClient", err)
	}
}

func TestNegotiateCertVersion_RequiresV2ForcesV2(t *testing.T) {
	got, err := negotiateCertVersion(models.CertVersionV1, models.IPVersionDualStack, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.CertVersionV2 {
		t.Errorf("got %q, want v2 forced by topology", got)
	}
}

func TestNegotiateCertVersion_GlobalV1Stays(t *testing.T) {
	got, err := negotiateCertVersion(models.CertVersionV1, models.IPVersionIPv4Only, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != models.CertVersionV1 {
		t.Errorf("got %q, want v1", got)
	}
}

func TestFilterCABundle_StripsV2ForLegacyClient(t *testing.T) {
	bundle := []*models.CA{
		{ID: "ca1", CertVersion: models.CertVersionV1},
		{ID: "ca2", CertVersion: models.CertVersionV2},
	}
	out, err := filterCABundle(bundle, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].ID != "ca1" {
		t.Errorf("expected only v1 CA to survive, got %+v", out)
	}
}

func TestFilterCABundle_NoCompatibleCA(t *testing.T) {
	bundle := []*models.CA{{ID: "ca2", CertVersion: models.CertVersionV2}}
	_, err := filterCABundle(bundle, false)
	if err != models.ErrNoCompatibleCA {
		t.Errorf("err = %v, want ErrNoCompatibleCA", err)
	}
}

func TestFilterCABundle_EmptyBundleForV2Client(t *testing.T) {
	_, err := filterCABundle(nil, true)
	if err != models.ErrNoCompatibleCA {
		t.Errorf("err = %v, want ErrNoCompatibleCA", err)
	}
}
