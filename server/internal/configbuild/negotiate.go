package configbuild

import (
	"strings"

	"golang.org/x/mod/semver"

	"nebulafleet.dev/models"
)

// minV2Version is the lowest Nebula release that understands v2
// certificates.
const minV2Version = "v1.10.0"

// supportsV2 reports whether a reported Nebula version is new enough to
// parse v2 certs and CAs. An empty or unparseable version is treated as
// legacy (false), matching "unknown version means legacy".
func supportsV2(reported string) bool {
	v := normalizeVersion(reported)
	if v == "" {
		return false
	}
	return semver.Compare(v, minV2Version) >= 0
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// negotiateCertVersion implements the cert_version negotiation state
// machine: downgrade v2/hybrid to v1 for clients that cannot parse v2,
// but force v2 when the node's IP topology has no v1 representation.
func negotiateCertVersion(globalCertVersion models.CertVersion, nodeIPVersion models.IPVersion, clientSupportsV2 bool) (models.CertVersion, error) {
	requiresV2 := nodeIPVersion.RequiresV2()

	negotiated := globalCertVersion
	if !clientSupportsV2 {
		if negotiated == models.CertVersionV2 || negotiated == models.CertVersionHybrid {
			negotiated = models.CertVersionV1
		}
	}
	if requiresV2 && !clientSupportsV2 {
		return "", models.ErrIncompatibleClient
	}
	if requiresV2 {
		negotiated = models.CertVersionV2
	}
	return negotiated, nil
}

// filterCABundle strips v2 CAs from the bundle for clients that cannot
// parse them. Returns ErrNoCompatibleCA if nothing survives.
func filterCABundle(cas []*models.CA, clientSupportsV2 bool) ([]*models.CA, error) {
	if clientSupportsV2 {
		if len(cas) == 0 {
			return nil, models.ErrNoCompatibleCA
		}
		return cas, nil
	}
	var out []*models.CA
	for _, ca := range cas {
		if ca.CertVersion != models.CertVersionV2 {
			out = append(out, ca)
		}
	}
	if len(out) == 0 {
		return nil, models.ErrNoCompatibleCA
	}
	return out, nil
}
