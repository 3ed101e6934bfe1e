// Package configbuild assembles the Nebula YAML configuration returned
// by POST /v1/client/config: the system's hot path, and the one place
// cert-version negotiation, CA-bundle filtering, and topology emission
// all meet.
package configbuild

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"nebulafleet.dev/models"
	"nebulafleet.dev/pkg/nebulayaml"
	"nebulafleet.dev/server/internal/certmanager"
	"nebulafleet.dev/server/internal/logging"
	"nebulafleet.dev/server/internal/repository"
)

type Clock func() time.Time

// Builder wires together every repository the 13-step algorithm touches.
type Builder struct {
	nodes         *repository.NodeRepository
	ipPools       *repository.IPPoolRepository
	ipAssignments *repository.IPAssignmentRepository
	cas           *repository.CARepository
	hostCerts     *repository.HostCertRepository
	groups        *repository.GroupRepository
	rulesets      *repository.FirewallRulesetRepository
	rules         *repository.FirewallRuleRepository
	settings      *repository.SettingsRepository
	certs         *certmanager.Manager
	now           Clock
}

func New(
	nodes *repository.NodeRepository,
	ipPools *repository.IPPoolRepository,
	ipAssignments *repository.IPAssignmentRepository,
	cas *repository.CARepository,
	hostCerts *repository.HostCertRepository,
	groups *repository.GroupRepository,
	rulesets *repository.FirewallRulesetRepository,
	rules *repository.FirewallRuleRepository,
	settings *repository.SettingsRepository,
	certs *certmanager.Manager,
	now Clock,
) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{
		nodes: nodes, ipPools: ipPools, ipAssignments: ipAssignments, cas: cas,
		hostCerts: hostCerts, groups: groups, rulesets: rulesets, rules: rules,
		settings: settings, certs: certs, now: now,
	}
}

// Request carries the node-reported fields from a /v1/client/config body.
type Request struct {
	PublicKeyPEM  string
	ClientVersion string
	NebulaVersion string
	OSType        models.OSType
}

// Result is the JSON body returned to the node agent.
type Result struct {
	Config          string
	ClientCertPEM   string
	CAChainPEMs     []string
	CertNotBefore   time.Time
	CertNotAfter    time.Time
	Lighthouse      bool
	KeyPath         string
}

// Build runs the full config-assembly algorithm for an already-resolved,
// already-authenticated, non-blocked node.
func (b *Builder) Build(ctx context.Context, node *models.Node, req Request) (*Result, error) {
	now := b.now()

	// Step 2: primary assignment and containing pool, derive cidr_prefix.
	primary, err := b.ipAssignments.Primary(ctx, node.ID, "")
	if err != nil {
		return nil, err
	}
	if primary == nil || primary.PoolID == nil {
		return nil, models.ErrPoolNotFound
	}
	pool, err := b.ipPools.Get(ctx, *primary.PoolID)
	if err != nil {
		return nil, err
	}
	cidrPrefix, err := prefixLength(pool.CIDR)
	if err != nil {
		return nil, err
	}

	// Step 3: active CA bundle.
	bundle, err := b.cas.IncludedInConfig(ctx, now)
	if err != nil {
		return nil, err
	}

	// Step 4: negotiate cert_version.
	globalSettings, err := b.settings.GetGlobalSettings(ctx)
	if err != nil {
		return nil, err
	}
	clientSupportsV2 := supportsV2(req.NebulaVersion)
	certVersion, err := negotiateCertVersion(globalSettings.CertVersion, node.IPVersion, clientSupportsV2)
	if err != nil {
		return nil, err
	}

	// Step 5: filter the CA bundle for the client.
	bundle, err = filterCABundle(bundle, clientSupportsV2)
	if err != nil {
		return nil, err
	}

	// Step 6: issue or reuse the host cert.
	groupNames, err := b.groups.ListForNode(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	allIPs, err := b.secondaryIPs(ctx, node.ID, cidrPrefix)
	if err != nil {
		return nil, err
	}
	hostCert, err := b.certs.IssueOrRotate(ctx, certmanager.IssueOrRotateParams{
		Node:         node,
		PublicKeyPEM: req.PublicKeyPEM,
		PrimaryIP:    primary.IPAddress,
		CIDRPrefix:   cidrPrefix,
		CertVersion:  certVersion,
		AllIPs:       allIPs,
		GroupNames:   groupNames,
	})
	if err != nil {
		return nil, err
	}

	// Step 7/8: static host map and lighthouse hosts list.
	lighthouses, err := b.nodes.ListLighthousesInPool(ctx, pool.ID)
	if err != nil {
		return nil, err
	}
	staticHostMap := map[string][]string{}
	var lighthouseHosts []string
	for _, lh := range lighthouses {
		if lh.ID == node.ID {
			continue
		}
		lhPrimary, err := b.ipAssignments.Primary(ctx, lh.ID, "")
		if err != nil {
			return nil, err
		}
		if lhPrimary == nil {
			continue
		}
		if lh.PublicIP != nil && *lh.PublicIP != "" {
			staticHostMap[lhPrimary.IPAddress] = []string{fmt.Sprintf("%s:%d", *lh.PublicIP, globalSettings.LighthousePort)}
		}
		lighthouseHosts = append(lighthouseHosts, lhPrimary.IPAddress)
	}
	if node.IsLighthouse {
		lighthouseHosts = nil
	}

	// Step 9: active revoked fingerprints.
	blocklist, err := b.hostCerts.ActiveRevokedFingerprints(ctx, now)
	if err != nil {
		return nil, err
	}

	// Step 10: OS-specific paths.
	paths := pathsFor(req.OSType)

	// Step 11: emit YAML.
	caBlock := concatCABundle(bundle)
	firewall, err := b.buildFirewall(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	var punchy *punchySection
	if globalSettings.PunchyEnabled {
		punchy = &punchySection{Punch: true, PunchBack: true, Respond: true, Delay: "1s", RespondDelay: "5s"}
	}

	doc := document{
		PKI: pkiSection{
			CA:                nebulayaml.Block(caBlock),
			Cert:              nebulayaml.Block(hostCert.PEM),
			Key:               paths.Key,
			Blocklist:         blocklist,
			DisconnectInvalid: true,
		},
		StaticHostMap: staticHostMap,
		Listen:        listenSection{Host: "0.0.0.0", Port: globalSettings.LighthousePort},
		Lighthouse: lighthouseSection{
			AmLighthouse: node.IsLighthouse,
			Hosts:        emptyIfNil(lighthouseHosts),
			Interval:     60,
		},
		Tun:      tunSection{Disabled: false, DropLocalBroadcast: false, DropMulticast: false, TxQueue: 500, MTU: 1300},
		Firewall: firewall,
		Punchy:   punchy,
		Relay: relaySection{
			AmRelay:   node.IsLighthouse,
			UseRelays: !node.IsLighthouse,
			Relays:    emptyIfNil(lighthouseHosts),
		},
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal nebula config: %w", err)
	}

	// Step 12: bookkeeping.
	if err := b.nodes.TouchConfigDownload(ctx, node.ID, req.ClientVersion, req.NebulaVersion, string(req.OSType), now); err != nil {
		return nil, err
	}

	logging.Info(ctx, "issued client config", zap.String(logging.FieldNodeID, node.ID), zap.String(logging.FieldCertID, hostCert.ID))

	caChainPEMs := make([]string, len(bundle))
	for i, ca := range bundle {
		caChainPEMs[i] = ca.PEMCert
	}

	// Step 13.
	return &Result{
		Config:        string(out),
		ClientCertPEM: hostCert.PEM,
		CAChainPEMs:   caChainPEMs,
		CertNotBefore: hostCert.NotBefore,
		CertNotAfter:  hostCert.NotAfter,
		Lighthouse:    node.IsLighthouse,
		KeyPath:       paths.Key,
	}, nil
}

func (b *Builder) secondaryIPs(ctx context.Context, nodeID string, cidrPrefix int) ([]string, error) {
	assignments, err := b.ipAssignments.ListByNode(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, a := range assignments {
		if a.IsPrimary {
			continue
		}
		out = append(out, fmt.Sprintf("%s/%d", a.IPAddress, cidrPrefix))
	}
	return out, nil
}

func (b *Builder) buildFirewall(ctx context.Context, nodeID string) (firewallSection, error) {
	rulesets, err := b.rulesets.ListForNode(ctx, nodeID)
	if err != nil {
		return firewallSection{}, err
	}
	if len(rulesets) == 0 {
		allowAny := firewallRuleDoc{Port: "any", Proto: "any"}
		return firewallSection{
			Inbound:  []firewallRuleDoc{allowAny},
			Outbound: []firewallRuleDoc{allowAny},
		}, nil
	}

	var fw firewallSection
	for _, rs := range rulesets {
		ruleRows, err := b.rules.ListByRuleset(ctx, rs.ID)
		if err != nil {
			return firewallSection{}, err
		}
		for _, rule := range ruleRows {
			doc := toFirewallRuleDoc(rule)
			if rule.Direction == "outbound" {
				fw.Outbound = append(fw.Outbound, doc)
			} else {
				fw.Inbound = append(fw.Inbound, doc)
			}
		}
	}
	return fw, nil
}

func toFirewallRuleDoc(rule *models.FirewallRule) firewallRuleDoc {
	doc := firewallRuleDoc{Port: rule.Port, Proto: rule.Proto}
	if rule.Host != nil {
		doc.Host = *rule.Host
	}
	if rule.CIDR != nil {
		doc.CIDR = *rule.CIDR
	}
	if rule.LocalCIDR != nil {
		doc.LocalCIDR = *rule.LocalCIDR
	}
	if rule.CAName != nil {
		doc.CAName = *rule.CAName
	}
	if rule.CASha != nil {
		doc.CASha = *rule.CASha
	}
	switch len(rule.GroupNames) {
	case 0:
	case 1:
		doc.Group = rule.GroupNames[0]
	default:
		doc.Groups = rule.GroupNames
	}
	return doc
}

func concatCABundle(bundle []*models.CA) string {
	var out string
	for _, ca := range bundle {
		out += ca.PEMCert
	}
	return out
}

func prefixLength(cidrStr string) (int, error) {
	_, network, err := net.ParseCIDR(cidrStr)
	if err != nil {
		return 0, fmt.Errorf("parse pool cidr %q: %w", cidrStr, err)
	}
	ones, _ := network.Mask.Size()
	return ones, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
