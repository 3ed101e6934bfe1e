package configbuild

import "nebulafleet.dev/pkg/nebulayaml"

// document is the Nebula YAML config emitted to a node, matching the
// wire schema byte-for-byte (field order and block-scalar PEM style
// matter to operators diffing configs).
type document struct {
	PKI           pkiSection             `yaml:"pki"`
	StaticHostMap map[string][]string    `yaml:"static_host_map"`
	Listen        listenSection          `yaml:"listen"`
	Lighthouse    lighthouseSection      `yaml:"lighthouse"`
	Tun           tunSection             `yaml:"tun"`
	Firewall      firewallSection        `yaml:"firewall"`
	Punchy        *punchySection         `yaml:"punchy,omitempty"`
	Relay         relaySection           `yaml:"relay"`
}

type pkiSection struct {
	CA                nebulayaml.Block `yaml:"ca"`
	Cert              nebulayaml.Block `yaml:"cert"`
	Key               string           `yaml:"key"`
	Blocklist         []string         `yaml:"blocklist"`
	DisconnectInvalid bool             `yaml:"disconnect_invalid"`
}

type listenSection struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type lighthouseSection struct {
	AmLighthouse bool     `yaml:"am_lighthouse"`
	Hosts        []string `yaml:"hosts"`
	Interval     int      `yaml:"interval"`
}

type tunSection struct {
	Disabled             bool `yaml:"disabled"`
	DropLocalBroadcast   bool `yaml:"drop_local_broadcast"`
	DropMulticast        bool `yaml:"drop_multicast"`
	TxQueue              int  `yaml:"tx_queue"`
	MTU                  int  `yaml:"mtu"`
}

type firewallRuleDoc struct {
	Port      string   `yaml:"port"`
	Proto     string   `yaml:"proto"`
	Host      string   `yaml:"host,omitempty"`
	CIDR      string   `yaml:"cidr,omitempty"`
	LocalCIDR string   `yaml:"local_cidr,omitempty"`
	CAName    string   `yaml:"ca_name,omitempty"`
	CASha     string   `yaml:"ca_sha,omitempty"`
	Group     string   `yaml:"group,omitempty"`
	Groups    []string `yaml:"groups,omitempty"`
}

type firewallSection struct {
	Inbound  []firewallRuleDoc `yaml:"inbound"`
	Outbound []firewallRuleDoc `yaml:"outbound"`
}

type punchySection struct {
	Punch        bool   `yaml:"punch"`
	PunchBack    bool   `yaml:"punch_back"`
	Respond      bool   `yaml:"respond"`
	Delay        string `yaml:"delay"`
	RespondDelay string `yaml:"respond_delay"`
}

type relaySection struct {
	AmRelay   bool     `yaml:"am_relay"`
	UseRelays bool     `yaml:"use_relays"`
	Relays    []string `yaml:"relays"`
}
