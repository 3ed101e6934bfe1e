package models

import "time"

// GlobalSettings is a singleton row auto-created on first boot.
type GlobalSettings struct {
	ID int `db:"id" json:"-"` // always 1

	LighthousePort   int      `db:"lighthouse_port" json:"lighthouse_port"`
	LighthouseHosts  []string `db:"-" json:"lighthouse_hosts"`
	PunchyEnabled    bool     `db:"punchy_enabled" json:"punchy_enabled"`
	DefaultCIDRPool  string   `db:"default_cidr_pool" json:"default_cidr_pool"`
	CertVersion      CertVersion `db:"cert_version" json:"cert_version"`
	NebulaVersion    string   `db:"nebula_version" json:"nebula_version"`
	ClientDockerImage string  `db:"client_docker_image" json:"client_docker_image"`
	ServerURL        string   `db:"server_url" json:"server_url"`
	DockerComposeTemplate string `db:"docker_compose_template" json:"docker_compose_template,omitempty"`
}

// SystemSetting is a key/value row for operational configuration that
// does not warrant its own column on GlobalSettings: token_prefix,
// github_webhook_secret, latest_{client,nebula}_version,
// cached_{client,nebula}_advisories, version_cache_last_checked.
type SystemSetting struct {
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	UpdatedBy *string   `db:"updated_by" json:"updated_by,omitempty"`
}

const (
	SettingTokenPrefix             = "token_prefix"
	SettingGithubWebhookSecret     = "github_webhook_secret"
	SettingLatestClientVersion     = "latest_client_version"
	SettingLatestNebulaVersion     = "latest_nebula_version"
	SettingCachedClientAdvisories  = "cached_client_advisories"
	SettingCachedNebulaAdvisories  = "cached_nebula_advisories"
	SettingVersionCacheLastChecked = "version_cache_last_checked"

	DefaultTokenPrefix = "mnebula_"
)
