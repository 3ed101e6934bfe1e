// Package models defines the persistent entities managed by the
// NebulaFleet control plane: certificate authorities, fleet nodes,
// tokens, host certificates, IP pools, firewall groups, and the
// permission/settings singletons that govern them.
//
// Types here carry `db` and `json` struct tags for direct use by the
// repository layer and the HTTP API; they hold no behavior beyond small
// helpers. Sentinel errors returned by the service layer live in
// errors.go so handlers can switch on them without string matching.
package models
