package daemon

// agentVersion is the client_version sent with every config fetch, so the
// control plane can log which agent builds are talking to it.
const agentVersion = "0.1.0"
