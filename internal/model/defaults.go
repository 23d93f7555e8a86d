package model

// Shared defaults used by training, inference and the API.
const (
	DefaultActorCount = 6
	DefaultWorkers    = 4
)

// DefaultObservedFields is the per-protocol field allowlist used to build
// network features.
func DefaultObservedFields() map[string][]string {
	return map[string][]string{
		"http": {"http.host"},
		"dns":  {"dns.qry.name", "dns.resp.name"},
		"ip":   {"ip.src", "ip.dst"},
	}
}
