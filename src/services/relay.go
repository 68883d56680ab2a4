package services

import (
	"fmt"
	"net/url"
)

// RelayStrategy builds a reachable URL for a target the service cannot call
// directly. The pipeline walks an ordered list of these; swapping relays in
// or out never touches the pipeline logic.
type RelayStrategy interface {
	Name() string
	BuildURL(target string) string
}

// QueryParamRelay appends the encoded target as a query parameter,
// e.g. https://api.allorigins.win/raw?url=<target>.
type QueryParamRelay struct {
	Label string
	Base  string // full prefix up to and including the parameter, e.g. ".../raw?url="
}

func (r QueryParamRelay) Name() string { return r.Label }

func (r QueryParamRelay) BuildURL(target string) string {
	return r.Base + url.QueryEscape(target)
}

// PathRelay appends the raw target to a path prefix,
// e.g. https://thingproxy.freeboard.io/fetch/<target>.
type PathRelay struct {
	Label string
	Base  string
}

func (r PathRelay) Name() string { return r.Label }

func (r PathRelay) BuildURL(target string) string {
	return fmt.Sprintf("%s%s", r.Base, target)
}

// DefaultRelayChain is the ordered production relay list. Order matters: the
// pipeline stops at the first structurally valid response.
func DefaultRelayChain() []RelayStrategy {
	return []RelayStrategy{
		QueryParamRelay{Label: "allorigins", Base: "https://api.allorigins.win/raw?url="},
		QueryParamRelay{Label: "corsproxy", Base: "https://corsproxy.io/?"},
		PathRelay{Label: "thingproxy", Base: "https://thingproxy.freeboard.io/fetch/"},
	}
}
