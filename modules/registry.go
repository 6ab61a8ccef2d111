package modules

// Registry is the protocol configuration consulted when a query is created
// and when a challenge computes its resolution fee.
type Registry interface {
	IsTopicAllowed(topic string) bool
	IsAssetAllowed(asset string) bool
	MinimumBond(asset string) int64
	ResolutionFeeBps() int64
}
