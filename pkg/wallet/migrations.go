package wallet

import (
	"fmt"
	"strconv"

	migrate "github.com/goliatone/go-state-migrate"
	"github.com/goliatone/go-state-migrate/tree"
)

// Schema versions introduced by this package.
const (
	VersionGasPriceDefaults = 13
	VersionArbitrum         = 14
	VersionNativeCurrency   = 15
)

// Migrations returns the wallet migration steps in ascending order.
func Migrations() []migrate.Migration {
	return []migrate.Migration{
		{
			Version: VersionGasPriceDefaults,
			Name:    "gas price defaults",
			Up:      fillGasPriceDefaults,
		},
		{
			Version: VersionArbitrum,
			Name:    "polygon provider and arbitrum",
			Up: migrate.Chain(
				migrate.Rewrite(polygonProviderRule),
				addArbitrum,
			),
		},
		{
			Version: VersionNativeCurrency,
			Name:    "native currency and testnet flag",
			When:    hasNetworksGuard,
			Up:      fillNativeCurrency,
		},
	}
}

// Table returns the validated wallet migration table.
func Table() (*migrate.Table, error) {
	return migrate.NewTable(Migrations()...)
}

// NewRunner returns a runner over the wallet migration table.
func NewRunner(opts ...migrate.Option) (*migrate.Runner, error) {
	table, err := Table()
	if err != nil {
		return nil, err
	}
	return migrate.New(table, opts...), nil
}

// The expressions below are written in the subset shared by the expr, cel
// and js engines, so the table runs unchanged under any of them.
var (
	// polygonProviderRule retires the matic preset on Polygon connection
	// slots. The captures are chain type, chain id and slot.
	polygonProviderRule = migrate.RewriteRule{
		Pattern: tree.JoinPath("main", "networks", tree.Wildcard, tree.Wildcard, "connection", tree.Wildcard, "current"),
		From:    PresetMatic,
		To:      PresetInfura,
		When:    fmt.Sprintf("captures[0] == %q && captures[1] == %q", ChainTypeEthereum, chainKey(ChainPolygon)),
	}

	// hasNetworksGuard skips the native currency step for trees with neither
	// networks nor network meta.
	hasNetworksGuard = `present(state, "main.networks") || present(state, "main.networksMeta")`
)

func gasPriceDefaults() map[string]any {
	levels := make(map[string]any, len(GasLevels))
	for _, level := range GasLevels {
		levels[level] = ""
	}
	return map[string]any{
		"selected": DefaultGasLevel,
		"levels":   levels,
	}
}

// fillGasPriceDefaults gives every network meta entry a selected gas level and
// all gas level slots, creating meta entries for networks that have none.
func fillGasPriceDefaults(_ migrate.StepContext, state map[string]any) (map[string]any, error) {
	main, ok := tree.Map(state, "main")
	if !ok {
		return state, nil
	}
	defaults := map[string]any{
		"gas": map[string]any{"price": gasPriceDefaults()},
	}
	for _, ref := range metaTargets(main) {
		fillMeta(main, ref, defaults)
	}
	return state, nil
}

func addArbitrum(_ migrate.StepContext, state map[string]any) (map[string]any, error) {
	main := tree.EnsureMap(state, "main")
	byType := tree.EnsureMap(main, "networks", ChainTypeEthereum)
	key := chainKey(ChainArbitrum)
	if _, ok := byType[key].(map[string]any); !ok {
		byType[key] = arbitrumNetwork()
	}
	fillMeta(main, networkRef{Type: ChainTypeEthereum, ID: key}, map[string]any{
		"gas": map[string]any{
			"fees":  map[string]any{},
			"price": gasPriceDefaults(),
		},
	})
	return state, nil
}

func arbitrumNetwork() map[string]any {
	return map[string]any{
		"id":       ChainArbitrum,
		"type":     ChainTypeEthereum,
		"layer":    LayerRollup,
		"symbol":   "ETH",
		"name":     "Arbitrum",
		"explorer": ArbitrumExplorer,
		"gas": map[string]any{
			"price": map[string]any{
				"selected": DefaultGasLevel,
				"levels":   map[string]any{},
			},
		},
		"connection": map[string]any{
			"primary":   connectionSlot(true, PresetInfura),
			"secondary": connectionSlot(false, PresetCustom),
		},
		"on": false,
	}
}

func connectionSlot(on bool, current string) map[string]any {
	return map[string]any{
		"on":        on,
		"current":   current,
		"status":    "loading",
		"connected": false,
		"type":      "",
		"network":   "",
		"custom":    "",
	}
}

// fillNativeCurrency marks networks as main or test networks and describes
// their native currency in the meta entry.
func fillNativeCurrency(_ migrate.StepContext, state map[string]any) (map[string]any, error) {
	main, ok := tree.Map(state, "main")
	if !ok {
		return state, nil
	}
	for _, ref := range networkRefs(main) {
		byType, _ := tree.Map(main, "networks", ref.Type)
		network, _ := byType[ref.ID].(map[string]any)
		chainID, _ := strconv.Atoi(ref.ID)
		byType[ref.ID] = tree.FillDefaults(network, map[string]any{
			"isTestnet": IsKnownTestnet(chainID),
		})
	}
	for _, ref := range metaTargets(main) {
		symbol, _ := tree.String(main, "networks", ref.Type, ref.ID, "symbol")
		fillMeta(main, ref, map[string]any{
			"nativeCurrency": map[string]any{
				"symbol":   symbol,
				"name":     "",
				"icon":     "",
				"decimals": NativeCurrencyDecimals,
				"usd": map[string]any{
					"price":      0,
					"change24hr": 0,
				},
			},
		})
	}
	return state, nil
}

type networkRef struct {
	Type string
	ID   string
}

// networkRefs lists every well-formed network entry in key order.
func networkRefs(main map[string]any) []networkRef {
	networks, ok := tree.Map(main, "networks")
	if !ok {
		return nil
	}
	var refs []networkRef
	for _, chainType := range tree.SortedKeys(networks) {
		byType, ok := networks[chainType].(map[string]any)
		if !ok {
			continue
		}
		for _, id := range tree.SortedKeys(byType) {
			if _, ok := byType[id].(map[string]any); ok {
				refs = append(refs, networkRef{Type: chainType, ID: id})
			}
		}
	}
	return refs
}

// metaTargets lists every network plus every existing meta entry, without
// duplicates.
func metaTargets(main map[string]any) []networkRef {
	refs := networkRefs(main)
	seen := make(map[networkRef]bool, len(refs))
	for _, ref := range refs {
		seen[ref] = true
	}
	meta, ok := tree.Map(main, "networksMeta")
	if !ok {
		return refs
	}
	for _, chainType := range tree.SortedKeys(meta) {
		byType, ok := meta[chainType].(map[string]any)
		if !ok {
			continue
		}
		for _, id := range tree.SortedKeys(byType) {
			ref := networkRef{Type: chainType, ID: id}
			if !seen[ref] {
				seen[ref] = true
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func fillMeta(main map[string]any, ref networkRef, defaults map[string]any) {
	byType := tree.EnsureMap(main, "networksMeta", ref.Type)
	existing, _ := byType[ref.ID].(map[string]any)
	byType[ref.ID] = tree.FillDefaults(existing, defaults)
}
