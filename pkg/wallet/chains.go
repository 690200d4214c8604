package wallet

import "strconv"

// Chain types.
const (
	ChainTypeEthereum = "ethereum"
)

// Well-known chain ids.
const (
	ChainMainnet  = 1
	ChainRopsten  = 3
	ChainRinkeby  = 4
	ChainGoerli   = 5
	ChainKovan    = 42
	ChainPolygon  = 137
	ChainArbitrum = 42161
)

// Network layers.
const (
	LayerMainnet   = "mainnet"
	LayerSidechain = "sidechain"
	LayerRollup    = "rollup"
	LayerTestnet   = "testnet"
)

// Connection presets.
const (
	PresetInfura = "infura"
	PresetCustom = "custom"
	PresetLocal  = "local"
	// PresetMatic is the retired Polygon preset replaced by PresetInfura.
	PresetMatic = "matic"
)

// Gas price levels.
const (
	GasLevelSlow     = "slow"
	GasLevelStandard = "standard"
	GasLevelFast     = "fast"
	GasLevelAsap     = "asap"
	GasLevelCustom   = "custom"

	DefaultGasLevel = GasLevelStandard
)

// GasLevels lists every gas price level in display order.
var GasLevels = []string{GasLevelSlow, GasLevelStandard, GasLevelFast, GasLevelAsap, GasLevelCustom}

const (
	ArbitrumExplorer = "https://explorer.arbitrum.io"

	// NativeCurrencyDecimals is the default for EVM native currencies.
	NativeCurrencyDecimals = 18
)

var testnets = map[int]bool{
	ChainRopsten: true,
	ChainRinkeby: true,
	ChainGoerli:  true,
	ChainKovan:   true,
}

// IsKnownTestnet reports whether chainID is a well-known test network.
func IsKnownTestnet(chainID int) bool {
	return testnets[chainID]
}

func chainKey(chainID int) string {
	return strconv.Itoa(chainID)
}
