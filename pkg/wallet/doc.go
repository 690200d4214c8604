// Package wallet holds the migration table for the wallet's persisted state
// and a typed read view of the networks it describes.
//
// The relevant subtrees are:
//
//	main._version                          schema marker written by the runner
//	main.networks.<type>.<chainId>         network definitions
//	main.networksMeta.<type>.<chainId>     per-network gas and currency metadata
package wallet
