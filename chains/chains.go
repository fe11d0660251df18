// Package chains carries a registry of well-known EVM chains, used to turn
// the wallet's hex chain IDs into something readable.
package chains

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Chain describes one EVM chain.
type Chain struct {
	ID               uint64
	Name             string
	AlternativeNames []string
	Symbol           string
	Decimals         int
}

// HexID returns the chain ID in the 0x-prefixed form used on the wire.
func (c Chain) HexID() string {
	return hexutil.EncodeUint64(c.ID)
}

func (c Chain) String() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.HexID())
}

// Insert more chains here to support more networks.
var supportedChains = []Chain{
	{ID: 1, Name: "ethereum", AlternativeNames: []string{"mainnet"}, Symbol: "ETH", Decimals: 18},
	{ID: 10, Name: "optimism", Symbol: "ETH", Decimals: 18},
	{ID: 56, Name: "bsc", AlternativeNames: []string{"binance"}, Symbol: "BNB", Decimals: 18},
	{ID: 137, Name: "polygon", AlternativeNames: []string{"matic"}, Symbol: "POL", Decimals: 18},
	{ID: 250, Name: "fantom", Symbol: "FTM", Decimals: 18},
	{ID: 8453, Name: "base", Symbol: "ETH", Decimals: 18},
	{ID: 42161, Name: "arbitrum", Symbol: "ETH", Decimals: 18},
	{ID: 43113, Name: "fuji", AlternativeNames: []string{"avalanche-fuji"}, Symbol: "AVAX", Decimals: 18},
	{ID: 43114, Name: "avalanche", AlternativeNames: []string{"avax"}, Symbol: "AVAX", Decimals: 18},
	{ID: 59144, Name: "linea", Symbol: "ETH", Decimals: 18},
	{ID: 534352, Name: "scroll", Symbol: "ETH", Decimals: 18},
	{ID: 11155111, Name: "sepolia", Symbol: "ETH", Decimals: 18},
}

var ErrChainNotFound = fmt.Errorf("chain not found")

type registry struct {
	byName map[string]Chain
	byID   map[uint64]Chain
}

var globalRegistry = newRegistry()

func newRegistry() *registry {
	r := &registry{
		byName: map[string]Chain{},
		byID:   map[uint64]Chain{},
	}
	for _, c := range supportedChains {
		if _, found := r.byName[c.Name]; found {
			panic(fmt.Errorf("chain with name or alternative name of '%s' already exists", c.Name))
		}
		r.byName[c.Name] = c
		if _, found := r.byID[c.ID]; found {
			panic(fmt.Errorf("chain with id %d already exists", c.ID))
		}
		r.byID[c.ID] = c
		for _, an := range c.AlternativeNames {
			if _, found := r.byName[an]; found {
				panic(fmt.Errorf("chain with name or alternative name of '%s' already exists", an))
			}
			r.byName[an] = c
		}
	}
	return r
}

// Supported returns every registered chain.
func Supported() []Chain {
	res := make([]Chain, 0, len(supportedChains))
	res = append(res, supportedChains...)
	return res
}

// ByName looks a chain up by its name or one of its alternative names.
func ByName(name string) (Chain, error) {
	c, found := globalRegistry.byName[name]
	if !found {
		return Chain{}, fmt.Errorf("chain name '%s': %w", name, ErrChainNotFound)
	}
	return c, nil
}

// ByID looks a chain up by its numeric chain ID.
func ByID(id uint64) (Chain, error) {
	c, found := globalRegistry.byID[id]
	if !found {
		return Chain{}, fmt.Errorf("chain id %d: %w", id, ErrChainNotFound)
	}
	return c, nil
}

// ByHexID resolves a 0x-prefixed hex chain ID.
func ByHexID(chainID string) (Chain, error) {
	id, err := hexutil.DecodeUint64(chainID)
	if err != nil {
		return Chain{}, fmt.Errorf("chain id '%s' is not a 0x quantity: %w", chainID, err)
	}
	return ByID(id)
}

// Describe renders chainID for humans: name plus hex ID when the chain is
// known, the raw input otherwise.
func Describe(chainID string) string {
	c, err := ByHexID(chainID)
	if err != nil {
		return chainID
	}
	return c.String()
}

// Names returns every name and alternative name in the registry, sorted.
func Names() []string {
	res := make([]string, 0, len(globalRegistry.byName))
	for name := range globalRegistry.byName {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}
