// Package selectors holds the catalog of candidate methods probed on contracts
// whose ABI is unknown, and computes selectors for arbitrary signatures.
package selectors

import "github.com/archon-research/contract-probe/internal/domain/entity"

// catalog is append-only: new candidates go at the end and existing entries
// never change. Selectors are the first 4 bytes of keccak256(signature).
var catalog = []entity.SelectorEntry{
	// Token metadata
	{Signature: "name()", Selector: "0x06fdde03"},
	{Signature: "symbol()", Selector: "0x95d89b41"},
	{Signature: "totalSupply()", Selector: "0x18160ddd"},
	{Signature: "decimals()", Selector: "0x313ce567"},

	// Ownership and admin
	{Signature: "owner()", Selector: "0x8da5cb5b"},
	{Signature: "getOwner()", Selector: "0x893d20e8"},
	{Signature: "paused()", Selector: "0x5c975abb"},

	// Staking
	{Signature: "getTotalStakers()", Selector: "0x31ed0db4"},
	{Signature: "totalStakers()", Selector: "0x86989038"},
	{Signature: "stakerCount()", Selector: "0xdff69787"},
	{Signature: "getStakers()", Selector: "0x43352d61"},
	{Signature: "getAllStakers()", Selector: "0x6e4f88c8"},
	{Signature: "getStakerList()", Selector: "0xa3691c06"},
	{Signature: "getStakedTokens(address)", Selector: "0x63c28db1"},
	{Signature: "totalStaked()", Selector: "0x817b1cd2"},
	{Signature: "getStakingInfo()", Selector: "0xb40cd21d"},
	{Signature: "stakingEnabled()", Selector: "0x1cfff51b"},
	{Signature: "getStakingBalance(address)", Selector: "0xb04ef9c2"},
}

// Default returns a copy of the built-in catalog in declaration order.
func Default() []entity.SelectorEntry {
	out := make([]entity.SelectorEntry, len(catalog))
	copy(out, catalog)
	return out
}
