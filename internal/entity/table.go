package entity

import "solana-fund-tracer/internal/domain"

// defaultEntities is the built-in address table. Labels follow the public
// explorer attributions for these wallets.
var defaultEntities = map[string]domain.EntityRef{
	// Exchange hot wallets
	"2ojv9BAiHUrvsm9gxDe7fJSzbNZSJcxZvf8dqmWGHG8S": {Name: "Binance 1", Category: domain.CategoryExchange},
	"5tzFkiKscXHK5ZXCGbXZxdw7gTjjD1mBwuoFbhUvuAi9": {Name: "Binance 2", Category: domain.CategoryExchange},
	"GJRs4FwHtemZ5ZE9x3FNvJ8TMwitKTh21yxdRPqn7npE": {Name: "Coinbase 1", Category: domain.CategoryExchange},
	"H8sMJSCQxfKiFTCfDR3DUMLPwcRbM61LGFJ8N4dK3WjS": {Name: "Coinbase 2", Category: domain.CategoryExchange},
	"FWznbcNXWQuHTawe9RxvQ2LdCENssh12dsznf4RiouN5": {Name: "Kraken", Category: domain.CategoryExchange},
	"AC5RDfQFmDS1deWZos921JfqscXdByf8BKHs5ACWjtW2": {Name: "Bybit", Category: domain.CategoryExchange},
	"5VCwKtCXgCJ6kit5FybXjvriW3xELsFDhYrPSqtJNmcD": {Name: "OKX", Category: domain.CategoryExchange},
	"ASTyfSima4LLAdDgoFGkgqoKowG1LZFDr9fAQrg7iaJZ": {Name: "MEXC", Category: domain.CategoryExchange},
	"u6PJ8DtQuPFnfmwHbGFULQ4u4EgjDiyYKjVEsynXq2w":  {Name: "Gate.io", Category: domain.CategoryExchange},

	// Swap venue routers (program accounts also live in the swap table)
	RaydiumAMMV4:  {Name: "Raydium AMM v4", Category: domain.CategorySwapVenue},
	PumpFun:       {Name: "pump.fun", Category: domain.CategorySwapVenue},
	JupiterV6:     {Name: "Jupiter v6", Category: domain.CategorySwapVenue},
	OrcaWhirlpool: {Name: "Orca Whirlpool", Category: domain.CategorySwapVenue},

	// Bridges
	"wormDTUJ6AWPNvk59vGQbDvGJmqbDTdgWgAqcLBCgUb": {Name: "Wormhole Token Bridge", Category: domain.CategoryBridge},
	"worm2ZoG2kUd4vFXhvjh93UUH596ayRfgQ2MgjNMTth": {Name: "Wormhole Core", Category: domain.CategoryBridge},
	"DEbrdGj3HsRsAzx6uH4MKyREKxVAfBydijLUF3ygsFfh": {Name: "deBridge", Category: domain.CategoryBridge},
}
