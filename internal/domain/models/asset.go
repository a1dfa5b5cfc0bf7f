package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Asset string

const (
	BTC Asset = "BTC"
	ETH Asset = "ETH"
	SOL Asset = "SOL"
)

// AssetInfo describes a tradable symbol. New assets are added to the registry below.
type AssetInfo struct {
	Asset         Asset
	BinanceTicker string
	MockPrice     decimal.Decimal
}

var assetRegistry = []AssetInfo{
	{Asset: BTC, BinanceTicker: "BTCUSDT", MockPrice: decimal.NewFromInt(68000)},
	{Asset: ETH, BinanceTicker: "ETHUSDT", MockPrice: decimal.NewFromInt(3500)},
	{Asset: SOL, BinanceTicker: "SOLUSDT", MockPrice: decimal.NewFromInt(150)},
}

// Assets returns the tradable assets in registry order.
func Assets() []Asset {
	res := make([]Asset, 0, len(assetRegistry))
	for _, info := range assetRegistry {
		res = append(res, info.Asset)
	}
	return res
}

func LookupAsset(a Asset) (AssetInfo, bool) {
	for _, info := range assetRegistry {
		if info.Asset == a {
			return info, true
		}
	}
	return AssetInfo{}, false
}

// AssetByTicker resolves a Binance ticker such as "BTCUSDT" (case-insensitive).
func AssetByTicker(ticker string) (Asset, bool) {
	ticker = strings.ToUpper(ticker)
	for _, info := range assetRegistry {
		if info.BinanceTicker == ticker {
			return info.Asset, true
		}
	}
	return "", false
}

// ParseAsset accepts either the asset symbol ("btc") or its ticker ("BTCUSDT").
func ParseAsset(s string) (Asset, bool) {
	a := Asset(strings.ToUpper(strings.TrimSpace(s)))
	if a.Valid() {
		return a, true
	}
	return AssetByTicker(string(a))
}

func (a Asset) Valid() bool {
	_, ok := LookupAsset(a)
	return ok
}

func (a Asset) Ticker() string {
	info, ok := LookupAsset(a)
	if !ok {
		return ""
	}
	return info.BinanceTicker
}
