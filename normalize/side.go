package normalize

import "sierra_bridge/models"

// ClassifySide infers the aggressor direction of a trade from its price
// relative to the quote, falling back to the tick rule against the previous
// trade price. Pure function; ties at the exact midpoint classify as Buy.
func ClassifySide(price, bid, ask, lastPrice float64) models.Side {
	if bid > 0 && ask > 0 {
		if price >= ask {
			return models.SideBuy
		}
		if price <= bid {
			return models.SideSell
		}
		mid := (bid + ask) / 2
		if price >= mid {
			return models.SideBuy
		}
		return models.SideSell
	}

	if lastPrice > 0 {
		switch {
		case price > lastPrice:
			return models.SideBuy
		case price < lastPrice:
			return models.SideSell
		default:
			return models.SideUnknown
		}
	}

	return models.SideUnknown
}
