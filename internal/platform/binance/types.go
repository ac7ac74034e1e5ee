package binance

// errorResponse is the JSON error body returned by the Binance REST API,
// e.g. {"code": -1121, "msg": "Invalid symbol."}.
type errorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// rawKline is one candlestick as returned by GET /api/v3/klines: a positional
// JSON array mixing numbers (timestamps) and decimal strings (prices/volumes).
// Index layout: 0 open time, 1 open, 2 high, 3 low, 4 close, 5 volume,
// 6 close time; trailing fields are ignored.
type rawKline []any
