package model

// DailySeriesResponse matches the JSON shape of the TIME_SERIES_DAILY query.
//
// Example:
// {
//   "Meta Data": { "2. Symbol": "SPY", ... },
//   "Time Series (Daily)": { "2024-01-02": { "4. close": "472.65", ... } }
// }
//
// On failure the provider still answers 200 and fills one of the message fields.
type DailySeriesResponse struct {
	MetaData     map[string]string   `json:"Meta Data"`
	TimeSeries   map[string]DailyBar `json:"Time Series (Daily)"`
	ErrorMessage string              `json:"Error Message"`
	Note         string              `json:"Note"`
	Information  string              `json:"Information"`
}

// DailyBar is one day of the provider's series. Values are decimal strings.
type DailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}
