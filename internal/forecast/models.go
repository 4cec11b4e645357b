package forecast

// Forecast is a single weather-forecast record.
// ID is supplied by the caller; ETag is owned by the repository and rotates on every write.
type Forecast struct {
	ID           int    `json:"id"`
	Date         Date   `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	Summary      string `json:"summary"`
	ETag         string `json:"eTag"`
}

// SameContent reports whether f and other carry the same data, ignoring the version token.
func (f Forecast) SameContent(other Forecast) bool {
	return f.ID == other.ID &&
		f.Date.Equal(other.Date.Time) &&
		f.TemperatureC == other.TemperatureC &&
		f.Summary == other.Summary
}
