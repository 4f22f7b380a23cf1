package sanitizer

// ClampPrice floors negative prices at zero. Upper bounds are a validation
// concern, not a sanitization one.
func ClampPrice(price float64) float64 {
	if price < 0 {
		return 0
	}
	return price
}
