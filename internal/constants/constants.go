package constants

const (
	// intermediator code identifying the PagHiper integration on order transactions
	IntermediatorCode = "paghiper"

	ISO8601DateFormat = "2006-01-02T15:04:05.000Z07:00"
)
