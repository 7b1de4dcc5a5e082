package notifications

// MapPaymentStatus converts a PagHiper transaction status to the
// matching E-Com Plus financial status. Unknown statuses return
// ok == false and the notification is ignored.
func MapPaymentStatus(paghiperStatus string) (string, bool) {
	switch paghiperStatus {
	case "pending", "paid", "refunded":
		// is the same
		return paghiperStatus, true
	case "canceled":
		return "voided", true
	case "processing":
		return "under_analysis", true
	case "reserved":
		// https://atendimento.paghiper.com/hc/pt-br/articles/360016177713
		return "authorized", true
	default:
		return "", false
	}
}
