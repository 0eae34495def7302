// Package cost is the single aggregation point for the request ledger.
// Absent amounts fold to zero here and nowhere else; the total is a
// display aggregate recomputed on every read, never stored.
package cost

// Total returns the owner-facing total in cents: estimate plus
// contractor fee, each defaulting to zero when absent.
func Total(estimateCents, feeCents *int64) int64 {
    var total int64
    if estimateCents != nil {
        total += *estimateCents
    }
    if feeCents != nil {
        total += *feeCents
    }
    return total
}
