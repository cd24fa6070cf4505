package contextbuild

// EstimateTokens approximates the token count of a prompt fragment using
// the rough 4-characters-per-token heuristic. The estimate only needs to
// be deterministic and monotonic in length, not exact.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}
