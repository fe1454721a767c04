package domain

// high-trust feeds whose sightings bump the score
var trustedSources = map[string]bool{
	"abusech-urlhaus": true,
	"abusech-feodo":   true,
	"google-osv":      true,
}

// ScoreIndicator derives a confidence score (0-100) for an indicator that
// carries none of its own. Pure function, no I/O.
func ScoreIndicator(ind Indicator) int {
	if ind.Confidence > 0 {
		return ind.Confidence
	}

	score := 70

	if trustedSources[ind.Source] {
		score += 10
	}

	if len(ind.Labels) > 3 {
		score += 5
	}

	switch ind.Type {
	case FileHash:
		// hashes rarely collide with benign traffic
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
