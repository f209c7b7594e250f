package race

// AudioSignal is everything an external audio driver may read.
type AudioSignal struct {
	EngineActive bool    `json:"engineActive"`
	Intensity    float64 `json:"intensity"`
}

// Intensity maps the leading score onto [0, 1].
func Intensity(maxScore, winningScore int) float64 {
	if winningScore <= 0 || maxScore <= 0 {
		return 0
	}
	if maxScore >= winningScore {
		return 1
	}
	return float64(maxScore) / float64(winningScore)
}

// engineActive reports whether the ambient engine sound runs in s.
func engineActive(s Status) bool {
	return s == StatusCountdown || s == StatusPlaying
}
