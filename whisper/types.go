package whisper

// Segment is one time-bounded span of a transcription.
type Segment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// Result is a parsed transcription as returned by the backend. Segment
// ordering by start time is the backend's contract; we do not re-sort.
type Result struct {
	Text               string    `json:"text"`
	Language           string    `json:"language"`
	DetectedLanguage   string    `json:"detected_language,omitempty"`
	LanguageConfidence float64   `json:"language_confidence"`
	Segments           []Segment `json:"segments"`
	ModelSize          string    `json:"model_size"`
	OverallConfidence  float64   `json:"overall_confidence"`
	SegmentCount       int       `json:"segment_count"`
	AudioDuration      float64   `json:"audio_duration"`
	ProcessingTime     float64   `json:"processing_time"`
}

// Response is the tagged outcome of one transcription attempt. Success
// implies Result is present; failure implies it is absent. Error carries
// the failure class tag, Message the human-readable explanation.
type Response struct {
	Success bool    `json:"success"`
	Result  *Result `json:"result,omitempty"`
	Error   string  `json:"error,omitempty"`
	Message string  `json:"message"`
}

func failure(kind ErrorKind, message string) *Response {
	return &Response{
		Success: false,
		Error:   string(kind),
		Message: message,
	}
}
