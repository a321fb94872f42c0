package models

// SubtitleLine is one display line for a video, times in seconds.
// Lines for a video are always replaced wholesale, never merged.
type SubtitleLine struct {
	ID      string  `json:"id"`
	VideoID string  `json:"videoId"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	TextCn  string  `json:"textCn,omitempty"`
}
