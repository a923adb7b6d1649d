// Package catalog holds the static language and model tables the
// transcription backend understands. The data is fixed at compile time and
// never persisted.
package catalog

// Language describes one selectable transcription language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"nativeName"`
	Flag       string `json:"flag"`
	RTL        bool   `json:"isRTL"`
}

// Model describes one Whisper model size offered by the backend.
type Model struct {
	Size         string `json:"size"`
	Disk         string `json:"disk"`
	Speed        string `json:"speed"`
	Accuracy     string `json:"accuracy"`
	Multilingual bool   `json:"multilingual"`
}

const (
	// AutoDetect is the language code that lets the backend pick.
	AutoDetect = "auto"

	// DefaultModel is the model size used when none is requested.
	DefaultModel = "base"
)

var languages = []Language{
	{Code: "auto", Name: "Auto Detect", NativeName: "Auto Detect", Flag: "🌐"},
	{Code: "en", Name: "English", NativeName: "English", Flag: "🇬🇧"},
	{Code: "id", Name: "Indonesian", NativeName: "Bahasa Indonesia", Flag: "🇮🇩"},
	{Code: "ar", Name: "Arabic", NativeName: "العربية", Flag: "🇸🇦", RTL: true},
	{Code: "ms", Name: "Malay", NativeName: "Bahasa Melayu", Flag: "🇲🇾"},
	{Code: "zh", Name: "Chinese", NativeName: "中文", Flag: "🇨🇳"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語", Flag: "🇯🇵"},
	{Code: "ko", Name: "Korean", NativeName: "한국어", Flag: "🇰🇷"},
}

var models = []Model{
	{Size: "tiny", Disk: "39 MB", Speed: "fastest", Accuracy: "lowest", Multilingual: true},
	{Size: "base", Disk: "74 MB", Speed: "fast", Accuracy: "good", Multilingual: true},
	{Size: "small", Disk: "244 MB", Speed: "medium", Accuracy: "better", Multilingual: true},
	{Size: "medium", Disk: "769 MB", Speed: "slow", Accuracy: "high", Multilingual: true},
}

// Languages returns the supported languages in display order.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Models returns the available model sizes, smallest first.
func Models() []Model {
	out := make([]Model, len(models))
	copy(out, models)
	return out
}

// LanguageByCode looks up a language by its code.
func LanguageByCode(code string) (Language, bool) {
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// ModelBySize looks up a model by its size name.
func ModelBySize(size string) (Model, bool) {
	for _, m := range models {
		if m.Size == size {
			return m, true
		}
	}
	return Model{}, false
}

// NormalizeLanguage maps unknown language codes to auto detection.
func NormalizeLanguage(code string) string {
	if _, ok := LanguageByCode(code); ok {
		return code
	}
	return AutoDetect
}

// NormalizeModel maps unknown model sizes to the default model.
func NormalizeModel(size string) string {
	if _, ok := ModelBySize(size); ok {
		return size
	}
	return DefaultModel
}
