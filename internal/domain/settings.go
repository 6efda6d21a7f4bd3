package domain

// SettingsVersion is written into every persisted settings document.
const SettingsVersion = "1.0.0"

// Settings is the only durable state of the widget.
type Settings struct {
	SelectedCurrencies []string `json:"selected_currencies" yaml:"selected_currencies"`
	Version            string   `json:"version" yaml:"version"`
}

func NewSettings(selection []string) Settings {
	sel := make([]string, len(selection))
	copy(sel, selection)
	return Settings{SelectedCurrencies: sel, Version: SettingsVersion}
}
