package model

// PublisherManifest is the decoded contents of a provider's publisher
// manifest. Fields mirror SettingsUpdate: anything absent from the document
// stays nil and is left untouched when the manifest is applied.
type PublisherManifest struct {
	ClientType        *string           `json:"clientType,omitempty"`
	OptionOverrides   map[string]string `json:"options,omitempty"`
	HomepageOverrides map[string]string `json:"homepageOptions,omitempty"`
	Buttons           []ProviderButton  `json:"buttons,omitempty"`
}

// Update converts the manifest plus its refreshed download descriptor into a
// field-level settings update.
func (m *PublisherManifest) Update(info *ManifestDownloadInfo) SettingsUpdate {
	return SettingsUpdate{
		ManifestDownloadInfo: info,
		ClientType:           m.ClientType,
		Buttons:              m.Buttons,
		OptionOverrides:      m.OptionOverrides,
		HomepageOverrides:    m.HomepageOverrides,
	}
}
