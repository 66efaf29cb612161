package model

// AccountDescriptor is the directory entry for one configured account.
type AccountDescriptor struct {
	ID          string
	Name        string
	HomepageURL string
}

// ProviderButton describes a custom toolbar button supplied by a blog
// provider's publisher manifest.
// The JSON tags match the field names used in publisher manifest documents.
type ProviderButton struct {
	ID                 string `json:"id"`
	Description        string `json:"description,omitempty"`
	ImageURL           string `json:"imageUrl,omitempty"`
	ClickURL           string `json:"clickUrl,omitempty"`
	ContentURL         string `json:"contentUrl,omitempty"`
	ContentDisplaySize string `json:"contentDisplaySize,omitempty"`
	NotificationURL    string `json:"notificationUrl,omitempty"`
}

// SettingsUpdate is a batch of externally-detected settings changes, applied
// field-by-field: a nil field means "leave the current value untouched".
type SettingsUpdate struct {
	ManifestDownloadInfo *ManifestDownloadInfo
	ClientType           *string
	Categories           []Category
	Keywords             []Keyword
	Buttons              []ProviderButton
	OptionOverrides      map[string]string
	HomepageOverrides    map[string]string
}

// IsEmpty reports whether the update carries no changes at all.
func (u *SettingsUpdate) IsEmpty() bool {
	return u.ManifestDownloadInfo == nil &&
		u.ClientType == nil &&
		u.Categories == nil &&
		u.Keywords == nil &&
		u.Buttons == nil &&
		u.OptionOverrides == nil &&
		u.HomepageOverrides == nil
}
