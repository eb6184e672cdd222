package domain

// Settings is the user-controlled configuration read by the dispatcher.
// Enable flags are pointers so that "absent" can be told apart from "false"; absent means enabled.
type Settings struct {
	NexusEnabled     *bool  `json:"nexusEnabled,omitempty"`
	NotionEnabled    *bool  `json:"notionEnabled,omitempty"`
	NotionToken      string `json:"notionToken,omitempty"`
	NotionDatabaseID string `json:"notionDatabaseId,omitempty"`
	AstraPassword    string `json:"astraPassword,omitempty"`
}

// PublicSettings is the settings snapshot handed back to clients. It never carries the API secret.
type PublicSettings struct {
	NexusEnabled     bool   `json:"nexusEnabled"`
	NotionEnabled    bool   `json:"notionEnabled"`
	NotionToken      string `json:"notionToken,omitempty"`
	NotionDatabaseID string `json:"notionDatabaseId,omitempty"`
}

// IsNexusEnabled reports the NEXUS flag, defaulting to true.
func (s Settings) IsNexusEnabled() bool {
	return s.NexusEnabled == nil || *s.NexusEnabled
}

// IsNotionEnabled reports the Notion flag, defaulting to true.
func (s Settings) IsNotionEnabled() bool {
	return s.NotionEnabled == nil || *s.NotionEnabled
}

// HasNotionCredentials reports whether both Notion credentials are present.
func (s Settings) HasNotionCredentials() bool {
	return s.NotionToken != "" && s.NotionDatabaseID != ""
}

// Public returns the client-facing view of s.
func (s Settings) Public() PublicSettings {
	return PublicSettings{
		NexusEnabled:     s.IsNexusEnabled(),
		NotionEnabled:    s.IsNotionEnabled(),
		NotionToken:      s.NotionToken,
		NotionDatabaseID: s.NotionDatabaseID,
	}
}

// SettingsPatch is a partial settings update. A nil field leaves the value alone;
// a pointer to "" clears a credential.
type SettingsPatch struct {
	NexusEnabled     *bool   `json:"nexusEnabled,omitempty"`
	NotionEnabled    *bool   `json:"notionEnabled,omitempty"`
	NotionToken      *string `json:"notionToken,omitempty"`
	NotionDatabaseID *string `json:"notionDatabaseId,omitempty"`
	AstraPassword    *string `json:"astraPassword,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SettingsPatch) IsEmpty() bool {
	return p == SettingsPatch{}
}

// Overlay returns p with every field set in next replacing its own.
func (p SettingsPatch) Overlay(next SettingsPatch) SettingsPatch {
	out := p
	if next.NexusEnabled != nil {
		out.NexusEnabled = BoolPtr(*next.NexusEnabled)
	}
	if next.NotionEnabled != nil {
		out.NotionEnabled = BoolPtr(*next.NotionEnabled)
	}
	if next.NotionToken != nil {
		out.NotionToken = StringPtr(*next.NotionToken)
	}
	if next.NotionDatabaseID != nil {
		out.NotionDatabaseID = StringPtr(*next.NotionDatabaseID)
	}
	if next.AstraPassword != nil {
		out.AstraPassword = StringPtr(*next.AstraPassword)
	}
	return out
}

// Apply returns s with every field set in patch replaced, including cleared credentials.
func (s Settings) Apply(patch SettingsPatch) Settings {
	out := s
	if patch.NexusEnabled != nil {
		out.NexusEnabled = BoolPtr(*patch.NexusEnabled)
	}
	if patch.NotionEnabled != nil {
		out.NotionEnabled = BoolPtr(*patch.NotionEnabled)
	}
	if patch.NotionToken != nil {
		out.NotionToken = *patch.NotionToken
	}
	if patch.NotionDatabaseID != nil {
		out.NotionDatabaseID = *patch.NotionDatabaseID
	}
	if patch.AstraPassword != nil {
		out.AstraPassword = *patch.AstraPassword
	}
	return out
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
