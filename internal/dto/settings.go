package dto

// SettingItem is the API view of a hostel setting.
type SettingItem struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// UpdateSettingRequest updates one setting.
type UpdateSettingRequest struct {
	Value string `json:"value" validate:"required"`
}

// BulkUpdateSettingsRequest applies several updates atomically.
type BulkUpdateSettingsRequest struct {
	Items []BulkSettingItem `json:"items" validate:"required,min=1,dive"`
}

// BulkSettingItem is one entry of a bulk settings update.
type BulkSettingItem struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"required"`
}
