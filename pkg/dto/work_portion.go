package dto

type WorkPortionRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	Weight      int     `json:"weight"`
}

type GrantAccessRequest struct {
	UserClassID int64 `json:"user_class_id"`
}

type AccessCheckResponse struct {
	WorkPortionID int64 `json:"work_portion_id"`
	HasAccess     bool  `json:"has_access"`
}

type SetPreferenceRequest struct {
	WorkPortionID   int64 `json:"work_portion_id"`
	PreferenceLevel int   `json:"preference_level"`
}
