package errors

func (d Definition) Error() string {
	return d.Message
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// WithMessage 保留错误码，替换展示信息（远端失败信息需要原样透出）。
func (d Definition) WithMessage(message string) Definition {
	if message == "" {
		return d
	}
	d.Message = message
	return d
}

// Is 按错误码比较，便于 errors.Is 匹配 WithMessage 之后的副本。
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// 通用错误。
var (
	InvalidRequest  = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized    = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	InvalidUserID   = Definition{Code: "INVALID_USER_ID", Message: "Invalid user ID format"}
	TooManyRequests = Definition{Code: "TOO_MANY_REQUESTS", Message: "Too many requests"}
	Internal        = Definition{Code: "INTERNAL_ERROR", Message: "Internal error"}
)

// 资料模块错误。
var (
	ProfileNotFound  = Definition{Code: "PROFILE_NOT_FOUND", Message: "Profile not found"}
	ValidationFailed = Definition{Code: "VALIDATION_FAILED", Message: "Some fields are invalid"}
	PhoneRequired    = Definition{Code: "PHONE_REQUIRED", Message: "A phone number is required before basic information can be saved"}
)

// 引导流程错误。
var (
	PhaseInvalid              = Definition{Code: "PHASE_INVALID", Message: "Phase is not part of the profile flow"}
	PhaseLocked               = Definition{Code: "PHASE_LOCKED", Message: "Phase is locked until the previous phase is complete"}
	PhaseSubmissionInProgress = Definition{Code: "PHASE_SUBMISSION_IN_PROGRESS", Message: "A submission for this phase is already in progress"}
	PhaseSubmissionFailed     = Definition{Code: "PHASE_SUBMISSION_FAILED", Message: "Phase submission failed"}
	PhaseDeferred             = Definition{Code: "PHASE_DEFERRED", Message: "Saved as draft until the prerequisite is provided"}
	DraftNotFound             = Definition{Code: "DRAFT_NOT_FOUND", Message: "No draft saved for this phase"}
)

// 功能访问错误。
var (
	FeatureUnknown = Definition{Code: "FEATURE_UNKNOWN", Message: "Unknown feature"}
	FeatureLocked  = Definition{Code: "FEATURE_LOCKED", Message: "Complete more of your profile to unlock this feature"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:            InvalidRequest,
	Unauthorized.Code:              Unauthorized,
	InvalidUserID.Code:             InvalidUserID,
	TooManyRequests.Code:           TooManyRequests,
	Internal.Code:                  Internal,
	ProfileNotFound.Code:           ProfileNotFound,
	ValidationFailed.Code:          ValidationFailed,
	PhoneRequired.Code:             PhoneRequired,
	PhaseInvalid.Code:              PhaseInvalid,
	PhaseLocked.Code:               PhaseLocked,
	PhaseSubmissionInProgress.Code: PhaseSubmissionInProgress,
	PhaseSubmissionFailed.Code:     PhaseSubmissionFailed,
	PhaseDeferred.Code:             PhaseDeferred,
	DraftNotFound.Code:             DraftNotFound,
	FeatureUnknown.Code:            FeatureUnknown,
	FeatureLocked.Code:             FeatureLocked,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}
