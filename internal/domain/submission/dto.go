package submission

// CreateRequest starts a new submission.
type CreateRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// SendRequest finalizes a submission against its one-time code.
type SendRequest struct {
	Code    string   `json:"code" validate:"required"`
	Message string   `json:"message"`
	Files   []string `json:"files" validate:"dive,uuid4"`
}

// VerifyResponse is returned when a code resolves.
type VerifyResponse struct {
	Email string `json:"email"`
}
