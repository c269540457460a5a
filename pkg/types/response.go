package types

// SuccessEnvelope wraps every successful API payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape returned to clients.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ListMeta carries offset pagination metadata alongside list payloads.
type ListMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}

// ListEnvelope wraps list payloads together with their pagination metadata.
type ListEnvelope struct {
	Data any      `json:"data"`
	Meta ListMeta `json:"meta"`
}
