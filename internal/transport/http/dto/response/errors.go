package response

var (
	ErrInvalidRequestFormat = ErrorResponse{
		Status:  "error",
		Error:   "invalid_request",
		Details: "Invalid request format",
	}

	ErrAuthenticationFailed = ErrorResponse{
		Status: "error",
		Error:  "authentication_failed",
	}

	ErrUnknownCollection = ErrorResponse{
		Status:  "error",
		Error:   "unknown_collection",
		Details: "No such collection",
	}

	ErrBackendFailure = ErrorResponse{
		Status:  "error",
		Error:   "backend_error",
		Details: "Operation against the data store failed",
	}

	ErrUploadFailed = ErrorResponse{
		Status:  "error",
		Error:   "storage_error",
		Details: "File upload failed",
	}
)
