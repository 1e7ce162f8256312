package dto

// Every endpoint answers with one of these two envelopes.

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type DataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

func Fail(message string) ErrorResponse {
	return ErrorResponse{Success: false, Message: message}
}

func OK(data interface{}) DataResponse {
	return DataResponse{Success: true, Data: data}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
