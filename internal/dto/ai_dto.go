package dto

type DescribeImageRequest struct {
	PhotoBase64 string `json:"photo_base64"`
	MimeType    string `json:"mime_type"`
}

type DescribeImageResponse struct {
	Description string `json:"description"`
}

type DetectDamageRequest struct {
	PhotoBase64 string `json:"photo_base64"`
}

// DamageAnalysis is the structured result of the damage-detection call.
type DamageAnalysis struct {
	DetectedObject       string  `json:"detectedObject"`
	DamageType           string  `json:"damageType"`
	Severity             string  `json:"severity"`
	RepairRecommendation string  `json:"repairRecommendation"`
	Confidence           float64 `json:"confidence"`
}

type ChatbotRequest struct {
	Message string `json:"message"`
}

type ChatbotResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
