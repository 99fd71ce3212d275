package propagation

import (
	"fmt"

	"github.com/LuzuJ/Agro-RedConect-sub001/internal/models"
)

var (
	severeRecommendations = []string{
		"Consider removing severely affected plants",
		"Apply preventive treatment to neighboring plants",
		"Improve ventilation and spacing between plants",
		"Consult a plant health specialist",
	}
	mediumRecommendations = []string{
		"Apply preventive fungicide around the affected area",
		"Reduce irrigation to avoid humid conditions",
	}
)

// Recommendations 根据风险等级生成建议（基础三条 + 按等级追加）
func Recommendations(level models.RiskLevel, diseaseName string) []string {
	recs := []string{
		fmt.Sprintf("Isolate plants affected by %s", diseaseName),
		"Disinfect tools after each use",
		"Increase surveillance of neighboring plants",
	}

	switch level {
	case models.RiskCritical, models.RiskHigh:
		recs = append(recs, severeRecommendations...)
	case models.RiskMedium:
		recs = append(recs, mediumRecommendations...)
	}
	return recs
}
