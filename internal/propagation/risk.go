package propagation

import "github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

// 风险阈值（百分比，严格大于）
const (
	criticalThresholdPct = 30
	highThresholdPct     = 15
	mediumThresholdPct   = 5
)

// ClassifyRisk 根据感染比例分级（>30% critical, >15% high, >5% medium, 其余 low）
// total 必须大于 0，由调用方保证。整数比较避免浮点边界误差。
func ClassifyRisk(infected, total int) models.RiskLevel {
	switch {
	case infected*100 > total*criticalThresholdPct:
		return models.RiskCritical
	case infected*100 > total*highThresholdPct:
		return models.RiskHigh
	case infected*100 > total*mediumThresholdPct:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
