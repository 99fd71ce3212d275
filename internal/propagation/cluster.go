package propagation

import "github.com/LuzuJ/Agro-RedConect-sub001/internal/models"

// Cluster 同一病害的患病植物集合
type Cluster struct {
	DiseaseID   string
	DiseaseName string
	Members     []models.Plant
}

// DetectClusters 按病害 ID 聚合 Diseased 植物
// 簇的顺序为该病害第一株患病植物在输入中的顺序；成员保持输入顺序。
// Recovering 等其他状态不计入。
func DetectClusters(plants []models.Plant) []Cluster {
	var clusters []Cluster
	byDisease := make(map[string]int)

	for _, p := range plants {
		if p.Status() != models.StatusDiseased {
			continue
		}
		ref, ok := p.Health.Disease()
		if !ok {
			continue
		}
		idx, seen := byDisease[ref.DiseaseID]
		if !seen {
			idx = len(clusters)
			byDisease[ref.DiseaseID] = idx
			clusters = append(clusters, Cluster{DiseaseID: ref.DiseaseID, DiseaseName: ref.DiseaseName})
		}
		clusters[idx].Members = append(clusters[idx].Members, p)
	}
	return clusters
}
