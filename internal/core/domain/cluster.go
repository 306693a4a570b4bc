package domain

type Cluster struct {
	ID            int    `json:"id"`
	MemberIndices []int  `json:"member_indices"`
	MergedText    string `json:"merged_text"`
}

type MindmapRequest struct {
	UserID      string   `json:"user_id"`
	DocumentIDs []string `json:"document_ids"`
	NumClusters int      `json:"num_clusters"`
}

type Mindmap struct {
	Markdown       string `json:"markdown"`
	ClusterCount   int    `json:"cluster_count"`
	FailedClusters int    `json:"failed_clusters"`
	ChunkCount     int    `json:"chunk_count"`
}
