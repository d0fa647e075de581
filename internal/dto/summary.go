package dto

// ── 汇总模块 DTO ──

// Metric 汇总数值。无法计算时 value 为 null，display 为 "N/A"
type Metric struct {
	Value   *float64 `json:"value"`
	Display string   `json:"display"`
}

// CategoryMeanResponse 按课程属性分组的平均分（柱状图数据）
type CategoryMeanResponse struct {
	Category  string `json:"course_category"`
	MeanScore Metric `json:"mean_score"`
	Count     int    `json:"count"`
}

// SummaryResponse 成绩汇总
type SummaryResponse struct {
	AverageScore              Metric `json:"average_score"`
	AverageGradePoint         Metric `json:"average_grade_point"`
	RequiredAverageScore      Metric `json:"required_average_score"`
	RequiredAverageGradePoint Metric `json:"required_average_grade_point"`
	RequiredScoreOutOf80      Metric `json:"required_score_out_of_80"`

	TotalCredits    float64 `json:"total_credits"`
	RequiredCredits float64 `json:"required_credits"`
	CountedRows     int     `json:"counted_rows"`
	ExcludedRows    int     `json:"excluded_rows"`

	CategoryMeans []CategoryMeanResponse `json:"category_means"`
}
