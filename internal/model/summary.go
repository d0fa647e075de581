package model

// Summary 成绩汇总结果。分区学分和为 0 时对应平均值为 NaN。
type Summary struct {
	AverageScore              float64
	AverageGradePoint         float64
	RequiredAverageScore      float64
	RequiredAverageGradePoint float64
	RequiredScoreOutOf80      float64

	TotalCredits    float64
	RequiredCredits float64
	CountedRows     int
	ExcludedRows    int

	CategoryMeans []CategoryMean
}

// CategoryMean 某一课程属性下的简单平均分（不加权），用于柱状图
type CategoryMean struct {
	Category  Category
	MeanScore float64
	Count     int
}
