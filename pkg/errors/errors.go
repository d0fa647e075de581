// Package errors 定义成绩表各层共享的错误分类。
//
// 具体错误通过 %w 包装这些哨兵值，调用方用 errors.Is 判断类别。
package errors

import "errors"

var (
	// ErrParse 上传的文件不是有效的成绩表，或缺少必要列
	ErrParse = errors.New("成绩表解析失败")

	// ErrIndex 编辑请求的行号超出当前表格范围
	ErrIndex = errors.New("行号超出范围")

	// ErrData 汇总时遇到既非数值也非“通过/免修”的成绩
	ErrData = errors.New("成绩数据无效")

	// ErrValidation 编辑或追加的字段值不满足取值范围
	ErrValidation = errors.New("字段校验失败")
)
