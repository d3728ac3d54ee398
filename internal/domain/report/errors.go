package report

import "errors"

var (
	ErrReportNotFound         = errors.New("medical report not found")
	ErrUnsupportedContentType = errors.New("only PDF and image reports are supported")
	ErrReportTooLarge         = errors.New("report exceeds the 20MB size limit")
)
