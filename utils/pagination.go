package utils

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page normalizes 1-based page/size query values and returns the SQL offset
func Page(page, size int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size, (page - 1) * size
}
