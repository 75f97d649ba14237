package core

// DefaultPageSize is the number of rows shown per page when a view does not
// configure one.
const DefaultPageSize = 8

// TotalPages returns ceil(total/pageSize), never less than 1.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage clamps page into [1, TotalPages(total, pageSize)].
func ClampPage(page, total, pageSize int) int {
	if page < 1 {
		return 1
	}
	if last := TotalPages(total, pageSize); page > last {
		return last
	}
	return page
}

// Offset returns the index of the first row of page.
func Offset(page, pageSize int) int {
	if page < 1 || pageSize <= 0 {
		return 0
	}
	return (page - 1) * pageSize
}

// Window returns rows[offset : offset+limit] bounded to the slice.
// A non-positive limit means no limit.
func Window(rows []Row, offset, limit int) []Row {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return []Row{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
