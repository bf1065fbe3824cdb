package sessiondata

// How many pages of the given size it takes to show total items. There is
// always at least one page, even when it is empty.
func PageCount(total int, limit int) int {
	if limit < 1 || total < 1 {
		return 1
	}
	return (total-1)/limit + 1
}
