package calendar

// Page описывает одну страницу слотов или записей.
type Page[T any] struct {
	Items    []T // элементы на текущей странице
	Page     int // номер страницы (с 1)
	PageSize int
	HasNext  bool
	Total    int
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// NormalizePage приводит номер и размер страницы к допустимым значениям.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// Offset переводит страницу в смещение для запроса к базе.
func Offset(page, pageSize int) int {
	page, pageSize = NormalizePage(page, pageSize)
	return (page - 1) * pageSize
}

// Paginate режет уже загруженный список. pageSize <= 0 — весь список одной страницей.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	total := len(items)
	if pageSize <= 0 {
		return Page[T]{Items: items, Page: 1, PageSize: total, Total: total}
	}
	page, pageSize = NormalizePage(page, pageSize)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	return Page[T]{
		Items:    items[start:end],
		Page:     page,
		PageSize: pageSize,
		HasNext:  end < total,
		Total:    total,
	}
}
