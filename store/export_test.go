package store

var (
	IsDuplicate = isDuplicate
	NotFound    = notFound
)
